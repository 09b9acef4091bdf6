package lamatok

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

var now = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func video(id string, plays int) string {
	return fmt.Sprintf(`{"id":%q,"createTime":%d,"author":{"uniqueId":"dancer"},"stats":{"playCount":%d,"diggCount":40,"commentCount":2}}`,
		id, now.Add(-3*time.Hour).Unix(), plays)
}

func videos(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = video(fmt.Sprintf("%s%d", prefix, i+1), 1000)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func request() scrape.Request {
	return scrape.Request{
		Method:      scrape.MethodHashtag,
		Target:      "dance",
		Feed:        scrape.FeedTop,
		MaxItems:    100,
		MaxRequests: 10,
		MaxAgeDays:  7,
	}
}

func newPipeline(serverURL string, opts ...ClientOption) *scrape.Pipeline {
	client := NewClient("secret", append([]ClientOption{WithBaseURL(serverURL)}, opts...)...)
	return scrape.New(NewProvider(client), scrape.WithClock(func() time.Time { return now }))
}

func TestProvider_ResolvesHashtagThenPagesUntilNoMore(t *testing.T) {
	var mediaCalls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("access_key"), "every call should carry the access key")
		switch r.URL.Path {
		case "/v1/hashtag/info":
			assert.Equal(t, "dance", q.Get("hashtag"))
			_, _ = w.Write([]byte(`{"challengeInfo":{"challenge":{"id":"1573"}}}`))
		case "/v1/hashtag/medias":
			assert.Equal(t, "1573", q.Get("id"))
			assert.Equal(t, "12", q.Get("count"))
			mediaCalls = append(mediaCalls, q.Get("cursor"))
			if q.Get("cursor") == "" {
				fmt.Fprintf(w, `{"itemList":%s,"cursor":30,"hasMore":true}`, videos("a", 2))
				return
			}
			fmt.Fprintf(w, `{"itemList":%s,"cursor":60,"hasMore":false}`, videos("b", 2))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	res, err := newPipeline(server.URL, WithPageSize(12)).RunSingleTarget(context.Background(), request())

	require.NoError(t, err)
	assert.Equal(t, []string{"", "30"}, mediaCalls, "numeric cursors should be passed back as sent")
	require.Len(t, res.Rows, 4)
	assert.Equal(t, "https://www.tiktok.com/@dancer/video/a1", res.Rows[0].URL)
	assert.Equal(t, "tiktok_hashtag", res.Rows[0].Source)
	assert.Equal(t, int64(1000), res.Rows[0].Plays)
	assert.Equal(t, int64(40), res.Rows[0].Likes)
	assert.Equal(t, int64(1042), res.Rows[0].Engagement)
	assert.Equal(t, "hashtag_medias_v1", res.Meta.Endpoint)
	assert.Empty(t, res.Meta.Cursor, "hasMore=false should end the feed")
}

func TestClient_UnknownHashtagIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"challengeInfo":{}}`))
	}))
	defer server.Close()

	_, err := newPipeline(server.URL).RunSingleTarget(context.Background(), request())

	var se *scrape.Error
	require.ErrorAs(t, err, &se)
	assert.True(t, se.NotFound())
	assert.True(t, errors.Is(err, scrape.ErrNotFound))
}

func TestClient_ErrorMessagePriority(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"Invalid access key","message":"ignored"}`, "Invalid access key"},
		{"message field", `{"message":"Hashtag is banned"}`, "Hashtag is banned"},
		{"empty body", ``, "HTTP 402 Payment Required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusPaymentRequired)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewClient("k", WithBaseURL(server.URL)).HashtagID(context.Background(), "x")

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.want, apiErr.Message)
		})
	}
}

func TestProvider_RejectsUnsupportedFeeds(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()
	p := newPipeline(server.URL)

	_, autoErr := p.RunSingleTarget(context.Background(), request().WithFeed(scrape.FeedAuto))
	userReq := request()
	userReq.Method = scrape.MethodUsername
	userReq.Feed = scrape.FeedPosts
	_, userErr := p.RunSingleTarget(context.Background(), userReq)
	_, profileErr := p.FetchFullProfile(context.Background(), "someone", false)

	for _, err := range []error{autoErr, userErr, profileErr} {
		var se *scrape.Error
		require.ErrorAs(t, err, &se)
		assert.Equal(t, scrape.KindInvalidRequest, se.Kind)
	}
	assert.Zero(t, calls, "unsupported requests should never reach Lamatok")
}

func TestProvider_FiltersByStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/hashtag/info" {
			_, _ = w.Write([]byte(`{"challengeInfo":{"challenge":{"id":9}}}`))
			return
		}
		fmt.Fprintf(w, `{"itemList":[%s,%s],"hasMore":false}`, video("low", 10), video("high", 50000))
	}))
	defer server.Close()

	req := request()
	req.MinPlays = 1000
	res, err := newPipeline(server.URL).RunSingleTarget(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "high", res.Rows[0].ID)
	assert.Equal(t, 2, res.Meta.Fetched)
}
