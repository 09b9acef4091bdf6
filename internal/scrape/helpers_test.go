package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var testSchema = Schema{
	ItemsField:    "items",
	CursorFields:  []string{"max_id", "end_cursor"},
	HasMoreField:  "more_available",
	ID:            Field{"code"},
	Author:        Field{"user", "username"},
	Timestamps:    []Field{{"taken_at_ts"}, {"taken_at"}},
	Plays:         []Field{{"play_count"}, {"view_count"}},
	Likes:         []Field{{"like_count"}},
	Comments:      []Field{{"comment_count"}},
	MetricsHidden: Field{"like_and_view_counts_disabled"},
	Permalink: func(id, _ string) string {
		return "https://example.test/p/" + id + "/"
	},
}

// post builds a raw record created ageHours before testNow.
func post(code string, ageHours int, plays, likes, comments int64) RawItem {
	return RawItem{
		"code":          code,
		"user":          map[string]any{"username": "alice"},
		"taken_at":      testNow.Add(-time.Duration(ageHours) * time.Hour).Unix(),
		"play_count":    plays,
		"like_count":    likes,
		"comment_count": comments,
	}
}

func posts(prefix string, n int, plays int64) []RawItem {
	items := make([]RawItem, n)
	for i := range items {
		items[i] = post(fmt.Sprintf("%s%d", prefix, i+1), 1, plays, 10, 1)
	}
	return items
}

// scriptedAdapter serves pages in order and an empty exhausted page after.
type scriptedAdapter struct {
	endpoint string
	pages    []PageResult
	err      error
	cursors  []string
	calls    int
}

func (a *scriptedAdapter) Fetch(_ context.Context, cursor string) (PageResult, string, error) {
	a.calls++
	a.cursors = append(a.cursors, cursor)
	if a.err != nil {
		return PageResult{}, "", a.err
	}
	if a.calls > len(a.pages) {
		return PageResult{}, a.endpoint, nil
	}
	return a.pages[a.calls-1], a.endpoint, nil
}

// endlessAdapter always returns a full page of passing items with a cursor.
type endlessAdapter struct {
	endpoint string
	perPage  int
	calls    int
}

func (a *endlessAdapter) Fetch(_ context.Context, _ string) (PageResult, string, error) {
	a.calls++
	return PageResult{
		Items:  posts(fmt.Sprintf("%s-p%d-", a.endpoint, a.calls), a.perPage, 1000),
		Cursor: fmt.Sprintf("cursor-%d", a.calls),
	}, a.endpoint, nil
}

// fakeProvider opens adapters through a caller supplied function.
type fakeProvider struct {
	open   func(req Request) (Adapter, error)
	opened []Request
}

func (p *fakeProvider) Name() string   { return "fake" }
func (p *fakeProvider) Schema() Schema { return testSchema }

func (p *fakeProvider) Supports(method Method, feed Feed) bool {
	return method.accepts(feed)
}

func (p *fakeProvider) Open(_ context.Context, req Request) (*Source, error) {
	p.opened = append(p.opened, req)
	a, err := p.open(req)
	if err != nil {
		return nil, err
	}
	return &Source{Label: "fake_" + string(req.Feed), Adapter: a}, nil
}

func feeds(byFeed map[Feed]Adapter) *fakeProvider {
	return &fakeProvider{open: func(req Request) (Adapter, error) {
		a, ok := byFeed[req.Feed]
		if !ok {
			return nil, errors.New("no stream for feed " + string(req.Feed))
		}
		return a, nil
	}}
}

func baseRequest() Request {
	return Request{
		Method:         MethodHashtag,
		Target:         "dogs",
		Feed:           FeedTop,
		MaxItems:       10,
		MaxRequests:    5,
		MaxAgeDays:     365,
		IncludeUndated: true,
	}
}

func newTestPipeline(p Provider, opts ...Option) *Pipeline {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return New(p, opts...)
}

func codes(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
