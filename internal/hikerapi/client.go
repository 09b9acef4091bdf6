// Package hikerapi provides a client for the HikerAPI Instagram REST API.
package hikerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

const defaultBaseURL = "https://api.hikerapi.com"

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithRateLimit paces outgoing calls to perSecond requests. Zero or less
// disables pacing.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Duration(float64(time.Second)/perSecond)), 1)
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client is a HikerAPI client authenticated with an access key.
type Client struct {
	token      string
	baseURL    string
	httpClient HTTPClient
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new HikerAPI client with the given access key.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// UserByUsername looks up an account. Unknown usernames wrap
// scrape.ErrNotFound.
func (c *Client) UserByUsername(ctx context.Context, username string) (*scrape.Profile, error) {
	body, err := c.get(ctx, "/v1/user/by/username", url.Values{"username": {username}})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("user %s: %w", username, scrape.ErrNotFound)
		}
		return nil, err
	}

	var decoded any
	if err := decode(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}

	user, ok := unwrapUser(decoded)
	if !ok {
		return nil, fmt.Errorf("unexpected user response for %s", username)
	}
	id := firstString(user, "pk", "id", "user_id")
	if id == "" {
		return nil, fmt.Errorf("user ID not found for %s", username)
	}

	return &scrape.Profile{
		ID:        id,
		Username:  username,
		FullName:  firstString(user, "full_name"),
		Biography: firstString(user, "biography"),
		Followers: count(user, "follower_count"),
		Following: count(user, "following_count"),
		Posts:     count(user, "media_count"),
		Verified:  flag(user, "is_verified"),
		Private:   flag(user, "is_private"),
		URL:       ProfileURL(username),
	}, nil
}

// fetchPage requests one chunk of ep for id, continuing from cursor.
func (c *Client) fetchPage(ctx context.Context, ep endpoint, id, cursor string) (scrape.PageResult, error) {
	params := url.Values{ep.idParam: {id}}
	if cursor != "" {
		params.Set(ep.cursorParam, cursor)
	}

	body, err := c.get(ctx, ep.path, params)
	if err != nil {
		return scrape.PageResult{}, err
	}

	page, err := scrape.ParsePage(body, Schema)
	if err != nil {
		return scrape.PageResult{}, fmt.Errorf("failed to parse %s response: %w", ep.label, err)
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-access-key", c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HikerAPI request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("hikerapi call", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}

	return body, nil
}

func decode(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

// unwrapUser accepts {"user": {...}}, the user object itself, or a list
// whose first element is the user.
func unwrapUser(v any) (map[string]any, bool) {
	switch body := v.(type) {
	case map[string]any:
		if inner, ok := body["user"].(map[string]any); ok {
			return inner, true
		}
		return body, true
	case []any:
		if len(body) > 0 {
			user, ok := body[0].(map[string]any)
			return user, ok
		}
	}
	return nil, false
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			if v.String() != "0" {
				return v.String()
			}
		}
	}
	return ""
}

func count(m map[string]any, key string) int64 {
	n, ok := m[key].(json.Number)
	if !ok {
		return 0
	}
	i, _ := n.Int64()
	return i
}

func flag(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// ProfileURL returns the public Instagram URL of username.
func ProfileURL(username string) string {
	return "https://www.instagram.com/" + username
}
