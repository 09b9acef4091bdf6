// Package lamatok provides a client for the Lamatok TikTok REST API.
package lamatok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

const (
	defaultBaseURL  = "https://api.lamatok.com"
	defaultPageSize = 30
)

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

// WithPageSize sets how many videos each page asks for.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRateLimit paces outgoing calls to perSecond requests.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client is a Lamatok API client.
type Client struct {
	key        string
	baseURL    string
	pageSize   int
	httpClient HTTPClient
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client authenticated with the given access key.
func NewClient(key string, opts ...ClientOption) *Client {
	c := &Client{
		key:        key,
		baseURL:    defaultBaseURL,
		pageSize:   defaultPageSize,
		httpClient: &http.Client{Timeout: 40 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HashtagID resolves a hashtag name to its challenge id. Unknown hashtags
// wrap scrape.ErrNotFound.
func (c *Client) HashtagID(ctx context.Context, hashtag string) (string, error) {
	body, err := c.get(ctx, "/v1/hashtag/info", url.Values{"hashtag": {hashtag}})
	if err != nil {
		return "", err
	}

	var info hashtagInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("failed to parse hashtag info response: %w", err)
	}

	id := info.ChallengeInfo.Challenge.ID.String()
	if id == "" {
		return "", fmt.Errorf("hashtag %s: %w", hashtag, scrape.ErrNotFound)
	}
	return id, nil
}

// HashtagMedias fetches one page of videos for a challenge id.
func (c *Client) HashtagMedias(ctx context.Context, challengeID, cursor string) (scrape.PageResult, error) {
	params := url.Values{
		"id":    {challengeID},
		"count": {strconv.Itoa(c.pageSize)},
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, err := c.get(ctx, "/v1/hashtag/medias", params)
	if err != nil {
		return scrape.PageResult{}, err
	}

	page, err := scrape.ParsePage(body, Schema)
	if err != nil {
		return scrape.PageResult{}, fmt.Errorf("failed to parse %s response: %w", mediasEndpoint, err)
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("access_key", c.key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Lamatok request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("lamatok call", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}

	return body, nil
}

// API response types (private - implementation detail)

type hashtagInfoResponse struct {
	ChallengeInfo struct {
		Challenge struct {
			ID json.Number `json:"id"`
		} `json:"challenge"`
	} `json:"challengeInfo"`
}
