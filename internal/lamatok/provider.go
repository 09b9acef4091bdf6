package lamatok

import (
	"context"
	"fmt"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

// Name identifies this provider in requests, metrics and cache keys.
const Name = "tiktok"

// Provider exposes hashtag discovery to the scrape pipeline. Lamatok has a
// single ranking per hashtag, served as the top feed.
type Provider struct {
	client *Client
}

// NewProvider wraps client as a scrape.Provider.
func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string          { return Name }
func (p *Provider) Schema() scrape.Schema { return Schema }

func (p *Provider) Supports(method scrape.Method, feed scrape.Feed) bool {
	return method == scrape.MethodHashtag && feed == scrape.FeedTop
}

// Open resolves the hashtag's challenge id.
func (p *Provider) Open(ctx context.Context, req scrape.Request) (*scrape.Source, error) {
	if !p.Supports(req.Method, req.Feed) {
		return nil, fmt.Errorf("lamatok serves hashtag top feeds only, got %s/%s", req.Method, req.Feed)
	}

	id, err := p.client.HashtagID(ctx, req.Target)
	if err != nil {
		return nil, err
	}

	return &scrape.Source{
		Label: "tiktok_hashtag",
		Adapter: scrape.AdapterFunc(func(ctx context.Context, cursor string) (scrape.PageResult, string, error) {
			page, err := p.client.HashtagMedias(ctx, id, cursor)
			return page, mediasEndpoint, err
		}),
	}, nil
}
