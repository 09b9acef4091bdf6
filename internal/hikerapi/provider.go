package hikerapi

import (
	"context"
	"fmt"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

// Name identifies this provider in requests, metrics and cache keys.
const Name = "instagram"

const sampleSize = 10

// Provider exposes the client to the scrape pipeline.
type Provider struct {
	client *Client
}

// NewProvider wraps client as a scrape.Provider.
func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string          { return Name }
func (p *Provider) Schema() scrape.Schema { return Schema }

// Supports reports hashtag top, recent, clips and auto, and username posts
// and clips.
func (p *Provider) Supports(method scrape.Method, feed scrape.Feed) bool {
	switch method {
	case scrape.MethodHashtag:
		_, ok := hashtagFeeds[feed]
		return ok || feed == scrape.FeedAuto
	case scrape.MethodUsername:
		_, ok := userFeeds[feed]
		return ok
	}
	return false
}

// Open resolves the target and returns a stream for req.Feed. Username
// targets are resolved to an account id first; the resulting profile header
// travels with the stream.
func (p *Provider) Open(ctx context.Context, req scrape.Request) (*scrape.Source, error) {
	switch req.Method {
	case scrape.MethodHashtag:
		ep, ok := hashtagFeeds[req.Feed]
		if !ok {
			return nil, fmt.Errorf("unknown hashtag feed: %s", req.Feed)
		}
		return &scrape.Source{
			Label:   "hashtag_" + string(req.Feed),
			Adapter: p.adapter(ep, req.Target),
		}, nil

	case scrape.MethodUsername:
		ep, ok := userFeeds[req.Feed]
		if !ok {
			return nil, fmt.Errorf("username feed must be posts or clips, got %s", req.Feed)
		}
		profile, err := p.client.UserByUsername(ctx, req.Target)
		if err != nil {
			return nil, err
		}
		return &scrape.Source{
			Label:   "user_" + string(req.Feed),
			Adapter: p.adapter(ep, profile.ID),
			Profile: profile,
		}, nil
	}
	return nil, fmt.Errorf("unknown method: %s", req.Method)
}

func (p *Provider) adapter(ep endpoint, id string) scrape.Adapter {
	return scrape.AdapterFunc(func(ctx context.Context, cursor string) (scrape.PageResult, string, error) {
		page, err := p.client.fetchPage(ctx, ep, id, cursor)
		return page, ep.label, err
	})
}

// FetchProfile returns the account's profile with the first page of its
// posts and reels.
func (p *Provider) FetchProfile(ctx context.Context, username string) (*scrape.ProfileSummary, error) {
	profile, err := p.client.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	posts, err := p.client.fetchPage(ctx, userMedias, profile.ID, "")
	if err != nil {
		return nil, err
	}
	reels, err := p.client.fetchPage(ctx, userClips, profile.ID, "")
	if err != nil {
		return nil, err
	}

	discovery := scrape.DiscoveryLabel(scrape.MethodUsername, username)
	return &scrape.ProfileSummary{
		Profile:     *profile,
		PostsCount:  len(posts.Items),
		ReelsCount:  len(reels.Items),
		SamplePosts: sample(posts.Items, "user_posts", discovery),
		SampleReels: sample(reels.Items, "user_clips", discovery),
	}, nil
}

func sample(items []scrape.RawItem, source, discovery string) []scrape.Row {
	rows := make([]scrape.Row, 0, min(len(items), sampleSize))
	for _, item := range items {
		if len(rows) == sampleSize {
			break
		}
		if row, ok := scrape.Normalize(item, Schema, source, discovery); ok {
			rows = append(rows, row)
		}
	}
	return rows
}
