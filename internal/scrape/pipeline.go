// Package scrape implements the provider-agnostic content discovery pipeline.
//
// A run resolves a hashtag or username through a Provider, walks the
// resulting stream page by page, keeps records that pass the recency and
// engagement rules, and normalizes them into Rows. The auto feed falls back
// from the top stream to the recent stream when top alone cannot fill the
// quota. Batch runs repeat this per target and isolate failures.
//
// Everything here is sequential. Requests are immutable values and stages
// only read the raw records they are given.
package scrape

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"
)

const (
	autoPrimary   = FeedTop
	autoSecondary = FeedRecent
)

// Pipeline runs scrapes against a single provider.
type Pipeline struct {
	provider Provider
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for page and fallback events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithObserver registers an event observer.
func WithObserver(obs Observer) Option {
	return func(p *Pipeline) {
		p.observer = obs
	}
}

// WithClock replaces time.Now when computing the recency cutoff.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a pipeline for provider.
func New(provider Provider, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider: provider,
		logger:   slog.Default(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provider returns the name of the backing provider.
func (p *Pipeline) Provider() string {
	return p.provider.Name()
}

// Check validates req against the generic rules and the provider's feed
// support without making any call.
func (p *Pipeline) Check(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if !p.provider.Supports(req.Method, req.Feed) {
		return invalidf("%s does not support the %s feed for %s discovery", p.provider.Name(), req.Feed, req.Method)
	}
	return nil
}

// RunSingleTarget scrapes one target. Invalid requests fail before any
// provider call; provider failures fail the whole run.
func (p *Pipeline) RunSingleTarget(ctx context.Context, req Request) (*Result, error) {
	if err := p.Check(req); err != nil {
		return nil, err
	}

	pg := &Paginator{
		Schema:   p.provider.Schema(),
		Cutoff:   req.Cutoff(p.now()),
		Logger:   p.logger.With("provider", p.provider.Name(), "target", req.Discovery()),
		Observer: p.observer,
	}

	var (
		res *Result
		err error
	)
	if req.Feed == FeedAuto {
		res, err = p.runAuto(ctx, req, pg)
	} else {
		res, err = p.runFeed(ctx, req, pg)
	}
	if err != nil {
		return nil, p.fail(req.Debug, err)
	}

	res.Meta.Requested = req.MaxItems
	res.Meta.Method = req.Method
	res.Meta.Target = req.Target
	p.logger.Info("target scraped",
		"provider", p.provider.Name(),
		"target", req.Discovery(),
		"feed", res.Meta.EffectiveFeed,
		"fetched", res.Meta.Fetched,
		"kept", res.Meta.Kept,
		"requests", res.Meta.Requests)
	return res, nil
}

func (p *Pipeline) runFeed(ctx context.Context, req Request, pg *Paginator) (*Result, error) {
	src, err := p.provider.Open(ctx, req)
	if err != nil {
		return nil, err
	}
	rows, meta, err := pg.Run(ctx, req, src)
	if err != nil {
		return nil, err
	}
	meta.EffectiveFeed = string(req.Feed)
	return &Result{Rows: rows, Meta: meta, Profile: src.Profile}, nil
}

// runAuto reads the top feed and, when it falls short of the quota, asks the
// recent feed for the remainder with whatever request budget is left.
func (p *Pipeline) runAuto(ctx context.Context, req Request, pg *Paginator) (*Result, error) {
	primary, err := p.runFeed(ctx, req.WithFeed(autoPrimary), pg)
	if err != nil {
		return nil, err
	}
	if len(primary.Rows) >= req.MaxItems {
		return primary, nil
	}
	budget := req.MaxRequests - primary.Meta.Requests
	if budget < 1 {
		pg.Logger.Debug("fallback skipped, request budget spent", "kept", len(primary.Rows))
		return primary, nil
	}

	secondaryReq := req.
		WithFeed(autoSecondary).
		WithMaxItems(req.MaxItems - len(primary.Rows)).
		WithMaxRequests(budget)
	pg.Logger.Debug("falling back to secondary feed",
		"feed", autoSecondary,
		"remaining", secondaryReq.MaxItems,
		"budget", budget)

	secondary, err := p.runFeed(ctx, secondaryReq, pg)
	if err != nil {
		return nil, err
	}
	p.observer.FallbackUsed()
	return mergeFallback(primary, secondary), nil
}

func mergeFallback(primary, secondary *Result) *Result {
	rows := make([]Row, 0, len(primary.Rows)+len(secondary.Rows))
	rows = append(rows, primary.Rows...)
	rows = append(rows, secondary.Rows...)

	cursor := secondary.Meta.Cursor
	if cursor == "" {
		cursor = primary.Meta.Cursor
	}
	return &Result{
		Rows: rows,
		Meta: Meta{
			Endpoint:      primary.Meta.Endpoint + " + " + secondary.Meta.Endpoint,
			Cursor:        cursor,
			Fetched:       primary.Meta.Fetched + secondary.Meta.Fetched,
			Kept:          len(rows),
			Requests:      primary.Meta.Requests + secondary.Meta.Requests,
			EffectiveFeed: string(autoPrimary) + "+" + string(autoSecondary),
			FallbackUsed:  true,
		},
		Profile: primary.Profile,
	}
}

// FetchFullProfile looks up a username and samples its posts and reels.
func (p *Pipeline) FetchFullProfile(ctx context.Context, username string, withTrace bool) (*ProfileSummary, error) {
	if err := ValidateTarget(MethodUsername, username); err != nil {
		return nil, err
	}
	profiler, ok := p.provider.(Profiler)
	if !ok {
		return nil, invalidf("%s does not support profile lookup", p.provider.Name())
	}
	summary, err := profiler.FetchProfile(ctx, username)
	if err != nil {
		return nil, p.fail(withTrace, err)
	}
	return summary, nil
}

func (p *Pipeline) fail(withTrace bool, err error) error {
	e := asError(err)
	if withTrace && e.Trace == "" {
		e.Trace = string(debug.Stack())
	}
	level := slog.LevelWarn
	if errors.Is(err, context.Canceled) {
		level = slog.LevelDebug
	}
	p.logger.Log(context.Background(), level, "scrape failed", "provider", p.provider.Name(), "kind", e.Kind, "error", e.Message)
	return e
}
