// Package providers wires configured content providers into ready-to-use
// scrape services.
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/gauthierbraillon/reelscout/internal/cache"
	"github.com/gauthierbraillon/reelscout/internal/config"
	"github.com/gauthierbraillon/reelscout/internal/hikerapi"
	"github.com/gauthierbraillon/reelscout/internal/lamatok"
	"github.com/gauthierbraillon/reelscout/internal/metrics"
	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

// Backend is one provider behind its cache, with batch support.
type Backend struct {
	scrape.Service

	logger   *slog.Logger
	observer scrape.Observer
}

// RunBatch runs base over targets one by one. Each target goes through the
// backend's cache.
func (b *Backend) RunBatch(ctx context.Context, base scrape.Request, targets []string) *scrape.BatchResult {
	agg := &scrape.Aggregator{Runner: b.Service, Logger: b.logger, Observer: b.observer}
	return agg.Run(ctx, base, targets)
}

// Registry holds the backends that have credentials.
type Registry struct {
	backends map[string]*Backend
	missing  map[string]string
	fallback string
}

// Options carries the shared collaborators for Build.
type Options struct {
	// Store is optional; nil disables caching.
	Store    cache.Store
	Recorder *metrics.Recorder
	Logger   *slog.Logger
	// HTTPClient overrides the client built from cfg.HTTP.
	HTTPClient *http.Client
}

// Build creates a backend for every provider whose secret is set.
func Build(cfg *config.Config, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	reg := NewRegistry(cfg.Defaults.Provider)

	if hk := cfg.Providers.HikerAPI; hk.Token != "" {
		client := hikerapi.NewClient(hk.Token,
			hikerapi.WithBaseURL(hk.BaseURL),
			hikerapi.WithHTTPClient(httpClient),
			hikerapi.WithRateLimit(hk.RatePerSecond),
			hikerapi.WithLogger(logger),
		)
		reg.add(hikerapi.NewProvider(client), cfg, opts, logger)
	} else {
		reg.missing[hikerapi.Name] = "HIKERAPI_TOKEN"
	}

	if lt := cfg.Providers.Lamatok; lt.Key != "" {
		client := lamatok.NewClient(lt.Key,
			lamatok.WithBaseURL(lt.BaseURL),
			lamatok.WithHTTPClient(httpClient),
			lamatok.WithRateLimit(lt.RatePerSecond),
			lamatok.WithPageSize(lt.PageSize),
			lamatok.WithLogger(logger),
		)
		reg.add(lamatok.NewProvider(client), cfg, opts, logger)
	} else {
		reg.missing[lamatok.Name] = "LAMATOK_KEY"
	}

	return reg
}

func (r *Registry) add(p scrape.Provider, cfg *config.Config, opts Options, logger *slog.Logger) {
	var obs scrape.Observer
	pipeOpts := []scrape.Option{scrape.WithLogger(logger)}
	if opts.Recorder != nil {
		obs = opts.Recorder.For(p.Name())
		pipeOpts = append(pipeOpts, scrape.WithObserver(obs))
	}

	var svc scrape.Service = scrape.New(p, pipeOpts...)
	if opts.Store != nil {
		svc = cache.NewRunner(svc, opts.Store, cfg.Cache.TTL, logger)
	}
	r.Register(p.Name(), svc, obs, logger)
}

// Register adds svc under name, replacing any existing backend.
func (r *Registry) Register(name string, svc scrape.Service, obs scrape.Observer, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.backends[name] = &Backend{Service: svc, logger: logger, observer: obs}
	delete(r.missing, name)
}

// NewRegistry returns an empty registry whose default provider is fallback.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		backends: make(map[string]*Backend),
		missing:  make(map[string]string),
		fallback: fallback,
	}
}

// Get returns the backend for name. An empty name selects the configured
// default provider.
func (r *Registry) Get(name string) (*Backend, error) {
	if name == "" {
		name = r.fallback
	}
	if b, ok := r.backends[name]; ok {
		return b, nil
	}
	if env, ok := r.missing[name]; ok {
		return nil, fmt.Errorf("%s provider is not configured: set %s", name, env)
	}
	return nil, fmt.Errorf("unknown provider %q (available: %v)", name, r.Names())
}

// DefaultFeed picks the feed for a request that names none: posts for
// usernames, top for TikTok hashtags, auto otherwise.
func DefaultFeed(provider string, method scrape.Method) scrape.Feed {
	switch {
	case method == scrape.MethodUsername:
		return scrape.FeedPosts
	case provider == lamatok.Name:
		return scrape.FeedTop
	default:
		return scrape.FeedAuto
	}
}

// Names lists configured providers in alphabetical order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.backends))
}

// Default returns the name used when a caller gives none.
func (r *Registry) Default() string {
	return r.fallback
}

// Has reports whether name is configured.
func (r *Registry) Has(name string) bool {
	_, ok := r.backends[name]
	return ok
}
