package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

// Runner serves single-target results and profiles from a Store, falling
// through to the wrapped service on a miss. Failures are never stored.
// Cache errors are logged and treated as misses.
type Runner struct {
	next   scrape.Service
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewRunner wraps next. A ttl of zero or less means DefaultTTL.
func NewRunner(next scrape.Service, store Store, ttl time.Duration, logger *slog.Logger) *Runner {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{next: next, store: store, ttl: ttl, logger: logger}
}

// Provider names the wrapped provider.
func (r *Runner) Provider() string {
	return r.next.Provider()
}

// RunSingleTarget runs req with its target lower-cased, so a cached result
// carries the same labels whichever casing filled it.
func (r *Runner) RunSingleTarget(ctx context.Context, req scrape.Request) (*scrape.Result, error) {
	req = req.WithTarget(strings.ToLower(req.Target))
	key := Key(r.next.Provider(), req)

	var cached scrape.Result
	if r.load(ctx, key, &cached) {
		r.logger.Debug("cache hit", "target", req.Discovery(), "feed", req.Feed)
		return &cached, nil
	}

	res, err := r.next.RunSingleTarget(ctx, req)
	if err != nil {
		return nil, err
	}
	r.save(ctx, key, res)
	return res, nil
}

func (r *Runner) FetchFullProfile(ctx context.Context, username string, withTrace bool) (*scrape.ProfileSummary, error) {
	username = strings.ToLower(username)
	key := ProfileKey(r.next.Provider(), username)

	var cached scrape.ProfileSummary
	if r.load(ctx, key, &cached) {
		r.logger.Debug("cache hit", "profile", username)
		return &cached, nil
	}

	summary, err := r.next.FetchFullProfile(ctx, username, withTrace)
	if err != nil {
		return nil, err
	}
	r.save(ctx, key, summary)
	return summary, nil
}

func (r *Runner) load(ctx context.Context, key string, v any) bool {
	data, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache read failed", "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		r.logger.Warn("cache entry unreadable", "error", err)
		return false
	}
	return true
}

func (r *Runner) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn("cache encode failed", "error", err)
		return
	}
	if err := r.store.Set(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn("cache write failed", "error", err)
	}
}
