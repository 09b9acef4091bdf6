package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Runner runs a single-target scrape. *Pipeline implements it, as do
// wrappers such as a result cache.
type Runner interface {
	RunSingleTarget(ctx context.Context, req Request) (*Result, error)
}

// Service is what front ends need from one provider. *Pipeline implements it.
type Service interface {
	Runner
	FetchFullProfile(ctx context.Context, username string, withTrace bool) (*ProfileSummary, error)
	Provider() string
}

// Aggregator runs one request template over many targets in order. A failing
// target becomes a warning and never aborts the batch.
type Aggregator struct {
	Runner   Runner
	Logger   *slog.Logger
	Observer Observer
}

// Run scrapes each target with base.WithTarget(target). Targets are
// normalized first so row labels match the cached results.
func (a *Aggregator) Run(ctx context.Context, base Request, targets []string) *BatchResult {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	obs := a.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	out := &BatchResult{
		Rows:     []Row{},
		Warnings: []string{},
		Meta: BatchMeta{
			Method:    base.Method,
			Feed:      base.Feed,
			Targets:   make([]string, 0, len(targets)),
			Requested: base.MaxItems,
		},
	}
	var endpoints []string
	seen := make(map[string]bool)

	for _, target := range targets {
		target = NormalizeTarget(target)
		out.Meta.Targets = append(out.Meta.Targets, target)
		req := base.WithTarget(target)

		res, err := a.Runner.RunSingleTarget(ctx, req)
		if err != nil {
			msg := fmt.Sprintf("%s: %s", target, Message(err))
			out.Warnings = append(out.Warnings, msg)
			obs.TargetFailed(target)
			logger.Warn("batch target failed", "target", req.Discovery(), "error", Message(err))
			continue
		}

		label := req.Discovery()
		for _, row := range res.Rows {
			out.Rows = append(out.Rows, row.WithTarget(label))
		}
		out.Meta.Fetched += res.Meta.Fetched
		out.Meta.Kept += res.Meta.Kept
		out.Meta.Requests += res.Meta.Requests
		out.Meta.FallbackUsed = out.Meta.FallbackUsed || res.Meta.FallbackUsed
		if res.Meta.Endpoint != "" && !seen[res.Meta.Endpoint] {
			seen[res.Meta.Endpoint] = true
			endpoints = append(endpoints, res.Meta.Endpoint)
		}
	}

	out.Meta.Endpoint = strings.Join(endpoints, ", ")
	logger.Info("batch finished",
		"targets", len(targets),
		"failed", len(out.Warnings),
		"rows", len(out.Rows),
		"requests", out.Meta.Requests)
	return out
}

// RunBatch runs targets through p without any wrapping runner.
func (p *Pipeline) RunBatch(ctx context.Context, base Request, targets []string) *BatchResult {
	agg := &Aggregator{Runner: p, Logger: p.logger, Observer: p.observer}
	return agg.Run(ctx, base, targets)
}
