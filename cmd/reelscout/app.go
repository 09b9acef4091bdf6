package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/reelscout/internal/cache"
	"github.com/gauthierbraillon/reelscout/internal/config"
	"github.com/gauthierbraillon/reelscout/internal/display"
	"github.com/gauthierbraillon/reelscout/internal/metrics"
	"github.com/gauthierbraillon/reelscout/internal/providers"
	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	version string
	cfgFile string
	verbose bool

	cfg      *config.Config
	logger   *slog.Logger
	metrics  *prometheus.Registry
	store    cache.Store
	registry *providers.Registry
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Logging, a.verbose).
		With("run_id", uuid.NewString())
	slog.SetDefault(a.logger)

	store, err := cache.Open(cache.Options{
		Backend:    cfg.Cache.Backend,
		MaxEntries: cfg.Cache.MaxEntries,
		RedisURL:   cfg.Cache.RedisURL,
	})
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	a.store = store

	a.metrics = prometheus.NewRegistry()
	a.registry = providers.Build(cfg, providers.Options{
		Store:    store,
		Recorder: metrics.NewRecorder(a.metrics),
		Logger:   a.logger,
	})

	a.logger.Debug("configuration loaded",
		"file", cfg.File,
		"providers", a.registry.Names(),
		"cache", cfg.Cache.Backend)
	return nil
}

func (a *app) close() error {
	if c, ok := a.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (a *app) formatter(w io.Writer) *display.TerminalFormatter {
	return display.NewTerminalFormatter(w, a.cfg.Output.Colors)
}

// baseRequest seeds a request from the configured defaults.
func (a *app) baseRequest() scrape.Request {
	d := a.cfg.Defaults
	return scrape.Request{
		Method:         scrape.MethodHashtag,
		MaxItems:       d.MaxItems,
		MaxRequests:    d.MaxRequests,
		MaxAgeDays:     d.MaxAgeDays,
		IncludeUndated: d.IncludeUndated,
	}
}

// reportFailure prints the stack trace of a debug run before the error
// itself is returned to cobra.
func reportFailure(w io.Writer, err error) error {
	var scrapeErr *scrape.Error
	if errors.As(err, &scrapeErr) && scrapeErr.Trace != "" {
		fmt.Fprintf(w, "%s\n", scrapeErr.Trace)
	}
	return err
}
