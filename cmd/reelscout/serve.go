package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/reelscout/internal/api"
)

const shutdownTimeout = 5 * time.Second

// newServeCmd creates the serve subcommand.
func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: "Serve the scrape pipeline over HTTP:\n" +
			"  POST /api/v1/scrape, POST /api/v1/batch, GET /api/v1/profile/:username,\n" +
			"  GET /api/v1/health and GET /metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			router := api.NewRouter(a.registry, api.Options{
				Mode:      a.cfg.Server.Mode,
				Defaults:  a.baseRequest(),
				Gatherer:  a.metrics,
				Logger:    a.logger,
				StartTime: time.Now(),
				Version:   a.version,
			})

			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("HTTP server listening", "addr", addr, "providers", a.registry.Names())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				a.logger.Info("shutdown signal received")
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				a.logger.Error("HTTP server forced shutdown", "error", err)
				return err
			}
			a.logger.Info("HTTP server drained gracefully")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}
