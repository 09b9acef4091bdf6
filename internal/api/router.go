// Package api exposes the scrape pipeline over HTTP.
package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gauthierbraillon/reelscout/internal/providers"
	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

// Backends resolves provider names. *providers.Registry implements it.
type Backends interface {
	Get(name string) (*providers.Backend, error)
	Names() []string
}

// Options configures the router.
type Options struct {
	// Mode is the gin mode: debug, release or test.
	Mode string
	// Defaults seeds every request body before it is decoded. An empty Feed
	// is chosen per provider and method.
	Defaults scrape.Request
	// Gatherer backs GET /metrics; nil leaves the route out.
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
	StartTime time.Time
	Version   string
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestLogger
func NewRouter(backends Backends, opts Options) *gin.Engine {
	if opts.Mode == "" {
		opts.Mode = gin.ReleaseMode
	}
	gin.SetMode(opts.Mode)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}

	h := &handler{backends: backends, defaults: opts.Defaults}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	v1 := r.Group("/api/v1")
	v1.GET("/health", health(backends, opts.StartTime, opts.Version))
	v1.POST("/scrape", h.scrape)
	v1.POST("/batch", h.batch)
	v1.GET("/profile/:username", h.profile)

	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	return r
}
