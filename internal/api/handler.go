package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gauthierbraillon/reelscout/internal/providers"
	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

// maxBatchTargets bounds a single batch request.
const maxBatchTargets = 100

type handler struct {
	backends Backends
	defaults scrape.Request
}

type scrapeBody struct {
	Provider string `json:"provider"`
	scrape.Request
}

type batchBody struct {
	Provider string         `json:"provider"`
	Targets  []string       `json:"targets"`
	Request  scrape.Request `json:"request"`
}

// ErrorDetail is the body of every failed response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Debug   string `json:"debug,omitempty"`
}

type errorResponse struct {
	Error ErrorDetail `json:"error"`
}

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status    string   `json:"status"`
	Uptime    string   `json:"uptime"`
	Version   string   `json:"version"`
	Providers []string `json:"providers"`
}

// health returns a handler for GET /api/v1/health.
func health(backends Backends, startTime time.Time, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		names := backends.Names()
		if len(names) == 0 {
			status = "degraded"
		}
		c.JSON(http.StatusOK, HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Version:   version,
			Providers: names,
		})
	}
}

// scrape handles POST /api/v1/scrape.
func (h *handler) scrape(c *gin.Context) {
	body := scrapeBody{Request: h.defaults}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	body.Target = scrape.NormalizeTarget(body.Target)

	backend, err := h.backends.Get(body.Provider)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	body.Request = withDefaultFeed(body.Request, backend)

	res, err := backend.RunSingleTarget(c.Request.Context(), body.Request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// batch handles POST /api/v1/batch. Failed targets are reported in
// warnings with a 200 status.
func (h *handler) batch(c *gin.Context) {
	body := batchBody{Request: h.defaults}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}

	targets := make([]string, 0, len(body.Targets))
	for _, t := range body.Targets {
		if t = scrape.NormalizeTarget(t); t != "" {
			targets = append(targets, t)
		}
	}
	switch {
	case len(targets) == 0:
		badRequest(c, "targets must contain at least one entry")
		return
	case len(targets) > maxBatchTargets:
		badRequest(c, "maximum "+strconv.Itoa(maxBatchTargets)+" targets per batch")
		return
	}

	backend, err := h.backends.Get(body.Provider)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, backend.RunBatch(c.Request.Context(), withDefaultFeed(body.Request, backend), targets))
}

func withDefaultFeed(req scrape.Request, backend *providers.Backend) scrape.Request {
	if req.Feed == "" {
		return req.WithFeed(providers.DefaultFeed(backend.Provider(), req.Method))
	}
	return req
}

// profile handles GET /api/v1/profile/:username.
func (h *handler) profile(c *gin.Context) {
	backend, err := h.backends.Get(c.Query("provider"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	debug, _ := strconv.ParseBool(c.Query("debug"))
	username := scrape.NormalizeTarget(c.Param("username"))

	summary, err := backend.FetchFullProfile(c.Request.Context(), username, debug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: ErrorDetail{
		Code:    string(scrape.KindInvalidRequest),
		Message: msg,
	}})
}

// respondError maps a pipeline error to the matching status and writes a
// structured JSON error response.
func respondError(c *gin.Context, err error) {
	var scrapeErr *scrape.Error
	if !errors.As(err, &scrapeErr) {
		scrapeErr = &scrape.Error{Kind: "INTERNAL_ERROR", Message: err.Error(), Err: err}
	}

	c.JSON(mapErrorToStatus(scrapeErr), errorResponse{Error: ErrorDetail{
		Code:    string(scrapeErr.Kind),
		Message: scrapeErr.Message,
		Debug:   scrapeErr.Trace,
	}})
}

// mapErrorToStatus translates error kinds to HTTP status codes.
func mapErrorToStatus(e *scrape.Error) int {
	switch {
	case e.Kind == scrape.KindInvalidRequest:
		return http.StatusBadRequest // 400
	case e.NotFound():
		return http.StatusNotFound // 404
	case e.Kind == scrape.KindProvider:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
