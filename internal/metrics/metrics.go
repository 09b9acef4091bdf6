// Package metrics provides Prometheus metrics for reelscout.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

const namespace = "reelscout"

// Recorder owns the scrape counters.
type Recorder struct {
	PagesFetched   *prometheus.CounterVec
	ItemsFetched   *prometheus.CounterVec
	ItemsKept      *prometheus.CounterVec
	Fallbacks      *prometheus.CounterVec
	TargetFailures *prometheus.CounterVec
}

// NewRecorder registers the counters with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		PagesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_fetched_total",
				Help:      "Total number of provider pages fetched",
			},
			[]string{"provider", "endpoint"},
		),
		ItemsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_fetched_total",
				Help:      "Total number of raw items received from providers",
			},
			[]string{"provider"},
		),
		ItemsKept: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_kept_total",
				Help:      "Total number of items that passed the filters",
			},
			[]string{"provider"},
		),
		Fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Total number of auto feeds that fell back to the recent feed",
			},
			[]string{"provider"},
		),
		TargetFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "target_failures_total",
				Help:      "Total number of batch targets that failed",
			},
			[]string{"provider"},
		),
	}
}

// For returns an observer that labels events with provider.
func (r *Recorder) For(provider string) scrape.Observer {
	return observer{r: r, provider: provider}
}

type observer struct {
	r        *Recorder
	provider string
}

func (o observer) PageFetched(endpoint string, items, kept int) {
	o.r.PagesFetched.WithLabelValues(o.provider, endpoint).Inc()
	o.r.ItemsFetched.WithLabelValues(o.provider).Add(float64(items))
	o.r.ItemsKept.WithLabelValues(o.provider).Add(float64(kept))
}

func (o observer) FallbackUsed() {
	o.r.Fallbacks.WithLabelValues(o.provider).Inc()
}

func (o observer) TargetFailed(string) {
	o.r.TargetFailures.WithLabelValues(o.provider).Inc()
}
