package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search outcomes recorded in notesift_search_requests_total.
const (
	outcomeMatched = "matched"
	outcomeEmpty   = "empty"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

// Metrics holds the API collectors on a private registry so several routers
// can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry
	searches *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates and registers the API collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notesift_search_requests_total",
			Help: "Search requests served, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notesift_search_duration_seconds",
			Help:    "Time spent scanning the vault for one search.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.searches,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) observeSearch(outcome string, started time.Time) {
	m.searches.WithLabelValues(outcome).Inc()
	m.duration.Observe(time.Since(started).Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
