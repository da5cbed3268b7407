// Package metrics registers the gateway's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the redirect gateway.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   prometheus.Counter
	errorsTotal     prometheus.Counter
	cacheHitsTotal  prometheus.Counter
	cacheMissTotal  prometheus.Counter
	cacheEntries    prometheus.Gauge
	resolveOutcomes *prometheus.CounterVec
	resolveSeconds  prometheus.Histogram
}

// New creates and registers the gateway metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamgate_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamgate_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	cacheHitsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamgate_cache_hits_total",
		Help: "Resolution cache hits (fresh positive or negative entries)",
	})
	cacheMissTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamgate_cache_misses_total",
		Help: "Resolution cache misses and expiries",
	})
	cacheEntries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "streamgate_cache_entries",
		Help: "Current number of resolution cache entries",
	})
	resolveOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streamgate_resolutions_total",
		Help: "Completed resolver invocations by outcome",
	}, []string{"outcome"})
	resolveSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamgate_resolve_duration_seconds",
		Help:    "Wall time of resolver invocations (cache misses only)",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		cacheHitsTotal,
		cacheMissTotal,
		cacheEntries,
		resolveOutcomes,
		resolveSeconds,
	)

	return &Metrics{
		registry:        registry,
		requestsTotal:   requestsTotal,
		errorsTotal:     errorsTotal,
		cacheHitsTotal:  cacheHitsTotal,
		cacheMissTotal:  cacheMissTotal,
		cacheEntries:    cacheEntries,
		resolveOutcomes: resolveOutcomes,
		resolveSeconds:  resolveSeconds,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() { m.requestsTotal.Inc() }

// IncErrors increments the error response counter.
func (m *Metrics) IncErrors() { m.errorsTotal.Inc() }

// IncCacheHit increments the cache hit counter.
func (m *Metrics) IncCacheHit() { m.cacheHitsTotal.Inc() }

// IncCacheMiss increments the cache miss counter.
func (m *Metrics) IncCacheMiss() { m.cacheMissTotal.Inc() }

// SetCacheEntries sets the cache entry gauge.
func (m *Metrics) SetCacheEntries(n int) { m.cacheEntries.Set(float64(n)) }

// ObserveResolve records one completed resolver invocation.
func (m *Metrics) ObserveResolve(outcome string, d time.Duration) {
	m.resolveOutcomes.WithLabelValues(outcome).Inc()
	m.resolveSeconds.Observe(d.Seconds())
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
