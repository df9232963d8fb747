// Package metrics registers the Prometheus collectors for provider lookups
// and session activity, and exposes them over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapinsights_provider_requests_total",
		Help: "Total upstream provider requests",
	}, []string{"provider"})
	ProviderFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapinsights_provider_failures_total",
		Help: "Total upstream provider failures by error kind",
	}, []string{"provider", "kind"})
	ProviderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mapinsights_provider_duration_ms",
		Help:    "Upstream provider call duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"provider"})
	GeocodeCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mapinsights_geocode_cache_hits_total",
		Help: "Total geocode lookups served from the in-process cache",
	})
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mapinsights_breaker_state",
		Help: "Circuit breaker state per provider (0 closed, 1 open, 2 half-open)",
	}, []string{"provider"})
	SupersededTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapinsights_superseded_responses_total",
		Help: "Lookup responses discarded because a newer generation was issued",
	}, []string{"kind"})
	ModeTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapinsights_mode_transitions_total",
		Help: "Insight mode transitions by target mode",
	}, []string{"mode"})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mapinsights_active_sessions",
		Help: "Number of live exploration sessions",
	})
)

func init() {
	prometheus.MustRegister(
		ProviderRequestsTotal,
		ProviderFailuresTotal,
		ProviderDurationMs,
		GeocodeCacheHitsTotal,
		BreakerState,
		SupersededTotal,
		ModeTransitionsTotal,
		ActiveSessions,
	)
}

// Handler returns the /metrics handler for the default registry.
func Handler() http.Handler { return promhttp.Handler() }
