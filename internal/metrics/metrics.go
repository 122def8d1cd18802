// Package metrics holds the Prometheus collectors of the dashboard service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeOpen    = "circuit_open"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests  *prometheus.CounterVec
	upstreamDuration  *prometheus.HistogramVec
	geocoderFallbacks prometheus.Counter
	dashboards        *prometheus.CounterVec
	refreshes         *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		upstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_dashboard_upstream_requests_total",
			Help: "Requests sent to upstream weather and geocoding APIs",
		}, []string{"provider", "operation", "outcome"}),
		upstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "weather_dashboard_upstream_request_duration_seconds",
			Help:    "Latency of upstream API calls including retries",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"provider", "operation"}),
		geocoderFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "weather_dashboard_geocoder_fallbacks_total",
			Help: "Searches answered by a fallback geocoder",
		}),
		dashboards: f.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_dashboard_views_total",
			Help: "Dashboard views rendered, by locale and unit system",
		}, []string{"locale", "system"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_dashboard_scheduled_refreshes_total",
			Help: "Scheduled forecast refreshes by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveUpstream records one upstream call.
func (m *Metrics) ObserveUpstream(provider, operation, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(provider, operation, outcome).Inc()
	m.upstreamDuration.WithLabelValues(provider, operation).Observe(took.Seconds())
}

// GeocoderFallback counts a search served by a secondary geocoder.
func (m *Metrics) GeocoderFallback() {
	if m == nil {
		return
	}
	m.geocoderFallbacks.Inc()
}

// DashboardRendered counts a rendered dashboard.
func (m *Metrics) DashboardRendered(locale string, imperial bool) {
	if m == nil {
		return
	}
	system := "metric"
	if imperial {
		system = "imperial"
	}
	m.dashboards.WithLabelValues(locale, system).Inc()
}

// Refresh counts one scheduled refresh.
func (m *Metrics) Refresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
