package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus instruments. A Metrics value is
// registered against its own registry and wired explicitly; there is no
// package-level default.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	admissionsTotal   prometheus.Counter
	denialsTotal      prometheus.Counter
	authFailuresTotal prometheus.Counter

	upstreamRetriesTotal *prometheus.CounterVec
	upstreamErrorsTotal  *prometheus.CounterVec
}

// New creates and registers the gateway metrics. When registry is nil a
// fresh one is created.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Name:      "requests_total",
				Help:      "Total number of chat completion requests processed",
			},
			[]string{"model", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Duration of chat completion requests in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"model"},
		),

		admissionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Name:      "admissions_total",
				Help:      "Total number of requests admitted by the rate limiter",
			},
		),

		denialsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Name:      "denials_total",
				Help:      "Total number of requests denied by the rate limiter",
			},
		),

		authFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Name:      "auth_failures_total",
				Help:      "Total number of rejected authentication attempts",
			},
		),

		upstreamRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Name:      "upstream_retries_total",
				Help:      "Total number of upstream attempt retries",
			},
			[]string{"provider"},
		),

		upstreamErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Name:      "upstream_errors_total",
				Help:      "Total number of upstream failures by error type",
			},
			[]string{"provider", "type"},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.admissionsTotal,
		m.denialsTotal,
		m.authFailuresTotal,
		m.upstreamRetriesTotal,
		m.upstreamErrorsTotal,
	)

	return m
}

// Handler returns the HTTP handler serving this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records one completed chat completion request
func (m *Metrics) RecordRequest(model, status string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(model, status).Inc()
	m.requestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordAdmission records a request admitted by the rate limiter
func (m *Metrics) RecordAdmission() {
	m.admissionsTotal.Inc()
}

// RecordDenial records a request denied by the rate limiter
func (m *Metrics) RecordDenial() {
	m.denialsTotal.Inc()
}

// RecordAuthFailure records a rejected authentication attempt
func (m *Metrics) RecordAuthFailure() {
	m.authFailuresTotal.Inc()
}

// RecordUpstreamRetry records one retried upstream attempt
func (m *Metrics) RecordUpstreamRetry(provider string) {
	m.upstreamRetriesTotal.WithLabelValues(provider).Inc()
}

// RecordUpstreamError records an upstream failure by error type
func (m *Metrics) RecordUpstreamError(provider, errType string) {
	m.upstreamErrorsTotal.WithLabelValues(provider, errType).Inc()
}
