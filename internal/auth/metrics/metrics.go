package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for credential authorization.
type Metrics struct {
	AuthenticationRequests  prometheus.Counter
	AuthenticationSuccesses prometheus.Counter
	AuthenticationFailures  prometheus.Counter
	ActiveSessions          prometheus.Gauge
	TemporarilyBlocked      prometheus.Counter
	RegistryErrors          *prometheus.CounterVec
	AuthorizeDurationMs     *prometheus.HistogramVec
}

// New registers the auth metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		AuthenticationRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncauth_authentication_requests_total",
			Help: "Total number of authorization requests",
		}),
		AuthenticationSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncauth_authentication_successes_total",
			Help: "Total number of successful authorizations",
		}),
		AuthenticationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncauth_authentication_failures_total",
			Help: "Total number of failed authorizations, banned accounts included",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "syncauth_active_sessions",
			Help: "Number of sessions granted since startup",
		}),
		TemporarilyBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncauth_authentication_temp_blocked_total",
			Help: "Total number of authorizations refused because the source address is blocked",
		}),
		RegistryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syncauth_registry_errors_total",
			Help: "Total number of registry lookups that failed with an infrastructure error",
		}, []string{"lookup"}),
		AuthorizeDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "syncauth_authorize_duration_ms",
			Help:    "Duration of authorization requests in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"method"}),
	}
}

func (m *Metrics) IncrementRequests() {
	m.AuthenticationRequests.Inc()
}

func (m *Metrics) IncrementSuccesses() {
	m.AuthenticationSuccesses.Inc()
}

func (m *Metrics) IncrementFailures() {
	m.AuthenticationFailures.Inc()
}

func (m *Metrics) IncrementActiveSessions() {
	m.ActiveSessions.Inc()
}

func (m *Metrics) IncrementTemporarilyBlocked() {
	m.TemporarilyBlocked.Inc()
}

func (m *Metrics) IncrementRegistryErrors(lookup string) {
	m.RegistryErrors.WithLabelValues(lookup).Inc()
}

func (m *Metrics) ObserveAuthorizeDuration(method string, durationMs float64) {
	m.AuthorizeDurationMs.WithLabelValues(method).Observe(durationMs)
}
