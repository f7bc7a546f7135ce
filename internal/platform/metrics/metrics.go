package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors for the HTTP surface and the audit pipeline.
type Metrics struct {
	EndpointLatency    *prometheus.HistogramVec
	Responses          *prometheus.CounterVec
	AuditEventsDropped prometheus.Counter
}

// New registers the HTTP metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "syncauth_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		Responses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syncauth_http_responses_total",
			Help: "Total number of HTTP responses by endpoint and status code",
		}, []string{"endpoint", "status"}),
		AuditEventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncauth_audit_events_dropped_total",
			Help: "Audit events dropped because the async queue was full",
		}),
	}
}

func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

func (m *Metrics) IncrementResponses(endpoint string, status int) {
	m.Responses.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// Instrument records latency and status per chi route pattern, so path
// parameters never explode label cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = r.Method + " " + pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.ObserveEndpointLatency(endpoint, time.Since(start).Seconds())
		m.IncrementResponses(endpoint, status)
	})
}
