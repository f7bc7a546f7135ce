package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AbuseGuardFailuresRecorded prometheus.Counter
	AbuseGuardTempBansTotal    prometheus.Counter
	AbuseGuardBlockExpiries    prometheus.Counter
	AbuseGuardRejectedTotal    *prometheus.CounterVec
	AbuseGuardUntrackedTotal   prometheus.Counter
	AbuseGuardTrackedAddresses prometheus.Gauge
}

// New registers the abuse guard metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		AbuseGuardFailuresRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncauth_abuseguard_failures_recorded_total",
			Help: "Total number of failed authorizations recorded against source addresses",
		}),
		AbuseGuardTempBansTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncauth_abuseguard_temp_bans_total",
			Help: "Total number of temporary address blocks started",
		}),
		AbuseGuardBlockExpiries: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncauth_abuseguard_block_expiries_total",
			Help: "Total number of temporary address blocks that expired",
		}),
		AbuseGuardRejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syncauth_abuseguard_rejected_total",
			Help: "Total number of requests rejected before registry lookup",
		}, []string{"reason"}),
		AbuseGuardUntrackedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncauth_abuseguard_untracked_total",
			Help: "Total number of failures not tracked because the address cap was reached",
		}),
		AbuseGuardTrackedAddresses: factory.NewGauge(prometheus.GaugeOpts{
			Name: "syncauth_abuseguard_tracked_addresses",
			Help: "Current number of source addresses with a failure record",
		}),
	}
}

func (m *Metrics) IncrementFailuresRecorded() {
	m.AbuseGuardFailuresRecorded.Inc()
}

func (m *Metrics) IncrementTempBans() {
	m.AbuseGuardTempBansTotal.Inc()
}

func (m *Metrics) IncrementBlockExpiries() {
	m.AbuseGuardBlockExpiries.Inc()
}

func (m *Metrics) IncrementRejected(reason string) {
	m.AbuseGuardRejectedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementUntracked() {
	m.AbuseGuardUntrackedTotal.Inc()
}
