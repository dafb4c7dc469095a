package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks audit delivery health.
type Metrics struct {
	EventsEmitted   *prometheus.CounterVec
	EventsDropped   prometheus.Counter
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
}

// NewMetrics registers audit metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_audit_events_emitted_total",
			Help: "Audit events accepted into the queue by category",
		}, []string{"category"}),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "kycflow_audit_events_dropped_total",
			Help: "Audit events dropped because the queue was full or closed",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "kycflow_audit_persist_failures_total",
			Help: "Audit events the sink failed to persist",
		}),
		PersistDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycflow_audit_persist_duration_seconds",
			Help:    "Latency of audit batch writes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}
