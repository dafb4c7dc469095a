package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the onboarding workflow.
type Metrics struct {
	// Upload outcomes: "accepted", "exhausted", "invalid_state", "rejected_input", "error"
	Uploads *prometheus.CounterVec

	// Photo-match outcomes: "passed", "failed", "exhausted", "invalid_state", "rejected_input", "error"
	PhotoMatches    *prometheus.CounterVec
	PhotoMatchScore prometheus.Histogram

	// Status transitions by target status
	Transitions *prometheus.CounterVec

	BlobReleaseFailures prometheus.Counter

	OperationDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_document_uploads_total",
			Help: "Document upload attempts by outcome",
		}, []string{"outcome"}),
		PhotoMatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_photo_matches_total",
			Help: "Photo-match attempts by outcome",
		}, []string{"outcome"}),
		PhotoMatchScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycflow_photo_match_score",
			Help:    "Distribution of photo-match scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_application_transitions_total",
			Help: "Application status transitions by target status",
		}, []string{"status"}),
		BlobReleaseFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "kycflow_blob_release_failures_total",
			Help: "Uploaded blobs that could not be deleted after a failed upload",
		}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kycflow_workflow_operation_duration_seconds",
			Help:    "Duration of workflow operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementUpload(outcome string) {
	if m != nil {
		m.Uploads.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementPhotoMatch(outcome string) {
	if m != nil {
		m.PhotoMatches.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObservePhotoMatchScore(score int) {
	if m != nil {
		m.PhotoMatchScore.Observe(float64(score))
	}
}

func (m *Metrics) IncrementTransition(status string) {
	if m != nil {
		m.Transitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementBlobReleaseFailure() {
	if m != nil {
		m.BlobReleaseFailures.Inc()
	}
}

func (m *Metrics) ObserveOperation(op string, d time.Duration) {
	if m != nil {
		m.OperationDuration.WithLabelValues(op).Observe(d.Seconds())
	}
}
