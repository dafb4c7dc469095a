package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registration and login.
type Metrics struct {
	UsersRegistered prometheus.Counter

	// Login outcomes: "success", "invalid_credentials"
	Logins *prometheus.CounterVec

	Logouts prometheus.Counter

	PasswordHashDuration prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "kycflow_users_registered_total",
			Help: "Total users registered",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		Logouts: f.NewCounter(prometheus.CounterOpts{
			Name: "kycflow_logouts_total",
			Help: "Tokens revoked through logout",
		}),
		PasswordHashDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycflow_password_hash_duration_seconds",
			Help:    "Duration of bcrypt hashing and comparison",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementRegistered() {
	if m != nil {
		m.UsersRegistered.Inc()
	}
}

func (m *Metrics) IncrementLogin(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementLogout() {
	if m != nil {
		m.Logouts.Inc()
	}
}

// ObservePasswordHash records one bcrypt operation.
func (m *Metrics) ObservePasswordHash(d time.Duration) {
	if m != nil {
		m.PasswordHashDuration.Observe(d.Seconds())
	}
}
