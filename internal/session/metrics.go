package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks session transitions and hydration outcomes.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	DuplicateEvents   prometheus.Counter
	AuthFailures      *prometheus.CounterVec
	Hydrations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultspark_session_transitions_total",
			Help: "Session state transitions by target status",
		}, []string{"status"}),
		DuplicateEvents: f.NewCounter(prometheus.CounterOpts{
			Name: "vaultspark_session_duplicate_events_total",
			Help: "Transitions dropped because they repeated the current logical state",
		}),
		AuthFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultspark_session_auth_failures_total",
			Help: "Failed sign-in and sign-up attempts by error code",
		}, []string{"operation", "code"}),
		Hydrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultspark_session_hydrations_total",
			Help: "Profile hydration outcomes (applied, failed, stale)",
		}, []string{"outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vaultspark_session_operation_duration_seconds",
			Help:    "Duration of session operations including the provider round trip",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

func (m *Metrics) observe(op string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) transition(status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) duplicate() {
	if m == nil {
		return
	}
	m.DuplicateEvents.Inc()
}

func (m *Metrics) authFailure(op, code string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(op, code).Inc()
}

func (m *Metrics) hydration(outcome string) {
	if m == nil {
		return
	}
	m.Hydrations.WithLabelValues(outcome).Inc()
}
