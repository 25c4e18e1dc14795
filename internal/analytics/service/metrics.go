package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	FetchLatency     *prometheus.HistogramVec
	AggregateLatency *prometheus.HistogramVec
	AdminDenied      prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FetchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vaultspark_analytics_fetch_duration_seconds",
			Help:    "Duration of store reads feeding the aggregation engine, by source",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"source"}), // source: profiles, transactions, roles
		AggregateLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vaultspark_analytics_aggregate_duration_seconds",
			Help:    "Duration of the in-memory aggregation step, by view",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"view"}),
		AdminDenied: f.NewCounter(prometheus.CounterOpts{
			Name: "vaultspark_analytics_admin_denied_total",
			Help: "Platform analytics requests refused for lack of the admin role",
		}),
	}
}

func (m *Metrics) observeFetch(source string, start time.Time) {
	if m != nil {
		m.FetchLatency.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) observeAggregate(view string, start time.Time) {
	if m != nil {
		m.AggregateLatency.WithLabelValues(view).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) denied() {
	if m != nil {
		m.AdminDenied.Inc()
	}
}
