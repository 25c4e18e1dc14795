package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Connects        *prometheus.CounterVec
	SharedCalls     prometheus.Counter
	ProviderLatency prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Connects: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultspark_wallet_connects_total",
			Help: "Wallet connect outcomes by result code (ok, unchanged or an error code)",
		}, []string{"outcome"}),
		SharedCalls: f.NewCounter(prometheus.CounterOpts{
			Name: "vaultspark_wallet_connect_shared_total",
			Help: "Connect calls that joined an in-flight provider request",
		}),
		ProviderLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vaultspark_wallet_provider_request_duration_seconds",
			Help:    "Duration of wallet provider account requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
		}),
	}
}

func (m *Metrics) outcome(o string) {
	if m == nil {
		return
	}
	m.Connects.WithLabelValues(o).Inc()
}

func (m *Metrics) shared() {
	if m == nil {
		return
	}
	m.SharedCalls.Inc()
}

func (m *Metrics) providerLatency(seconds float64) {
	if m == nil {
		return
	}
	m.ProviderLatency.Observe(seconds)
}
