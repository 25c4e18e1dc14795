package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the Kafka audit sink.
type Metrics struct {
	Produced            prometheus.Counter
	ProduceFailures     prometheus.Counter
	FallbackWrites      prometheus.Counter
	CircuitBreakerState prometheus.Gauge
}

// NewMetrics registers the sink metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Produced: f.NewCounter(prometheus.CounterOpts{
			Name: "vaultspark_audit_kafka_produced_total",
			Help: "Total number of audit events written to Kafka",
		}),
		ProduceFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "vaultspark_audit_kafka_produce_failures_total",
			Help: "Total number of failed Kafka produce attempts for audit events",
		}),
		FallbackWrites: f.NewCounter(prometheus.CounterOpts{
			Name: "vaultspark_audit_kafka_fallback_writes_total",
			Help: "Total number of audit events written to the fallback store",
		}),
		CircuitBreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "vaultspark_audit_kafka_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
	}
}

func (m *Metrics) setCircuitOpen(open bool) {
	if open {
		m.CircuitBreakerState.Set(1)
	} else {
		m.CircuitBreakerState.Set(0)
	}
}
