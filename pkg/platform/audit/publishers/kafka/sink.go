// Package kafka ships audit events to a Kafka topic. When the brokers are
// unhealthy a circuit breaker diverts events to a local fallback store.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "vaultspark/pkg/platform/audit"
	"vaultspark/pkg/platform/circuit"
)

// Producer is the subset of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink implements audit.Store over Kafka.
type Sink struct {
	producer Producer
	topic    string
	fallback audit.Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *Metrics
}

type Option func(*Sink)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Sink) {
		s.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Sink) {
		s.breaker = b
	}
}

// New creates a sink writing to topic. fallback receives events while the
// circuit is open or when a produce fails.
func New(producer Producer, topic string, fallback audit.Store, opts ...Option) *Sink {
	s := &Sink{
		producer: producer,
		topic:    topic,
		fallback: fallback,
		breaker:  circuit.New("audit-kafka"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClient builds a franz-go client for the given seed brokers.
func NewClient(brokers []string, clientID string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopic creates topic if it does not exist.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resps.Sorted() {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Append produces event keyed by user id so one user's events stay ordered.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	if !s.breaker.Allow() {
		return s.appendFallback(ctx, event)
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.UserID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
			{Key: "action", Value: []byte(event.Action)},
		},
	}

	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		_, change := s.breaker.RecordFailure()
		if s.metrics != nil {
			s.metrics.ProduceFailures.Inc()
			if change.Opened {
				s.metrics.setCircuitOpen(true)
			}
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "audit kafka produce failed",
				"action", event.Action,
				"circuit_opened", change.Opened,
				"error", err,
			)
		}
		return s.appendFallback(ctx, event)
	}

	_, change := s.breaker.RecordSuccess()
	if s.metrics != nil {
		s.metrics.Produced.Inc()
		if change.Closed {
			s.metrics.setCircuitOpen(false)
		}
	}
	return nil
}

func (s *Sink) appendFallback(ctx context.Context, event audit.Event) error {
	if s.fallback == nil {
		return errors.New("audit kafka unavailable and no fallback store configured")
	}
	if s.metrics != nil {
		s.metrics.FallbackWrites.Inc()
	}
	return s.fallback.Append(ctx, event)
}
