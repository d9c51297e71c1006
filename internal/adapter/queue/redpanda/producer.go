// Package redpanda publishes interview lifecycle events to Redpanda/Kafka
// for downstream consumers (scoring, analytics, recruiter notifications).
// Publication is best-effort: the interview flow never blocks or fails on a
// broker outage.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
)

// kafkaClient is the minimal surface of kgo.Client the producer needs.
// It keeps publishing testable without a broker.
type kafkaClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Producer implements domain.CompletionEvents on top of a Kafka client.
type Producer struct {
	client kafkaClient
	topic  string
}

// NewProducer connects to the given brokers and ensures the completion
// topic exists. Topic creation failure is logged, not fatal; the broker may
// disallow auto-creation while the topic already exists.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("producer: no seed brokers: %w", domain.ErrInvalidArgument)
	}
	if topic == "" {
		return nil, fmt.Errorf("producer: empty topic: %w", domain.ErrInvalidArgument)
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(5),
		kgo.ProducerBatchMaxBytes(1_000_000),
	)
	if err != nil {
		return nil, fmt.Errorf("producer: kafka client: %w", err)
	}
	if err := createTopicIfNotExists(context.Background(), client, topic, 1, 1); err != nil {
		slog.Warn("completion topic create failed, assuming it exists",
			slog.String("topic", topic), slog.Any("error", err))
	}
	return &Producer{client: client, topic: topic}, nil
}

// PublishCompleted emits one event per finalized interview, keyed by
// session so replays land in order on the same partition.
func (p *Producer) PublishCompleted(ctx domain.Context, summary domain.CompletionSummary) error {
	b, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("publish completion: marshal: %w", err)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(summary.SessionKey),
		Value: b,
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("publish completion: produce: %w", err)
	}
	return nil
}

// Close releases the underlying Kafka client.
func (p *Producer) Close() {
	p.client.Close()
}
