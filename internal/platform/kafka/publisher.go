package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher is a thin franz-go wrapper for fire-and-forget event publishing.
// Audit events must never block or fail the request path, so Publish is
// asynchronous and delivery failures are logged, not returned.
type Publisher struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewPublisher connects to the given brokers. Returns nil if brokers is empty
// (audit publishing not configured).
func NewPublisher(brokers []string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{client: client, logger: logger}, nil
}

// Publish produces one record keyed for per-subject ordering.
func (p *Publisher) Publish(ctx context.Context, topic string, key, value []byte) {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit publish failed",
				"topic", r.Topic,
				"key", string(r.Key),
				"error", err.Error(),
			)
		}
	})
}

// PublishSync produces one record and waits for the broker ack. Used by tests
// and by callers that need delivery confirmation.
func (p *Publisher) PublishSync(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.client.Close()
}
