package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"verigate/internal/platform/kafka"
)

// Publisher captures structured audit events on a kafka topic. It is
// fire-and-forget: audit must never block or fail the request path.
type Publisher struct {
	kafka  *kafka.Publisher
	topic  string
	logger *slog.Logger
}

// NewPublisher wires the audit sink. A nil kafka publisher disables auditing;
// Emit becomes a no-op so callers never branch on configuration.
func NewPublisher(k *kafka.Publisher, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{kafka: k, topic: topic, logger: logger}
}

// Emit publishes one event, stamping the timestamp when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil || p.kafka == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("audit event marshal failed", "type", string(event.Type), "error", err.Error())
		return
	}
	p.kafka.Publish(ctx, p.topic, []byte(event.ExternalUserID), value)
}
