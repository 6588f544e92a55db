package messaging

import (
	"context"
	"log/slog"
	"sync"

	contractsv1 "chainraise/contracts/gen/events/v1"
)

// Kafka is the notification bus adapter used by the worker/outbox relay.
// Current implementation is in-process publish/subscribe while runtime
// wiring is finalized for external brokers.
type Kafka struct {
	mu          sync.RWMutex
	subscribers map[string][]chan contractsv1.Envelope
	logger      *slog.Logger
}

func NewKafka(_ []string, logger *slog.Logger) (*Kafka, error) {
	return &Kafka{
		subscribers: make(map[string][]chan contractsv1.Envelope),
		logger:      logger,
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	k.mu.RLock()
	subs := append([]chan contractsv1.Envelope(nil), k.subscribers[topic]...)
	k.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- event:
		default:
			if k.logger != nil {
				k.logger.Warn("dropping event for slow subscriber",
					"event", "kafka_publish_drop",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"event_id", event.EventID,
				)
			}
		}
	}

	if k.logger != nil {
		k.logger.Info("event published",
			"event", "kafka_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
	}
	return nil
}

func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	ch := make(chan contractsv1.Envelope, 128)

	k.mu.Lock()
	k.subscribers[topic] = append(k.subscribers[topic], ch)
	k.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				k.removeSubscriber(topic, ch)
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil && k.logger != nil {
					k.logger.Error("event handler failed",
						"event", "kafka_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (k *Kafka) removeSubscriber(topic string, target chan contractsv1.Envelope) {
	k.mu.Lock()
	defer k.mu.Unlock()

	subs := k.subscribers[topic]
	filtered := subs[:0]
	for _, sub := range subs {
		if sub != target {
			filtered = append(filtered, sub)
		}
	}
	k.subscribers[topic] = filtered
}
