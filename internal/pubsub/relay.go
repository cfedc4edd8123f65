package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/eventpress"
)

// Relay moves payloads between a broker and bus topics. Ingest feeds broker
// messages into the bus; Export forwards bus payloads to the broker.
// Routing one broker topic both ways loops forever and must be avoided.
type Relay struct {
	bus    *eventpress.Bus
	pub    Publisher
	sub    Subscriber
	group  eventpress.Group
	logger *slog.Logger
}

// NewRelay creates a relay. pub may be nil when only ingesting and sub may
// be nil when only exporting.
func NewRelay(b *eventpress.Bus, pub Publisher, sub Subscriber) *Relay {
	return &Relay{
		bus:    b,
		pub:    pub,
		sub:    sub,
		logger: slog.Default().With("component", "pubsub.relay"),
	}
}

// Ingest publishes every message of the broker topic source to the bus
// topic, after decode. It stops when ctx ends.
func (r *Relay) Ingest(ctx context.Context, source, topic string, decode Decoder) error {
	if r.sub == nil {
		return fmt.Errorf("relay has no subscriber")
	}
	if !eventpress.IsValidTopic(topic) {
		return &eventpress.TopicError{Type: eventpress.ErrorInvalidTopic, Topic: topic, Message: "invalid relay target"}
	}
	if decode == nil {
		decode = RawBytes
	}

	err := r.sub.Subscribe(ctx, source, func(ctx context.Context, msg Message) error {
		payload, err := decode(msg)
		if err != nil {
			return err
		}
		return r.bus.PublishTo(ctx, topic, payload)
	})
	if err != nil {
		return fmt.Errorf("ingest %s: %w", source, err)
	}

	r.logger.Info("Relay ingesting", "source", source, "topic", topic)
	return nil
}

// Export publishes every payload of the bus topic to the broker topic dest,
// after encode. The bus topic is created when absent.
func (r *Relay) Export(topic, dest string, encode Encoder) error {
	if r.pub == nil {
		return fmt.Errorf("relay has no publisher")
	}
	if encode == nil {
		encode = EncodeJSON
	}

	_, err := eventpress.Observe(r.bus, topic, func(payload any) {
		data, err := encode(payload)
		if err != nil {
			r.logger.Error("Failed to encode payload", "topic", topic, "error", err)
			return
		}
		msg := Message{
			Topic:    dest,
			Payload:  data,
			Metadata: map[string]string{MetaKeyBusTopic: topic},
		}
		if err := r.pub.Publish(context.Background(), msg); err != nil {
			r.logger.Error("Failed to export payload", "topic", topic, "dest", dest, "error", err)
		}
	},
		eventpress.WithGroup(&r.group),
		eventpress.OnError(func(err error) {
			r.logger.Warn("Export subscription error", "topic", topic, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("export %s: %w", topic, err)
	}

	r.logger.Info("Relay exporting", "topic", topic, "dest", dest)
	return nil
}

// Close stops every export. Ingestion stops with the context given to
// Ingest.
func (r *Relay) Close() error {
	r.group.Dispose()
	return nil
}
