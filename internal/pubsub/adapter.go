package pubsub

import (
	"context"
	"log/slog"

	"github.com/nfrund/eventpress"
)

// BusAdapter exposes an eventpress.Bus through the Publisher and Subscriber
// interfaces. Message.Topic must be a valid bus topic path. Publishing is
// recursive, as with Bus.PublishTo.
type BusAdapter struct {
	bus    *eventpress.Bus
	group  eventpress.Group
	logger *slog.Logger
}

// NewBusAdapter wraps b.
func NewBusAdapter(b *eventpress.Bus) *BusAdapter {
	return &BusAdapter{
		bus:    b,
		logger: slog.Default().With("component", "pubsub.adapter"),
	}
}

// Publish implements the Publisher interface.
func (a *BusAdapter) Publish(ctx context.Context, msg Message) error {
	return a.bus.PublishTo(ctx, msg.Topic, msg)
}

// Subscribe implements the Subscriber interface. The subscription is
// cancelled when ctx ends or the adapter is closed.
func (a *BusAdapter) Subscribe(ctx context.Context, topic string, handler Handler) error {
	sub, err := eventpress.Observe(a.bus, topic, func(msg Message) {
		if err := handler(ctx, msg); err != nil {
			a.logger.Error("Failed to handle message", "topic", topic, "error", err)
		}
	},
		eventpress.WithGroup(&a.group),
		eventpress.OnError(func(err error) {
			a.logger.Warn("Subscription error", "topic", topic, "error", err)
		}),
	)
	if err != nil {
		return err
	}
	context.AfterFunc(ctx, sub.Cancel)
	return nil
}

// Close cancels every subscription made through the adapter.
func (a *BusAdapter) Close() error {
	a.group.Dispose()
	return nil
}
