// Package pubsub connects the event bus to byte-oriented message brokers.
//
// Publisher and Subscriber describe a broker. WatermillBridge implements
// them with watermill's in-memory GoChannel, BusAdapter implements them on
// top of an eventpress.Bus, and Relay moves payloads between a broker and
// bus topics in both directions.
package pubsub

import (
	"context"
)

// Message is the structure passed between components on a broker.
// It is intentionally simple to act as a wrapper for raw data.
type Message struct {
	// Topic identifies the broker topic (e.g., "orders.created").
	Topic string
	// Payload contains the raw message data (e.g., JSON).
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context (e.g., the bus topic).
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to a broker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from a broker.
type Subscriber interface {
	// Subscribe starts listening to the given topic, processing messages with the handler.
	// It returns once the subscription is active; delivery stops when ctx is canceled.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
