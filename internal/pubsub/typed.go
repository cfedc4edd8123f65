package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event[T] names a broker topic that carries JSON-encoded T payloads.
type Event[T any] struct {
	topicName string
}

// NewEvent creates a typed event for the broker topic name.
func NewEvent[T any](name string) Event[T] {
	return Event[T]{topicName: name}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topicName
}

// Publish sends a typed event. The compiler ensures 'payload' matches 'T'.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T) error {
	// Marshal payload to JSON
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.Name(), err)
	}

	// Use underlying Publisher interface
	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		Payload: data,
	})
}

// Decode unmarshals the JSON payload of msg into a T.
func Decode[T any](msg Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("decode %s payload: %w", msg.Topic, err)
	}
	return v, nil
}

// Decoder turns a broker message into a bus payload.
type Decoder func(msg Message) (any, error)

// Encoder turns a bus payload into broker bytes.
type Encoder func(payload any) ([]byte, error)

// DecodeJSON returns a Decoder producing T values, so bus subscribers can
// observe the topic as T.
func DecodeJSON[T any]() Decoder {
	return func(msg Message) (any, error) {
		return Decode[T](msg)
	}
}

// EncodeJSON is the default Encoder.
func EncodeJSON(payload any) ([]byte, error) {
	return json.Marshal(payload)
}

// RawBytes passes the message payload through unchanged.
func RawBytes(msg Message) (any, error) {
	return msg.Payload, nil
}
