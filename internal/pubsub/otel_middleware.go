package pubsub

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// payloadPreviewLen bounds the payload preview attached to spans.
const payloadPreviewLen = 100

// TracingMiddleware creates a watermill middleware that adds OpenTelemetry tracing
// to message processing, providing visibility into relayed message flows.
func TracingMiddleware(tracer trace.Tracer) func(message.HandlerFunc) message.HandlerFunc {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			ctx := msg.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			topic := msg.Metadata.Get(metaKeyTopic)

			// Create span for message processing
			spanCtx, span := tracer.Start(ctx, fmt.Sprintf("pubsub.process.%s", topic),
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(messageAttributes("process", topic, msg)...),
			)
			defer span.End()

			// Update message context with span context
			msg.SetContext(spanCtx)

			producedMessages, err := h(msg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}

			// Record produced messages count
			span.SetAttributes(attribute.Int("messaging.messages_produced", len(producedMessages)))

			return producedMessages, nil
		}
	}
}

// PublisherTracingMiddleware wraps a publisher with tracing capabilities
type PublisherTracingMiddleware struct {
	publisher message.Publisher
	tracer    trace.Tracer
}

// NewPublisherTracingMiddleware creates a new publisher with tracing middleware
func NewPublisherTracingMiddleware(publisher message.Publisher, tracer trace.Tracer) *PublisherTracingMiddleware {
	return &PublisherTracingMiddleware{
		publisher: publisher,
		tracer:    tracer,
	}
}

// Publish wraps the publish operation with tracing
func (p *PublisherTracingMiddleware) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, 0, len(messages))
	for _, msg := range messages {
		ctx := msg.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		spanCtx, span := p.tracer.Start(ctx, fmt.Sprintf("pubsub.publish.%s", topic),
			trace.WithSpanKind(trace.SpanKindProducer),
			trace.WithAttributes(messageAttributes("publish", topic, msg)...),
		)
		spans = append(spans, span)

		// Update message context with tracing context
		msg.SetContext(spanCtx)
	}

	err := p.publisher.Publish(topic, messages...)
	for _, span := range spans {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	return err
}

// Close closes the underlying publisher
func (p *PublisherTracingMiddleware) Close() error {
	return p.publisher.Close()
}

func messageAttributes(operation, topic string, msg *message.Message) []attribute.KeyValue {
	// Add payload preview for visibility
	preview := string(msg.Payload)
	if len(preview) > payloadPreviewLen {
		preview = preview[:payloadPreviewLen] + "..."
	}

	return []attribute.KeyValue{
		attribute.String("messaging.system", "watermill"),
		attribute.String("messaging.operation", operation),
		attribute.String("messaging.destination", topic),
		attribute.String("messaging.message_id", msg.UUID),
		attribute.String("eventpress.topic", msg.Metadata.Get(MetaKeyBusTopic)),
		attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
		attribute.String("messaging.message_payload_preview", preview),
	}
}
