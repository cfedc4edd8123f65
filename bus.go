package eventpress

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/eventpress/internal/bus"
	"github.com/nfrund/eventpress/internal/flow"
	"github.com/nfrund/eventpress/internal/scheduler"
	"github.com/nfrund/eventpress/internal/topicmgr"
)

type lifecycle int

const (
	stateNew lifecycle = iota
	stateRunning
	stateShutdown
)

// Bus is an event bus instance. All methods are safe for concurrent use.
type Bus struct {
	opts   options
	logger *slog.Logger
	tracer trace.Tracer

	mu        sync.RWMutex
	state     lifecycle
	registry  *bus.Registry
	executors *scheduler.Set
}

// New creates a bus. Call Init before using it.
func New(opts ...Option) *Bus {
	o := buildOptions(opts)
	return &Bus{
		opts:   o,
		logger: o.logger.With("component", "eventpress"),
		tracer: o.tracer,
	}
}

// Init starts the executors and registers the default topic. Calling Init
// again is a no-op; Init after Shutdown fails with ErrClosed.
func (b *Bus) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateRunning:
		return nil
	case stateShutdown:
		return topicmgr.NewError(topicmgr.ErrorClosed, "", "event bus was shut down")
	}

	cfg := scheduler.SetConfig{
		Workers: b.opts.workers,
		UIQueue: b.opts.uiQueue,
		Logger:  b.opts.logger,
	}
	if b.opts.ui != nil {
		cfg.UI = b.opts.ui
	}
	b.executors = scheduler.NewSet(cfg)
	b.registry = bus.NewRegistry(b.opts.logger)
	if _, _, err := b.registry.RegisterOrGet(topicmgr.DefaultTopic(), flow.New(flow.Buffer, false), b.executors.Scheduler(scheduler.Computation)); err != nil {
		return err
	}
	b.state = stateRunning

	b.logger.Info("Event bus initialized")
	return nil
}

// Shutdown removes every topic, waits until their subscribers completed and
// stops the executors. It is safe to call more than once.
func (b *Bus) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b.mu.Lock()
	if b.state != stateRunning {
		b.state = stateShutdown
		b.mu.Unlock()
		return nil
	}
	b.state = stateShutdown
	registry, executors := b.registry, b.executors
	b.mu.Unlock()

	var errs []error
	for _, ch := range registry.CloseAll() {
		select {
		case <-ch.Done():
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
		if len(errs) > 0 {
			break
		}
	}
	if err := executors.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	b.logger.Info("Event bus shut down")
	return errors.Join(errs...)
}

// runtime returns the registry and executors or ErrNotInitialized.
func (b *Bus) runtime(topic string) (*bus.Registry, *scheduler.Set, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	switch b.state {
	case stateNew:
		return nil, nil, topicmgr.NewError(topicmgr.ErrorNotInitialized, topic, "event bus is not initialized, call Init first")
	case stateShutdown:
		return nil, nil, topicmgr.NewError(topicmgr.ErrorClosed, topic, "event bus was shut down")
	}
	return b.registry, b.executors, nil
}

// Builder starts the configuration of a topic. Before Init, Build fails
// with ErrNotInitialized and after Shutdown with ErrClosed.
func (b *Bus) Builder() *Builder {
	registry, executors, err := b.runtime("")
	builder := bus.NewBuilder(registry, executors)
	if err != nil {
		builder = bus.NewFailedBuilder(err)
	}
	if b.opts.dropCapacity > 0 {
		builder.DropCapacity(b.opts.dropCapacity)
	}
	return builder
}

// Publish sends payload to the default topic only.
func (b *Bus) Publish(ctx context.Context, payload any) error {
	return b.publish(ctx, topicmgr.TopicCommon, payload, false)
}

// PublishTo sends payload to topic and every topic below it. Publishing to
// a topic nobody registered is not an error.
func (b *Bus) PublishTo(ctx context.Context, topic string, payload any) error {
	return b.publish(ctx, topic, payload, true)
}

// PublishExact sends payload to topic only.
func (b *Bus) PublishExact(ctx context.Context, topic string, payload any) error {
	return b.publish(ctx, topic, payload, false)
}

func (b *Bus) publish(ctx context.Context, topic string, payload any, recursive bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := b.tracer.Start(ctx, "eventpress.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "eventpress"),
			attribute.String("messaging.destination", topic),
			attribute.Bool("eventpress.recursive", recursive),
		),
	)
	defer span.End()

	registry, _, err := b.runtime(topic)
	if err == nil {
		err = topicmgr.ValidateForPublish(topic)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	n := registry.Publish(topic, payload, recursive)
	span.SetAttributes(attribute.Int("eventpress.channels", n))
	b.logger.Debug("Published", "topic", topic, "recursive", recursive, "channels", n)
	return nil
}

// Remove deletes topic and every topic below it. Their subscribers receive
// OnComplete. The default topic and its descendants cannot be removed.
func (b *Bus) Remove(topic string) error {
	registry, _, err := b.runtime(topic)
	if err != nil {
		return err
	}
	if err := topicmgr.ValidateForRemove(topic); err != nil {
		return err
	}
	removed := registry.RemoveRecursive(topic)
	b.logger.Debug("Removed topics", "topic", topic, "removed", len(removed))
	return nil
}

// SwitchValve opens or closes the valve of topic. It fails with
// ErrTopicNotFound when the topic is absent and with ErrValveDisabled when
// the topic was built without a valve.
func (b *Bus) SwitchValve(topic string, open bool) error {
	ch, err := b.channel(topic)
	if err != nil {
		return err
	}
	if !ch.SetGate(open) {
		return topicmgr.NewError(topicmgr.ErrorValveDisabled, topic, "valve is not enabled for topic")
	}
	return nil
}

// Channel returns the live channel of topic.
func (b *Bus) Channel(topic string) (*Channel, error) {
	ch, err := b.channel(topic)
	if err != nil && topicmgr.IsType(err, topicmgr.ErrorTopicNotFound) {
		return nil, &topicmgr.TopicError{
			Type:    topicmgr.ErrorObserveFailed,
			Topic:   topic,
			Message: "cannot observe topic",
			Cause:   err,
		}
	}
	return ch, err
}

// RemoveSubscription cancels sub and detaches it from topic.
func (b *Bus) RemoveSubscription(topic string, sub *Subscription) error {
	ch, err := b.channel(topic)
	if err != nil {
		return err
	}
	if !ch.Remove(sub) {
		return topicmgr.NewError(topicmgr.ErrorObserveFailed, topic, "subscription is not attached to topic")
	}
	return nil
}

func (b *Bus) channel(topic string) (*bus.Channel, error) {
	registry, _, err := b.runtime(topic)
	if err != nil {
		return nil, err
	}
	ch, ok := registry.Get(topic)
	if !ok {
		return nil, topicmgr.NewError(topicmgr.ErrorTopicNotFound, topic, "topic not found")
	}
	return ch, nil
}

// Topics describes every registered topic, sorted by path.
func (b *Bus) Topics() []TopicInfo {
	registry, _, err := b.runtime("")
	if err != nil {
		return nil
	}
	return registry.List()
}

// Stats summarizes the registered topics.
func (b *Bus) Stats() RegistryStats {
	registry, _, err := b.runtime("")
	if err != nil {
		return RegistryStats{}
	}
	return registry.Stats()
}

// Initialized reports whether Init ran and Shutdown did not.
func (b *Bus) Initialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state == stateRunning
}
