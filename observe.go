package eventpress

import (
	"context"
	"fmt"
	"reflect"

	"github.com/nfrund/eventpress/internal/bus"
	"github.com/nfrund/eventpress/internal/flow"
	"github.com/nfrund/eventpress/internal/scheduler"
	"github.com/nfrund/eventpress/internal/topicmgr"
)

// Observe subscribes onNext to topic, creating the topic with the default
// configuration when it does not exist. An empty topic observes the default
// topic.
//
// Failures are returned and also passed to the OnError option, so a caller
// that only installs OnError still hears about them. Payloads that are not
// a T are reported to OnError as ErrTypeCastingFailed and skipped; the
// subscription stays active.
func Observe[T any](b *Bus, topic string, onNext func(T), opts ...ObserveOption) (*Subscription, error) {
	var o observeOptions
	for _, opt := range opts {
		opt(&o)
	}
	fail := func(err error) (*Subscription, error) {
		if o.onError != nil {
			o.onError(err)
		}
		return nil, err
	}

	if topic == "" {
		topic = topicmgr.TopicCommon
	}
	registry, executors, err := b.runtime(topic)
	if err != nil {
		return fail(err)
	}
	if err := topicmgr.ValidateForSubscribe(topic); err != nil {
		return fail(err)
	}
	if onNext == nil {
		return fail(topicmgr.NewError(topicmgr.ErrorObserveFailed, topic, "onNext callback is nil"))
	}

	ch, ok := registry.Get(topic)
	if !ok {
		if ch, _, err = registry.RegisterOrGet(topicmgr.NewTopicPath(topic), b.defaultFlow(), executors.Scheduler(scheduler.Computation)); err != nil {
			return fail(err)
		}
	}

	obs := bus.Observer{
		OnNext: func(v any) {
			payload, ok := cast[T](v)
			if !ok {
				if o.onError != nil {
					o.onError(&topicmgr.TopicError{
						Type:    topicmgr.ErrorTypeCastingFailed,
						Topic:   topic,
						Message: "payload type does not match subscriber",
						Cause:   fmt.Errorf("got %T, want %s", v, reflect.TypeFor[T]()),
					})
				}
				return
			}
			onNext(payload)
		},
		OnError:    o.onError,
		OnComplete: o.onComplete,
	}

	// Subscribe already reported its error to OnError
	sub, err := ch.Subscribe(obs)
	if err != nil {
		return nil, err
	}
	if o.group != nil {
		o.group.Add(sub)
	}
	return sub, nil
}

// ObserveType subscribes to the type topic of T.
func ObserveType[T any](b *Bus, onNext func(T), opts ...ObserveOption) (*Subscription, error) {
	return Observe(b, TypeTopic[T](), onNext, opts...)
}

// PublishType publishes payload recursively to the type topic of T.
func PublishType[T any](ctx context.Context, b *Bus, payload T) error {
	return b.PublishTo(ctx, TypeTopic[T](), payload)
}

// TypeTopic returns the topic derived from T, under /sys/class.
func TypeTopic[T any]() string {
	return topicmgr.ClassTopic(reflect.TypeFor[T]())
}

func (b *Bus) defaultFlow() *flow.FlowControl {
	var opts []flow.Option
	if b.opts.dropCapacity > 0 {
		opts = append(opts, flow.WithDropCapacity(b.opts.dropCapacity))
	}
	return flow.New(flow.Buffer, false, opts...)
}

// cast converts a payload to T. A nil payload converts to the zero value
// when T can hold nil.
func cast[T any](v any) (T, bool) {
	if t, ok := v.(T); ok {
		return t, true
	}
	var zero T
	if v != nil {
		return zero, false
	}
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return zero, true
	default:
		return zero, false
	}
}
