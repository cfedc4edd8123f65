package eventpress

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type options struct {
	logger       *slog.Logger
	tracer       trace.Tracer
	workers      int
	uiQueue      int
	ui           Executor
	dropCapacity int
}

// Option configures a Bus.
type Option func(*options)

// WithLogger sets the logger of the bus and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer records a span for every publish.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithWorkers sizes the computation pool. Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.workers = n
		}
	}
}

// WithUIQueue preallocates the queue of the built-in UI loop.
func WithUIQueue(n int) Option {
	return func(o *options) {
		o.uiQueue = n
	}
}

// WithUIExecutor makes UI topics deliver on exec instead of the built-in
// loop. exec must run tasks one at a time in submission order. The bus
// never stops it.
func WithUIExecutor(exec Executor) Option {
	return func(o *options) {
		o.ui = exec
	}
}

// WithDropCapacity sets the default number of pending payloads a Drop
// subscriber keeps.
func WithDropCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.dropCapacity = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("eventpress"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type observeOptions struct {
	onError    func(error)
	onComplete func()
	group      *Group
}

// ObserveOption configures a subscription.
type ObserveOption func(*observeOptions)

// OnError receives failures of the subscription: invalid topics, closed
// channels, payloads of the wrong type and callback panics.
func OnError(fn func(error)) ObserveOption {
	return func(o *observeOptions) {
		o.onError = fn
	}
}

// OnComplete is called once when the topic is removed or the bus shuts
// down.
func OnComplete(fn func()) ObserveOption {
	return func(o *observeOptions) {
		o.onComplete = fn
	}
}

// WithGroup adds the subscription to g.
func WithGroup(g *Group) ObserveOption {
	return func(o *observeOptions) {
		o.group = g
	}
}
