package scheduler

import "log/slog"

type options struct {
	name     string
	logger   *slog.Logger
	onPanic  PanicHandler
	capacity int
}

// Option configures an executor.
type Option func(*options)

// WithName sets the executor name used in logs.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger used to report recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPanicHandler replaces the default panic logging.
func WithPanicHandler(h PanicHandler) Option {
	return func(o *options) {
		o.onPanic = h
	}
}

// WithQueueCapacity preallocates the task queue.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

func buildOptions(name string, opts []Option) options {
	o := options{name: name}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default().With("component", "scheduler")
	}
	if o.onPanic == nil {
		o.onPanic = logPanic(o.logger)
	}
	return o
}
