package scheduler

import (
	"context"
	"errors"
	"log/slog"
)

// Set holds one executor per Kind.
type Set struct {
	io     *GoExecutor
	cpu    *Pool
	ui     Executor
	ownsUI bool
}

// SetConfig configures a Set.
type SetConfig struct {
	// Workers sizes the computation pool. Zero uses GOMAXPROCS.
	Workers int
	// UIQueue preallocates the built-in UI loop queue.
	UIQueue int
	// UI replaces the built-in loop. The Set does not shut it down.
	UI     Executor
	Logger *slog.Logger
}

// NewSet starts the executors described by cfg.
func NewSet(cfg SetConfig) *Set {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "scheduler")
	}

	s := &Set{
		io:  NewGoExecutor(WithLogger(logger)),
		cpu: NewPool(cfg.Workers, WithLogger(logger)),
		ui:  cfg.UI,
	}
	if s.ui == nil {
		s.ui = NewLoop(WithLogger(logger), WithQueueCapacity(cfg.UIQueue))
		s.ownsUI = true
	}
	return s
}

// Executor returns the executor backing kind. Unknown kinds get the
// computation pool.
func (s *Set) Executor(kind Kind) Executor {
	switch kind {
	case IO:
		return s.io
	case UI:
		return s.ui
	default:
		return s.cpu
	}
}

// Scheduler returns the DeliveryScheduler for kind.
func (s *Set) Scheduler(kind Kind) DeliveryScheduler {
	return NewDeliveryScheduler(kind, s.Executor(kind))
}

// Stats returns the counters of the owned executors keyed by kind name.
func (s *Set) Stats() map[string]Stats {
	stats := map[string]Stats{
		IO.String():          s.io.Stats(),
		Computation.String(): s.cpu.Stats(),
	}
	if l, ok := s.ui.(*Loop); ok && s.ownsUI {
		stats[UI.String()] = l.Stats()
	}
	return stats
}

// Shutdown stops every executor the Set started.
func (s *Set) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.cpu.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.io.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if sd, ok := s.ui.(Shutdowner); ok && s.ownsUI {
		if err := sd.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeliveryScheduler dispatches the callbacks of one channel onto the
// executor of its kind. The kind is fixed for the lifetime of the channel.
type DeliveryScheduler struct {
	kind Kind
	exec Executor
}

// NewDeliveryScheduler binds kind to exec.
func NewDeliveryScheduler(kind Kind, exec Executor) DeliveryScheduler {
	return DeliveryScheduler{kind: kind, exec: exec}
}

// Kind returns the scheduler kind.
func (d DeliveryScheduler) Kind() Kind {
	return d.kind
}

// Execute dispatches task.
func (d DeliveryScheduler) Execute(task func()) error {
	if d.exec == nil {
		return ErrStopped
	}
	return d.exec.Execute(task)
}
