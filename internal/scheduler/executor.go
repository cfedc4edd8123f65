package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned when a task is submitted to a stopped executor.
var ErrStopped = errors.New("executor stopped")

// Executor runs tasks asynchronously.
type Executor interface {
	Execute(task func()) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(task func()) error

// Execute calls f(task).
func (f ExecutorFunc) Execute(task func()) error {
	return f(task)
}

// Shutdowner is implemented by executors that own goroutines.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// PanicHandler is called with the recovered value and stack of a panicking task.
type PanicHandler func(name string, recovered any, stack []byte)

func logPanic(logger *slog.Logger) PanicHandler {
	return func(name string, recovered any, stack []byte) {
		logger.Error("Task panicked",
			"executor", name,
			"panic", fmt.Sprint(recovered),
			"stack", string(stack))
	}
}

// runner executes one task with panic recovery.
type runner struct {
	name     string
	onPanic  PanicHandler
	executed atomic.Uint64
	panicked atomic.Uint64
}

func (r *runner) run(task func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.panicked.Add(1)
			if r.onPanic == nil {
				return
			}
			stack := debug.Stack()
			func() {
				// a panicking handler must not escape either
				defer func() { _ = recover() }()
				r.onPanic(r.name, rec, stack)
			}()
		}
	}()
	r.executed.Add(1)
	task()
}

// Stats reports executor counters.
type Stats struct {
	Executed uint64
	Panicked uint64
	Pending  int
}

// GoExecutor starts one goroutine per task. It backs the IO kind.
type GoExecutor struct {
	runner
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewGoExecutor creates a goroutine-per-task executor.
func NewGoExecutor(opts ...Option) *GoExecutor {
	o := buildOptions("io", opts)
	return &GoExecutor{runner: runner{name: o.name, onPanic: o.onPanic}}
}

// Execute starts task on a new goroutine.
func (e *GoExecutor) Execute(task func()) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return ErrStopped
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(task)
	}()
	return nil
}

// Shutdown rejects new tasks and waits for running ones.
func (e *GoExecutor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	return waitGroup(ctx, &e.wg)
}

// Stats returns the executor counters.
func (e *GoExecutor) Stats() Stats {
	return Stats{Executed: e.executed.Load(), Panicked: e.panicked.Load()}
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
