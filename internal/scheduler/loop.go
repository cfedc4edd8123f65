package scheduler

import "context"

// Loop is a serial executor: every task runs on the same goroutine in
// submission order. It stands in for a UI thread when the host provides
// none.
type Loop struct {
	pool *Pool
}

// NewLoop starts a loop.
func NewLoop(opts ...Option) *Loop {
	opts = append([]Option{WithName("ui")}, opts...)
	return &Loop{pool: NewPool(1, opts...)}
}

// Execute queues task behind every task submitted before it.
func (l *Loop) Execute(task func()) error {
	return l.pool.Execute(task)
}

// Shutdown stops the loop after the queued tasks ran.
func (l *Loop) Shutdown(ctx context.Context) error {
	return l.pool.Shutdown(ctx)
}

// Stats returns the loop counters.
func (l *Loop) Stats() Stats {
	return l.pool.Stats()
}
