package scheduler

import (
	"context"
	"runtime"
	"sync"
)

// Pool runs tasks on a fixed number of workers fed by an unbounded queue.
// Execute never blocks on worker availability.
type Pool struct {
	runner
	workers int

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	head   int
	closed bool
	wg     sync.WaitGroup
}

// NewPool starts a pool with the given number of workers. A non-positive
// count uses runtime.GOMAXPROCS(0).
func NewPool(workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	o := buildOptions("computation", opts)

	p := &Pool{
		runner:  runner{name: o.name, onPanic: o.onPanic},
		workers: workers,
		queue:   make([]func(), 0, o.capacity),
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Execute queues task.
func (p *Pool) Execute(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrStopped
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return nil
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		task, ok := p.next()
		if !ok {
			return
		}
		p.run(task)
	}
}

// next blocks until a task is queued. It returns false once the pool is
// closed and the queue is empty.
func (p *Pool) next() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.pending() == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.pending() == 0 {
		return nil, false
	}

	task := p.queue[p.head]
	p.queue[p.head] = nil
	p.head++

	switch {
	case p.head == len(p.queue):
		p.queue = p.queue[:0]
		p.head = 0
	case p.head > 64 && p.head*2 > len(p.queue):
		n := copy(p.queue, p.queue[p.head:])
		clear(p.queue[n:])
		p.queue = p.queue[:n]
		p.head = 0
	}
	return task, true
}

func (p *Pool) pending() int {
	return len(p.queue) - p.head
}

// Shutdown rejects new tasks, lets the workers finish the queue and waits
// for them until ctx ends.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	return waitGroup(ctx, &p.wg)
}

// Stats returns the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	pending := p.pending()
	p.mu.Unlock()

	return Stats{
		Executed: p.executed.Load(),
		Panicked: p.panicked.Load(),
		Pending:  pending,
	}
}
