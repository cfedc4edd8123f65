package bus

import (
	"bytes"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/nfrund/eventpress/internal/flow"
	"github.com/nfrund/eventpress/internal/scheduler"
)

const (
	// drainBatch is how many payloads one drain task delivers before it
	// hands the worker back to the executor.
	drainBatch = 64

	// slowConsumerEvery throttles the dropped payload warning.
	slowConsumerEvery = 100
)

// Subscription is the handle of one subscriber on a channel.
type Subscription struct {
	id      string
	channel *Channel
	obs     Observer
	mailbox *flow.Mailbox
	sched   scheduler.DeliveryScheduler
	logger  *slog.Logger

	// running is true while a drain task is queued or executing
	running atomic.Bool
	closing atomic.Bool
	// drainer is the goroutine id of the current drain task
	drainer atomic.Uint64

	mu sync.Mutex
	// idle is signalled on mu when a callback returns
	idle      *sync.Cond
	calling   bool
	cancelled bool
	finished  bool
	delivered uint64
}

func newSubscription(c *Channel, obs Observer) *Subscription {
	id := uuid.NewString()
	s := &Subscription{
		id:      id,
		channel: c,
		obs:     obs,
		mailbox: c.flow.NewMailbox(),
		sched:   c.sched,
		logger:  c.logger.With("subscription", id),
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Topic returns the path of the channel the subscription belongs to.
func (s *Subscription) Topic() string {
	return s.channel.Path()
}

// Cancel detaches the subscription. When a callback of this subscription
// is running on another goroutine, Cancel waits for it to return; once
// Cancel returns no callback is running or will start. Called from inside
// its own callback, Cancel returns at once and only that callback finishes.
// Two subscriptions whose callbacks cancel each other at the same time
// deadlock. Cancel is idempotent.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	first := !s.cancelled
	s.cancelled = true
	if s.calling && s.drainer.Load() != goroutineID() {
		for s.calling {
			s.idle.Wait()
		}
	}
	s.mu.Unlock()
	if !first {
		return
	}

	s.mailbox.Clear()
	s.channel.detach(s)
}

// Cancelled reports whether Cancel has been called.
func (s *Subscription) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Delivered returns the number of payloads handed to OnNext.
func (s *Subscription) Delivered() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered
}

// Dropped returns the number of payloads the overflow policy discarded.
func (s *Subscription) Dropped() uint64 {
	return s.mailbox.Dropped()
}

// Pending returns the number of payloads waiting for delivery.
func (s *Subscription) Pending() int {
	return s.mailbox.Len()
}

// enqueue adds v to the mailbox and reports whether a drain is needed.
func (s *Subscription) enqueue(v any) bool {
	if !s.mailbox.Offer(v) {
		if dropped := s.mailbox.Dropped(); dropped%slowConsumerEvery == 1 {
			s.logger.Warn("Slow consumer detected",
				"dropped", dropped,
				"policy", s.channel.flow.Policy().String())
		}
	}
	return s.mailbox.Ready()
}

// close completes the subscription once the deliverable backlog is drained.
func (s *Subscription) close() {
	s.closing.Store(true)
	s.schedule()
}

func (s *Subscription) schedule() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	if err := s.sched.Execute(s.drain); err != nil {
		// executor is gone, deliver on the caller instead of losing signals
		s.logger.Debug("Scheduler rejected drain task", "error", err)
		s.drain()
	}
}

func (s *Subscription) drain() {
	s.drainer.Store(goroutineID())
	for {
		for n := 0; ; n++ {
			if n == drainBatch && s.mailbox.Ready() {
				if err := s.sched.Execute(s.drain); err == nil {
					return
				}
			}
			v, ok := s.mailbox.Next()
			if !ok {
				break
			}
			s.invoke(v)
		}

		if s.closing.Load() {
			s.finish()
		}

		s.running.Store(false)
		if !s.needsDrain() || !s.running.CompareAndSwap(false, true) {
			return
		}
	}
}

func (s *Subscription) needsDrain() bool {
	if s.closing.Load() {
		s.mu.Lock()
		finished := s.finished
		s.mu.Unlock()
		if !finished {
			return true
		}
	}
	return s.mailbox.Ready()
}

func (s *Subscription) invoke(v any) {
	s.mu.Lock()
	if s.cancelled || s.finished {
		s.mu.Unlock()
		return
	}
	s.delivered++
	s.calling = true
	s.mu.Unlock()

	s.guard(func() { s.obs.next(v) })
	s.returned()
}

// returned marks the end of a callback and wakes a waiting Cancel.
func (s *Subscription) returned() {
	s.mu.Lock()
	s.calling = false
	s.idle.Broadcast()
	s.mu.Unlock()
}

// finish sends OnComplete exactly once, unless the subscriber cancelled.
func (s *Subscription) finish() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	cancelled := s.cancelled
	s.calling = !cancelled
	s.mu.Unlock()

	// payloads held behind a closed valve are never released
	s.mailbox.Clear()
	if !cancelled {
		s.guard(s.obs.complete)
		s.returned()
	}
	s.channel.finished(s)
}

// guard runs a callback and turns a panic into an OnError signal.
func (s *Subscription) guard(fn func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		perr := &PanicError{Topic: s.channel.Path(), Value: r, Stack: debug.Stack()}
		s.logger.Error("Subscriber callback panicked", "panic", perr.Value, "stack", string(perr.Stack))

		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("OnError panicked", "panic", r)
				}
			}()
			s.obs.error(perr)
		}()
	}()
	fn()
}

// goroutineID parses the id of the calling goroutine from its stack header,
// "goroutine 18 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(field, ' '); i > 0 {
		field = field[:i]
	}
	id, _ := strconv.ParseUint(string(field), 10, 64)
	return id
}
