package bus

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nfrund/eventpress/internal/flow"
	"github.com/nfrund/eventpress/internal/scheduler"
	"github.com/nfrund/eventpress/internal/topicmgr"
)

// State is the lifecycle state of a channel.
type State int32

const (
	StateActive State = iota
	StateCompleting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleting:
		return "completing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Channel is the live broadcast pipeline of one topic.
type Channel struct {
	path   topicmgr.TopicPath
	flow   *flow.FlowControl
	sched  scheduler.DeliveryScheduler
	logger *slog.Logger

	mu    sync.RWMutex
	state State
	subs  map[string]*Subscription
	// list is rebuilt on every change so readers can range it unlocked
	list      []*Subscription
	remaining int
	done      chan struct{}

	published atomic.Uint64
}

// NewChannel creates an active channel.
func NewChannel(path topicmgr.TopicPath, fc *flow.FlowControl, sched scheduler.DeliveryScheduler, logger *slog.Logger) *Channel {
	if fc == nil {
		fc = flow.New(flow.Buffer, false)
	}
	if logger == nil {
		logger = slog.Default().With("component", "bus")
	}
	return &Channel{
		path:   path,
		flow:   fc,
		sched:  sched,
		logger: logger.With("topic", path.String()),
		subs:   make(map[string]*Subscription),
		done:   make(chan struct{}),
	}
}

// Path returns the topic path.
func (c *Channel) Path() string {
	return c.path.String()
}

// TopicPath returns the typed topic path.
func (c *Channel) TopicPath() topicmgr.TopicPath {
	return c.path
}

// Flow returns the flow control of the channel.
func (c *Channel) Flow() *flow.FlowControl {
	return c.flow
}

// Scheduler returns the scheduler kind of the channel.
func (c *Channel) Scheduler() scheduler.Kind {
	return c.sched.Kind()
}

// State returns the lifecycle state.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Published returns how many payloads were delivered to the channel.
func (c *Channel) Published() uint64 {
	return c.published.Load()
}

// SubscriberCount returns the number of active subscriptions. The value is
// advisory: subscriptions may be cancelled while it is read.
func (c *Channel) SubscriberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// Deliver hands payload to every current subscription. It never waits for
// a subscriber to consume it.
func (c *Channel) Deliver(payload any) error {
	ready, err := c.enqueue(payload)
	if err != nil {
		return err
	}
	for _, sub := range ready {
		sub.schedule()
	}
	return nil
}

// enqueue offers payload to every subscription without running any of
// them. It returns the subscriptions that need a drain task.
func (c *Channel) enqueue(payload any) ([]*Subscription, error) {
	subs, active := c.snapshot()
	if !active {
		return nil, topicmgr.NewError(topicmgr.ErrorClosed, c.Path(), "cannot deliver to a closed channel")
	}
	c.published.Add(1)
	var ready []*Subscription
	for _, sub := range subs {
		if sub.enqueue(payload) {
			ready = append(ready, sub)
		}
	}
	return ready, nil
}

func (c *Channel) snapshot() ([]*Subscription, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.list, c.state == StateActive
}

// rebuild refreshes list from subs. Callers hold mu.
func (c *Channel) rebuild() {
	list := make([]*Subscription, 0, len(c.subs))
	for _, sub := range c.subs {
		list = append(list, sub)
	}
	c.list = list
}

// Subscribe registers obs. On a channel that is closing or closed the
// ObserveFailed error is both returned and passed to obs.OnError.
func (c *Channel) Subscribe(obs Observer) (*Subscription, error) {
	if obs.OnNext == nil {
		err := topicmgr.NewError(topicmgr.ErrorObserveFailed, c.Path(), "observer has no OnNext callback")
		obs.error(err)
		return nil, err
	}

	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		err := topicmgr.NewError(topicmgr.ErrorObserveFailed, c.Path(), "channel is "+c.State().String())
		obs.error(err)
		return nil, err
	}
	sub := newSubscription(c, obs)
	c.subs[sub.id] = sub
	c.rebuild()
	c.mu.Unlock()

	c.logger.Debug("Subscribed", "subscription", sub.id)
	return sub, nil
}

// SetGate opens or closes the valve. It returns false when the channel was
// built without a valve.
func (c *Channel) SetGate(open bool) bool {
	if !c.flow.SwitchValve(open) {
		return false
	}
	if open {
		// held payloads are released by the drain tasks
		subs, _ := c.snapshot()
		for _, sub := range subs {
			if sub.mailbox.Ready() {
				sub.schedule()
			}
		}
	}
	return true
}

// Close completes every subscription and finalizes the valve. Subscribers
// receive OnComplete exactly once after their deliverable backlog; Done is
// closed when all of them have. Close is idempotent.
func (c *Channel) Close() {
	if subs, ok := c.seal(); ok {
		c.complete(subs)
	}
}

// seal moves an active channel to StateCompleting and detaches its
// subscriptions. Only the caller that sealed the channel completes it.
func (c *Channel) seal() ([]*Subscription, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return nil, false
	}
	c.state = StateCompleting
	subs := c.list
	c.subs = make(map[string]*Subscription)
	c.list = nil
	c.remaining = len(subs)
	if c.remaining == 0 {
		c.markClosed()
	}
	return subs, true
}

func (c *Channel) complete(subs []*Subscription) {
	c.flow.Finalize()
	c.logger.Debug("Closing channel", "subscribers", len(subs))

	for _, sub := range subs {
		sub.close()
	}
}

// Done returns a channel that is closed once the channel reached
// StateClosed.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Remove cancels sub if it belongs to this channel. It reports whether the
// subscription was attached.
func (c *Channel) Remove(sub *Subscription) bool {
	if sub == nil || sub.channel != c {
		return false
	}
	c.mu.RLock()
	_, ok := c.subs[sub.id]
	c.mu.RUnlock()

	sub.Cancel()
	return ok
}

func (c *Channel) detach(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subs[sub.id]; !ok {
		return
	}
	delete(c.subs, sub.id)
	c.rebuild()
}

// finished is called by a subscription after its completion signal.
func (c *Channel) finished(*Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCompleting {
		return
	}
	c.remaining--
	if c.remaining == 0 {
		c.markClosed()
	}
}

func (c *Channel) markClosed() {
	c.state = StateClosed
	close(c.done)
}
