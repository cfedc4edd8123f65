package flow

import "sync"

// Mailbox is the per-subscriber stage between a topic and its consumer:
// a gate-held FIFO in front of the overflow policy queue.
type Mailbox struct {
	mu       sync.Mutex
	policy   Policy
	capacity int
	gate     *Valve

	queue   fifo
	held    fifo
	dropped uint64
}

// newMailbox creates a mailbox without a valve.
func newMailbox(policy Policy, capacity int) *Mailbox {
	if capacity < 1 {
		capacity = DefaultDropCapacity
	}
	return &Mailbox{
		policy:   policy,
		capacity: capacity,
	}
}

// Offer enqueues v. It returns false when the policy discarded a payload,
// either v itself (Drop) or an older pending one (Latest).
func (m *Mailbox) Offer(v any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	// held payloads keep their arrival order until the backlog is gone
	if m.gateClosed() || m.held.len() > 0 {
		m.held.push(v)
		return true
	}

	switch m.policy {
	case Drop:
		if m.queue.len() >= m.capacity {
			m.dropped++
			return false
		}
		m.queue.push(v)
	case Latest:
		if m.queue.len() > 0 {
			m.queue.replace(v)
			m.dropped++
			return false
		}
		m.queue.push(v)
	default:
		m.queue.push(v)
	}
	return true
}

// Next pops the next payload ready for delivery.
func (m *Mailbox) Next() (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.queue.pop(); ok {
		return v, true
	}
	if m.gateClosed() {
		return nil, false
	}
	return m.held.pop()
}

// Ready reports whether Next would return a payload.
func (m *Mailbox) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queue.len() > 0 {
		return true
	}
	return !m.gateClosed() && m.held.len() > 0
}

// Len returns the number of pending payloads, held ones included.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.len() + m.held.len()
}

// Dropped returns how many payloads the policy discarded.
func (m *Mailbox) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Clear discards every pending payload.
func (m *Mailbox) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.reset()
	m.held.reset()
}

func (m *Mailbox) gateClosed() bool {
	return m.gate != nil && !m.gate.IsOpen()
}
