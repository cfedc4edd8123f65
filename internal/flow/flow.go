package flow

// DefaultDropCapacity is the number of pending payloads a Drop mailbox keeps.
const DefaultDropCapacity = 1

// FlowControl holds the overflow policy and the optional valve of one topic.
type FlowControl struct {
	policy   Policy
	capacity int
	valve    *Valve
}

// Option configures a FlowControl.
type Option func(*FlowControl)

// WithDropCapacity sets how many pending payloads a Drop mailbox keeps.
// Values below 1 are ignored.
func WithDropCapacity(n int) Option {
	return func(f *FlowControl) {
		if n > 0 {
			f.capacity = n
		}
	}
}

// New creates flow control for one topic. The valve only exists when
// useValve is true.
func New(policy Policy, useValve bool, opts ...Option) *FlowControl {
	f := &FlowControl{
		policy:   policy,
		capacity: DefaultDropCapacity,
	}
	if useValve {
		f.valve = NewValve()
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Policy returns the overflow policy.
func (f *FlowControl) Policy() Policy {
	return f.policy
}

// Capacity returns the Drop capacity.
func (f *FlowControl) Capacity() int {
	return f.capacity
}

// ValveEnabled reports whether the topic was built with a valve.
func (f *FlowControl) ValveEnabled() bool {
	return f.valve != nil
}

// Valve returns the topic valve, or nil when disabled.
func (f *FlowControl) Valve() *Valve {
	return f.valve
}

// SwitchValve opens or closes the valve. It fails only when the valve
// feature is disabled.
func (f *FlowControl) SwitchValve(open bool) bool {
	if f.valve == nil {
		return false
	}
	f.valve.Set(open)
	return true
}

// IsOpen reports whether delivery is permitted. A topic without a valve is
// always open.
func (f *FlowControl) IsOpen() bool {
	if f.valve == nil {
		return true
	}
	return f.valve.IsOpen()
}

// Finalize terminates the valve signaling.
func (f *FlowControl) Finalize() {
	if f.valve != nil {
		f.valve.Finalize()
	}
}

// NewMailbox creates a subscriber mailbox governed by this flow control.
func (f *FlowControl) NewMailbox() *Mailbox {
	m := newMailbox(f.policy, f.capacity)
	m.gate = f.valve
	return m
}
