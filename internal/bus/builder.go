package bus

import (
	"reflect"

	"github.com/nfrund/eventpress/internal/flow"
	"github.com/nfrund/eventpress/internal/scheduler"
	"github.com/nfrund/eventpress/internal/topicmgr"
)

// Builder assembles the configuration of one topic and registers it.
//
// Two settings are one-way: a type-derived topic cannot be replaced by a
// later Topic call, and once OnUI pinned the scheduler to the UI kind later
// Scheduler calls are ignored.
type Builder struct {
	registry  *Registry
	executors *scheduler.Set
	err       error

	path         string
	topicPinned  bool
	kind         scheduler.Kind
	schedPinned  bool
	policy       flow.Policy
	valve        bool
	dropCapacity int
}

// NewBuilder creates a builder registering into r with executors from set.
// With a nil registry or set Build fails with ErrNotInitialized.
func NewBuilder(r *Registry, set *scheduler.Set) *Builder {
	return &Builder{
		registry:  r,
		executors: set,
		kind:      scheduler.Computation,
		policy:    flow.Buffer,
	}
}

// NewFailedBuilder creates a builder whose Build always returns err.
func NewFailedBuilder(err error) *Builder {
	b := NewBuilder(nil, nil)
	b.err = err
	return b
}

// Topic sets the topic path unless a type topic pinned it.
func (b *Builder) Topic(path string) *Builder {
	if !b.topicPinned {
		b.path = path
	}
	return b
}

// TypeTopic sets the topic derived from t and pins it.
func (b *Builder) TypeTopic(t reflect.Type) *Builder {
	if !b.topicPinned {
		b.path = topicmgr.ClassTopic(t)
		b.topicPinned = true
	}
	return b
}

// Scheduler selects the execution context unless OnUI pinned it.
func (b *Builder) Scheduler(kind scheduler.Kind) *Builder {
	if !b.schedPinned {
		b.kind = kind
	}
	return b
}

// OnUI pins the scheduler to the UI kind.
func (b *Builder) OnUI() *Builder {
	b.kind = scheduler.UI
	b.schedPinned = true
	return b
}

// Backpressure sets the overflow policy. The default is flow.Buffer.
func (b *Builder) Backpressure(p flow.Policy) *Builder {
	b.policy = p
	return b
}

// Valve enables the valve of the topic.
func (b *Builder) Valve() *Builder {
	b.valve = true
	return b
}

// DropCapacity sets how many pending payloads a Drop subscriber keeps.
func (b *Builder) DropCapacity(n int) *Builder {
	b.dropCapacity = n
	return b
}

// Path returns the configured topic path.
func (b *Builder) Path() string {
	return b.path
}

// Build validates the path and registers the topic. When the path is
// already registered the existing channel is returned unchanged. An
// invalid path has no side effects.
func (b *Builder) Build() (*Channel, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.registry == nil || b.executors == nil {
		return nil, topicmgr.NewError(topicmgr.ErrorNotInitialized, b.path, "event bus is not initialized, call Init first")
	}
	if err := topicmgr.ValidateForRegister(b.path); err != nil {
		return nil, err
	}

	var opts []flow.Option
	if b.dropCapacity > 0 {
		opts = append(opts, flow.WithDropCapacity(b.dropCapacity))
	}
	fc := flow.New(b.policy, b.valve, opts...)

	ch, _, err := b.registry.RegisterOrGet(topicmgr.NewTopicPath(b.path), fc, b.executors.Scheduler(b.kind))
	return ch, err
}
