package eventpress

import (
	"github.com/nfrund/eventpress/internal/bus"
	"github.com/nfrund/eventpress/internal/flow"
	"github.com/nfrund/eventpress/internal/scheduler"
	"github.com/nfrund/eventpress/internal/topicmgr"
)

type (
	// Subscription is the handle returned by Observe.
	Subscription = bus.Subscription
	// Group cancels several subscriptions at once.
	Group = bus.Group
	// Channel is the live pipeline of one topic.
	Channel = bus.Channel
	// Builder configures and registers a topic.
	Builder = bus.Builder
	// TopicInfo describes a registered topic.
	TopicInfo = bus.TopicInfo
	// RegistryStats summarizes the registered topics.
	RegistryStats = bus.RegistryStats
	// PanicError is passed to OnError when a callback panics.
	PanicError = bus.PanicError

	// Policy is the backpressure policy of a topic.
	Policy = flow.Policy
	// SchedulerKind selects where callbacks run.
	SchedulerKind = scheduler.Kind

	// TopicError is the error type of every bus operation.
	TopicError = topicmgr.TopicError
	// ErrorType classifies a TopicError.
	ErrorType = topicmgr.ErrorType
)

// Backpressure policies.
const (
	Buffer = flow.Buffer
	Drop   = flow.Drop
	Latest = flow.Latest
)

// Scheduler kinds.
const (
	Computation = scheduler.Computation
	IO          = scheduler.IO
	UI          = scheduler.UI
)

// DefaultTopic is the topic used when none is given.
const DefaultTopic = topicmgr.TopicCommon

// Error kinds.
const (
	ErrorNotInitialized    = topicmgr.ErrorNotInitialized
	ErrorInvalidTopic      = topicmgr.ErrorInvalidTopic
	ErrorObserveFailed     = topicmgr.ErrorObserveFailed
	ErrorTypeCastingFailed = topicmgr.ErrorTypeCastingFailed
	ErrorTopicNotFound     = topicmgr.ErrorTopicNotFound
	ErrorValveDisabled     = topicmgr.ErrorValveDisabled
	ErrorClosed            = topicmgr.ErrorClosed
)

// Sentinel errors for errors.Is.
var (
	ErrNotInitialized    = topicmgr.ErrNotInitialized
	ErrInvalidTopic      = topicmgr.ErrInvalidTopic
	ErrObserveFailed     = topicmgr.ErrObserveFailed
	ErrTypeCastingFailed = topicmgr.ErrTypeCastingFailed
	ErrTopicNotFound     = topicmgr.ErrTopicNotFound
	ErrValveDisabled     = topicmgr.ErrValveDisabled
	ErrClosed            = topicmgr.ErrClosed
)

// Executor runs tasks on a host-provided execution context.
type Executor interface {
	Execute(task func()) error
}

// ParsePolicy converts "buffer", "drop" or "latest" into a Policy.
func ParsePolicy(name string) (Policy, error) {
	return flow.ParsePolicy(name)
}

// ParseScheduler converts "computation", "io" or "ui" into a SchedulerKind.
func ParseScheduler(name string) (SchedulerKind, error) {
	return scheduler.ParseKind(name)
}

// IsValidTopic reports whether path can be registered, observed and
// published to.
func IsValidTopic(path string) bool {
	return topicmgr.IsValidForRegister(path)
}
