// Package topicmgr defines topic paths for the event bus: the reserved
// namespace, validation rules for every bus operation, the type-derived
// class topic convention and the typed errors the bus reports.
//
// A topic path is a slash separated hierarchy:
//
//	/app/chat/message
//	/sys/class/github.com.acme.orders.Created
//
// Paths must start with "/", must not end with "/", must not contain an
// empty segment and may only use letters, digits, '.', '_', '-' and '/'.
// The roots "/", "/sys", "/sys/class" and "/sys/ui" are reserved and can
// never be used directly. "/sys/common" is the default topic: it can be
// published to and observed, but neither it nor anything below it can be
// removed.
//
// Validation is exposed per operation:
//
//	if err := topicmgr.ValidateForPublish(path); err != nil {
//		// err is a *TopicError with Type ErrorInvalidTopic
//	}
//
// Hierarchy is string-prefix based: "/a/b" is treated as an ancestor of
// "/a/b/c" and also of "/a/bx". Recursive publish and remove on the bus
// use the same rule.
package topicmgr
