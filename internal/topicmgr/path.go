package topicmgr

import (
	"reflect"
	"strings"
)

// Reserved topics. None of the roots can be used as a user topic.
const (
	TopicRoot   = "/"
	TopicSys    = "/sys"
	TopicClass  = "/sys/class"
	TopicUI     = "/sys/ui"
	TopicCommon = "/sys/common"

	// MaxTopicLength is the longest accepted topic path in bytes.
	MaxTopicLength = 256
)

// TopicPath is a validated, immutable topic key.
type TopicPath struct {
	path string
}

// NewTopicPath validates raw for registration. An invalid path falls back
// to the default topic instead of failing.
func NewTopicPath(raw string) TopicPath {
	if !IsValidForRegister(raw) {
		return TopicPath{path: TopicCommon}
	}
	return TopicPath{path: raw}
}

// DefaultTopic returns the path of the default topic.
func DefaultTopic() TopicPath {
	return TopicPath{path: TopicCommon}
}

// String returns the canonical path
func (p TopicPath) String() string {
	if p.path == "" {
		return TopicCommon
	}
	return p.path
}

// IsDefault reports whether p is the default topic or one of its descendants.
func (p TopicPath) IsDefault() bool {
	return strings.HasPrefix(p.String(), TopicCommon)
}

// MatchPrefix is the hierarchy rule used by recursive publish and remove:
// candidate matches when it starts with prefix.
func MatchPrefix(prefix, candidate string) bool {
	return strings.HasPrefix(candidate, prefix)
}

// ClassTopic maps a type to its topic under /sys/class. The same type
// always yields the same path, so the result is safe to use as a key.
//
//	orders.Created -> /sys/class/github.com.acme.orders.Created
func ClassTopic(t reflect.Type) string {
	if t == nil {
		return TopicCommon
	}
	return TopicClass + "/" + sanitizeTypeName(qualifiedName(t))
}

// ClassTopicName maps a fully qualified type name such as
// "github.com/acme/orders.Created" to its class topic.
func ClassTopicName(name string) string {
	if name == "" {
		return TopicCommon
	}
	return TopicClass + "/" + sanitizeTypeName(name)
}

func qualifiedName(t reflect.Type) string {
	switch {
	case t.Kind() == reflect.Pointer && t.Name() == "":
		return qualifiedName(t.Elem()) + ".ptr"
	case t.Name() != "" && t.PkgPath() != "":
		return t.PkgPath() + "." + t.Name()
	default:
		return t.String()
	}
}

// sanitizeTypeName turns a type name into a single path segment.
func sanitizeTypeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '/':
			b.WriteByte('.')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
