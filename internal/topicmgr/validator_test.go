package topicmgr_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/nfrund/eventpress/internal/topicmgr"
	"github.com/stretchr/testify/assert"
)

func TestValidator_BasePath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		valid bool
	}{
		{name: "simple topic", path: "/a", valid: true},
		{name: "nested topic", path: "/app/chat/message", valid: true},
		{name: "allowed punctuation", path: "/a.b/c_d/e-f", valid: true},
		{name: "default topic", path: "/sys/common", valid: true},
		{name: "below default topic", path: "/sys/common/x", valid: true},
		{name: "class topic child", path: "/sys/class/pkg.Type", valid: true},
		{name: "empty", path: "", valid: false},
		{name: "root", path: "/", valid: false},
		{name: "no leading slash", path: "a/b", valid: false},
		{name: "trailing slash", path: "/a/b/", valid: false},
		{name: "empty segment", path: "/a//b", valid: false},
		{name: "space", path: "/a b", valid: false},
		{name: "unicode space", path: "/a b", valid: false},
		{name: "illegal character", path: "/a*b", valid: false},
		{name: "reserved sys", path: "/sys", valid: false},
		{name: "reserved class", path: "/sys/class", valid: false},
		{name: "reserved ui", path: "/sys/ui", valid: false},
		{name: "max length", path: "/" + strings.Repeat("a", topicmgr.MaxTopicLength-1), valid: true},
		{name: "too long", path: "/" + strings.Repeat("a", topicmgr.MaxTopicLength), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, topicmgr.IsValidForRegister(tt.path))
			assert.Equal(t, tt.valid, topicmgr.IsValidForSubscribe(tt.path))
			assert.Equal(t, tt.valid, topicmgr.IsValidForPublish(tt.path))

			if !tt.valid {
				err := topicmgr.ValidateForPublish(tt.path)
				assert.True(t, errors.Is(err, topicmgr.ErrInvalidTopic))
			}
		})
	}
}

func TestValidator_Remove(t *testing.T) {
	assert.True(t, topicmgr.IsValidForRemove("/a/b"))
	assert.False(t, topicmgr.IsValidForRemove("/sys/common"))
	assert.False(t, topicmgr.IsValidForRemove("/sys/common/child"))
	assert.False(t, topicmgr.IsValidForRemove("/sys/commonx"))
	assert.False(t, topicmgr.IsValidForRemove("/sys"))
	assert.False(t, topicmgr.IsValidForRemove(""))

	err := topicmgr.ValidateForRemove("/sys/common")
	assert.True(t, topicmgr.IsType(err, topicmgr.ErrorInvalidTopic))
	assert.Contains(t, err.Error(), "default topic cannot be removed")
}

func TestValidator_ErrorReasons(t *testing.T) {
	tests := []struct {
		path   string
		reason string
	}{
		{path: "", reason: "empty"},
		{path: "a", reason: "start with '/'"},
		{path: "/a/", reason: "end with '/'"},
		{path: "/a//b", reason: "empty segment"},
		{path: "/a$", reason: "only letters"},
		{path: "/sys/ui", reason: "reserved"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := topicmgr.ValidateForRegister(tt.path)
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.reason)
			}
		})
	}
}
