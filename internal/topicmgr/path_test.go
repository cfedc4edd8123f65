package topicmgr

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleEvent struct{}

type genericEvent[T any] struct{ v T }

func TestNewTopicPath(t *testing.T) {
	assert.Equal(t, "/a/b", NewTopicPath("/a/b").String())
	assert.Equal(t, TopicCommon, NewTopicPath("a/b").String())
	assert.Equal(t, TopicCommon, NewTopicPath("/sys").String())
	assert.Equal(t, TopicCommon, TopicPath{}.String())
	assert.True(t, NewTopicPath("bad path").IsDefault())
	assert.False(t, NewTopicPath("/a").IsDefault())
}

func TestMatchPrefix(t *testing.T) {
	assert.True(t, MatchPrefix("/a/b", "/a/b"))
	assert.True(t, MatchPrefix("/a/b", "/a/b/c"))
	// prefix matching is on the raw string
	assert.True(t, MatchPrefix("/a/b", "/a/bx"))
	assert.False(t, MatchPrefix("/a/b", "/a"))
	assert.False(t, MatchPrefix("/a/b", "/x/a/b"))
}

func TestClassTopic(t *testing.T) {
	typ := reflect.TypeOf(sampleEvent{})
	first := ClassTopic(typ)
	second := ClassTopic(reflect.TypeOf(sampleEvent{}))

	assert.Equal(t, first, second)
	assert.Equal(t, "/sys/class/github.com.nfrund.eventpress.internal.topicmgr.sampleEvent", first)
	assert.True(t, IsValidForRegister(first))

	ptr := ClassTopic(reflect.TypeOf(&sampleEvent{}))
	assert.NotEqual(t, first, ptr)
	assert.True(t, IsValidForRegister(ptr))

	builtin := ClassTopic(reflect.TypeOf(0))
	assert.Equal(t, "/sys/class/int", builtin)

	generic := ClassTopic(reflect.TypeOf(genericEvent[int]{}))
	assert.True(t, IsValidForRegister(generic), generic)

	assert.Equal(t, TopicCommon, ClassTopic(nil))
}

func TestClassTopicName(t *testing.T) {
	assert.Equal(t, ClassTopic(reflect.TypeOf(sampleEvent{})),
		ClassTopicName("github.com/nfrund/eventpress/internal/topicmgr.sampleEvent"))
	assert.Equal(t, "/sys/class/map_string_int", ClassTopicName("map[string]int"))
	assert.Equal(t, TopicCommon, ClassTopicName(""))
}
