package topics

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/eventpress"
)

func sampleTopics() []eventpress.TopicInfo {
	return []eventpress.TopicInfo{
		{Path: "/orders", Policy: "latest", Scheduler: "io", ValveEnabled: true, Subscribers: 2, Published: 7},
		{Path: "/sys/common", Policy: "buffer", Scheduler: "computation"},
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Latest", Title("latest"))
	assert.Equal(t, "Computation", Title("computation"))
	assert.Equal(t, "Ui", Title("ui"))
}

func TestDisplayTopicsTable(t *testing.T) {
	var buf bytes.Buffer
	DisplayTopicsTable(&buf, sampleTopics())

	out := buf.String()
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "/orders")
	assert.Contains(t, out, "Latest")
	assert.Contains(t, out, "closed")
	assert.Contains(t, out, "Computation")

	buf.Reset()
	DisplayTopicsTable(&buf, nil)
	assert.Contains(t, buf.String(), "No topics found")
}

func TestDisplayTopicsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayTopicsJSON(&buf, sampleTopics()))

	var decoded struct {
		Topics []eventpress.TopicInfo `json:"topics"`
		Count  int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Count)
	assert.Equal(t, "/orders", decoded.Topics[0].Path)
}

func TestDisplayValidation(t *testing.T) {
	var buf bytes.Buffer
	DisplayValidation(&buf, "/sys/common", []Verdict{
		{Operation: "register"},
		{Operation: "remove", Err: errors.New("default topic cannot be removed")},
	})

	out := buf.String()
	assert.Contains(t, out, `Topic "/sys/common"`)
	assert.Contains(t, out, "✅ register")
	assert.Contains(t, out, "❌ remove")
	assert.Contains(t, out, "default topic cannot be removed")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", truncateString("abc", 5))
	assert.Equal(t, "ab...", truncateString("abcdefgh", 5))
	assert.Equal(t, "...", truncateString("abcdefgh", 2))
}
