package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"EVENTPRESS_CPU_WORKERS",
	"EVENTPRESS_DROP_CAPACITY",
	"EVENTPRESS_UI_QUEUE",
	"EVENTPRESS_ADMIN_ADDR",
	"EVENTPRESS_MANIFEST",
	"LOG_FORMAT",
	"LOG_LEVEL",
	"PUBSUB_TRACING_ENABLED",
}

// clearEnv blanks every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.GetCPUWorkers())
	assert.Equal(t, DefaultDropCapacity, cfg.GetDropCapacity())
	assert.Equal(t, DefaultUIQueue, cfg.GetUIQueue())
	assert.Equal(t, DefaultAdminAddr, cfg.GetAdminAddr())
	assert.Empty(t, cfg.GetManifestPath())
	assert.Equal(t, "text", cfg.GetLogFormat())
	assert.Equal(t, "info", cfg.GetLogLevel())
	assert.False(t, cfg.GetTracing().Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EVENTPRESS_CPU_WORKERS", "8")
	t.Setenv("EVENTPRESS_DROP_CAPACITY", "16")
	t.Setenv("EVENTPRESS_ADMIN_ADDR", ":9090")
	t.Setenv("EVENTPRESS_MANIFEST", "topics.json")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.CPUWorkers)
	assert.Equal(t, 16, cfg.DropCapacity)
	assert.Equal(t, ":9090", cfg.AdminAddr)
	assert.Equal(t, "topics.json", cfg.ManifestPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "not a number", key: "EVENTPRESS_CPU_WORKERS", val: "many"},
		{name: "zero drop capacity", key: "EVENTPRESS_DROP_CAPACITY", val: "0"},
		{name: "bad address", key: "EVENTPRESS_ADMIN_ADDR", val: "localhost"},
		{name: "unknown log format", key: "LOG_FORMAT", val: "xml"},
		{name: "unknown log level", key: "LOG_LEVEL", val: "trace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNew_ReadsEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("EVENTPRESS_UI_QUEUE")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EVENTPRESS_UI_QUEUE=32\n"), 0o600))

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.UIQueue)
	os.Unsetenv("EVENTPRESS_UI_QUEUE")
}
