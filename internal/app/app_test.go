package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/eventpress"
	"github.com/nfrund/eventpress/internal/config"
	"github.com/nfrund/eventpress/internal/pubsub"
)

func testConfig(manifestPath string) *config.Config {
	return &config.Config{
		CPUWorkers:   2,
		DropCapacity: 1,
		UIQueue:      16,
		AdminAddr:    "127.0.0.1:0",
		ManifestPath: manifestPath,
		LogFormat:    "text",
		LogLevel:     "error",
		Tracing:      pubsub.DefaultTracingConfig(),
	}
}

func TestContainer_ProvidesInitializedBus(t *testing.T) {
	injector := NewContainer(testConfig(""), afero.NewMemMapFs())

	b := do.MustInvoke[*eventpress.Bus](injector)
	assert.True(t, b.Initialized())
	assert.Same(t, b, do.MustInvoke[*eventpress.Bus](injector))

	report := injector.Shutdown()
	require.NotNil(t, report)
	assert.True(t, report.Succeed)
	assert.False(t, b.Initialized())
}

func TestContainer_WatcherAppliesManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/topics.json", []byte(`{"topics": [{"path": "/orders", "policy": "drop"}]}`), 0o644))
	injector := NewContainer(testConfig("/topics.json"), fs)

	_, err := do.Invoke[*ManifestWatcher](injector)
	require.NoError(t, err)

	b := do.MustInvoke[*eventpress.Bus](injector)
	ch, err := b.Channel("/orders")
	require.NoError(t, err)
	assert.Equal(t, eventpress.Drop, ch.Flow().Policy())

	assert.True(t, injector.Shutdown().Succeed)
}

func TestContainer_InvalidManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/topics.json", []byte(`{"topics": [{"path": "orders"}]}`), 0o644))
	injector := NewContainer(testConfig("/topics.json"), fs)
	defer injector.Shutdown()

	_, err := do.Invoke[*ManifestWatcher](injector)
	assert.Error(t, err)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topics.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"topics": [{"path": "/screen", "valve": true}]}`), 0o644))
	injector := NewContainer(testConfig(path), afero.NewOsFs())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, injector) }()

	require.Eventually(t, func() bool {
		b, err := do.Invoke[*eventpress.Bus](injector)
		return err == nil && b.Initialized()
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout):
		t.Fatal("Run did not return after cancel")
	}
}
