package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReappliesOnWrite(t *testing.T) {
	b := newTestBus(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "topics.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"topics": [{"path": "/door", "valve": true}]}`), 0o644))

	w := NewWatcher(b, afero.NewOsFs(), path)
	_, err := w.Reload()
	require.NoError(t, err)
	assert.True(t, topicInfo(t, b, "/door").ValveOpen)

	applied := make(chan error, 8)
	w.OnApply = func(_ *Manifest, err error) { applied <- err }

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		w.Wait()
	})

	doc := `{"topics": [{"path": "/door", "valve": true, "open": false}, {"path": "/later"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	require.Eventually(t, func() bool {
		for {
			select {
			case err := <-applied:
				if err == nil {
					return true
				}
			default:
				return false
			}
		}
	}, 5*time.Second, 20*time.Millisecond)

	assert.False(t, topicInfo(t, b, "/door").ValveOpen)
	topicInfo(t, b, "/later")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	b := newTestBus(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "topics.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"topics": []}`), 0o644))

	w := NewWatcher(b, afero.NewOsFs(), path)
	applied := make(chan struct{}, 8)
	w.OnApply = func(*Manifest, error) { applied <- struct{}{} }

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	defer func() {
		cancel()
		w.Wait()
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))
	select {
	case <-applied:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(100 * time.Millisecond):
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
