package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/nfrund/eventpress"
)

// Watcher re-applies a manifest file whenever it is written or replaced.
type Watcher struct {
	bus     *eventpress.Bus
	fs      afero.Fs
	path    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	// OnApply, when set, is called after every reload attempt.
	OnApply func(m *Manifest, err error)

	wg   sync.WaitGroup
	once sync.Once
}

// NewWatcher creates a watcher for the manifest at path. fs must be backed
// by the operating system for change notifications to arrive.
func NewWatcher(b *eventpress.Bus, fs afero.Fs, path string) *Watcher {
	return &Watcher{
		bus:    b,
		fs:     fs,
		path:   filepath.Clean(path),
		logger: slog.Default().With("component", "manifest", "path", path),
	}
}

// Start watches the directory of the manifest until ctx ends or Close is
// called. The directory is watched rather than the file so that editors
// replacing the file are noticed.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch manifest directory: %w", err)
	}
	w.watcher = watcher

	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info("Watching manifest")
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			w.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Manifest watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.logger.Debug("Manifest changed", "event", event.Op.String())
	m, err := w.Reload()
	if w.OnApply != nil {
		w.OnApply(m, err)
	}
}

// Reload loads the manifest and applies it to the bus.
func (w *Watcher) Reload() (*Manifest, error) {
	m, err := Load(w.fs, w.path)
	if err != nil {
		w.logger.Error("Failed to load manifest", "error", err)
		return nil, err
	}
	if err := Apply(w.bus, m); err != nil {
		w.logger.Error("Failed to apply manifest", "error", err)
		return m, err
	}
	w.logger.Info("Manifest applied", "topics", len(m.Topics))
	return m, nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		if w.watcher != nil {
			err = w.watcher.Close()
		}
	})
	return err
}

// Wait blocks until the watch loop has exited.
func (w *Watcher) Wait() {
	w.wg.Wait()
}
