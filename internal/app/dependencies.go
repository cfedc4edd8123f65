// Package app wires the long-running eventpress service together.
package app

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/eventpress"
	"github.com/nfrund/eventpress/internal/config"
	"github.com/nfrund/eventpress/internal/logging"
	"github.com/nfrund/eventpress/internal/manifest"
	"github.com/nfrund/eventpress/internal/pubsub"
	"github.com/nfrund/eventpress/internal/server"
)

// Tracing owns the tracer used for publish spans and flushes it on shutdown.
type Tracing struct {
	Tracer  trace.Tracer
	cleanup func()
}

// Shutdown flushes and stops the tracer provider.
func (t *Tracing) Shutdown(ctx context.Context) error {
	t.cleanup()
	return nil
}

// ManifestWatcher keeps the configured manifest applied to the bus.
type ManifestWatcher struct {
	*manifest.Watcher
}

// Shutdown stops watching the manifest file.
func (w *ManifestWatcher) Shutdown() error {
	err := w.Close()
	w.Wait()
	return err
}

// NewContainer registers every service of the eventpress process. Services
// are created lazily on first invocation and shut down in reverse
// dependency order by the returned scope.
func NewContainer(cfg config.Provider, fs afero.Fs) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, fs)
	do.Provide(injector, provideLogger)
	do.Provide(injector, provideTracing)
	do.Provide(injector, provideBus)
	do.Provide(injector, provideWatcher)
	do.Provide(injector, provideServer)

	return injector
}

func provideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[config.Provider](i)
	return logging.New(cfg.GetLogFormat(), cfg.GetLogLevel()), nil
}

func provideTracing(i do.Injector) (*Tracing, error) {
	cfg := do.MustInvoke[config.Provider](i)
	tracer, cleanup, err := pubsub.SetupOTel(context.Background(), cfg.GetTracing())
	if err != nil {
		return nil, err
	}
	return &Tracing{Tracer: tracer, cleanup: cleanup}, nil
}

func provideBus(i do.Injector) (*eventpress.Bus, error) {
	cfg := do.MustInvoke[config.Provider](i)
	logger := do.MustInvoke[*slog.Logger](i)
	tracing := do.MustInvoke[*Tracing](i)

	b := eventpress.New(
		eventpress.WithLogger(logger),
		eventpress.WithTracer(tracing.Tracer),
		eventpress.WithWorkers(cfg.GetCPUWorkers()),
		eventpress.WithUIQueue(cfg.GetUIQueue()),
		eventpress.WithDropCapacity(cfg.GetDropCapacity()),
	)
	if err := b.Init(); err != nil {
		return nil, err
	}
	return b, nil
}

func provideWatcher(i do.Injector) (*ManifestWatcher, error) {
	cfg := do.MustInvoke[config.Provider](i)
	fs := do.MustInvoke[afero.Fs](i)
	b := do.MustInvoke[*eventpress.Bus](i)

	w := manifest.NewWatcher(b, fs, cfg.GetManifestPath())
	if _, err := w.Reload(); err != nil {
		return nil, err
	}
	// change notifications only arrive for files on disk
	if _, ok := fs.(*afero.OsFs); ok {
		if err := w.Start(context.Background()); err != nil {
			return nil, err
		}
	}
	return &ManifestWatcher{Watcher: w}, nil
}

func provideServer(i do.Injector) (*server.Server, error) {
	b := do.MustInvoke[*eventpress.Bus](i)
	return server.New(b), nil
}
