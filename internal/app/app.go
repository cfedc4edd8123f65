package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/nfrund/eventpress/internal/config"
	"github.com/nfrund/eventpress/internal/server"
)

// ShutdownTimeout bounds how long Run waits for services to stop.
const ShutdownTimeout = 10 * time.Second

// Run starts the bus, the manifest watcher (when a manifest is configured)
// and the admin API, then blocks until ctx ends, a termination signal
// arrives or the admin API fails.
func Run(ctx context.Context, injector *do.RootScope) error {
	cfg := do.MustInvoke[config.Provider](injector)
	logger := do.MustInvoke[*slog.Logger](injector)

	if cfg.GetManifestPath() != "" {
		if _, err := do.Invoke[*ManifestWatcher](injector); err != nil {
			return errors.Join(err, shutdown(injector, logger))
		}
	}

	srv, err := do.Invoke[*server.Server](injector)
	if err != nil {
		return errors.Join(err, shutdown(injector, logger))
	}

	runErr := server.WaitForShutdown(ctx, srv.Start(cfg.GetAdminAddr()))
	logger.Info("Shutting down")
	return errors.Join(runErr, shutdown(injector, logger))
}

func shutdown(injector *do.RootScope, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	report := injector.ShutdownWithContext(ctx)
	if report != nil && !report.Succeed {
		logger.Error("Shutdown finished with errors", "error", report.Error())
		return report
	}
	return nil
}
