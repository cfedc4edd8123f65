package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WaitForShutdown blocks until an interrupt or terminate signal is
// received, ctx ends, or errc yields an error.
func WaitForShutdown(ctx context.Context, errc <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		return nil
	case <-ctx.Done():
		return nil
	case err, ok := <-errc:
		if !ok {
			return nil
		}
		return err
	}
}
