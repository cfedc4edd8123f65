package server

import (
	"context"
	"errors"
	"net/http"
)

// Start runs the HTTP server in the background. Failures other than a
// regular shutdown are sent on the returned channel.
func (s *Server) Start(addr string) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		s.logger.Info("Admin API listening", "addr", addr)
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Admin API stopped", "error", err)
			errc <- err
		}
	}()
	return errc
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.E.Shutdown(ctx)
}
