// Package server exposes a small admin HTTP API over a running bus.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/eventpress"
)

// Server holds the dependencies for the admin HTTP server.
type Server struct {
	E      *echo.Echo
	bus    *eventpress.Bus
	logger *slog.Logger
}

// New creates a Server for b with its routes registered.
func New(b *eventpress.Bus) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("Admin request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	setupErrorHandling(e)

	s := &Server{
		E:      e,
		bus:    b,
		logger: slog.Default().With("component", "admin"),
	}
	s.RegisterRoutes()
	return s
}

// setupErrorHandling installs an error handler that answers with JSON and
// logs unhandled errors with a stack trace.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if writeErr := c.JSON(he.Code, map[string]any{"error": he.Message}); writeErr != nil {
				slog.Error("Failed to write error response", "error", writeErr)
			}
			return
		}

		slog.Error("Internal Server Error (Unhandled)",
			"error", err.Error(),
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"stack_trace", string(debug.Stack()),
		)
		if writeErr := c.JSON(http.StatusInternalServerError, map[string]any{"error": http.StatusText(http.StatusInternalServerError)}); writeErr != nil {
			slog.Error("Failed to write error response", "error", writeErr)
		}
	}
}
