package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nfrund/eventpress/internal/pubsub"
)

// Provider exposes configuration values to the components that need them.
type Provider interface {
	GetCPUWorkers() int
	GetDropCapacity() int
	GetUIQueue() int
	GetAdminAddr() string
	GetManifestPath() string
	GetLogFormat() string
	GetLogLevel() string
	GetTracing() pubsub.TracingConfig
}

// Config holds all configuration for the application.
type Config struct {
	CPUWorkers   int    `validate:"gte=0,lte=1024"`
	DropCapacity int    `validate:"gte=1"`
	UIQueue      int    `validate:"gte=0"`
	AdminAddr    string `validate:"required,hostname_port"`
	ManifestPath string
	LogFormat    string `validate:"oneof=text json"`
	LogLevel     string `validate:"oneof=debug info warn error"`
	Tracing      pubsub.TracingConfig
}

// Defaults used when a variable is unset.
const (
	DefaultDropCapacity = 1
	DefaultUIQueue      = 256
	DefaultAdminAddr    = "127.0.0.1:8081"
)

// New loads configuration from an optional .env file and environment
// variables, then validates it.
func New(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return Load()
}

// Load reads configuration from environment variables only.
func Load() (*Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return def
		}
		return n
	}

	tracing, err := pubsub.LoadTracingConfigFromEnv()
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		CPUWorkers:   intVar("EVENTPRESS_CPU_WORKERS", 0),
		DropCapacity: intVar("EVENTPRESS_DROP_CAPACITY", DefaultDropCapacity),
		UIQueue:      intVar("EVENTPRESS_UI_QUEUE", DefaultUIQueue),
		AdminAddr:    getenv("EVENTPRESS_ADMIN_ADDR", DefaultAdminAddr),
		ManifestPath: os.Getenv("EVENTPRESS_MANIFEST"),
		LogFormat:    getenv("LOG_FORMAT", "text"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		Tracing:      tracing,
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c *Config) GetCPUWorkers() int               { return c.CPUWorkers }
func (c *Config) GetDropCapacity() int             { return c.DropCapacity }
func (c *Config) GetUIQueue() int                  { return c.UIQueue }
func (c *Config) GetAdminAddr() string             { return c.AdminAddr }
func (c *Config) GetManifestPath() string          { return c.ManifestPath }
func (c *Config) GetLogFormat() string             { return c.LogFormat }
func (c *Config) GetLogLevel() string              { return c.LogLevel }
func (c *Config) GetTracing() pubsub.TracingConfig { return c.Tracing }
