package pubsub

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Version is reported as the service version of exported spans.
var Version = "dev"

// Tracing environment variables.
const (
	EnvTracingEnabled     = "PUBSUB_TRACING_ENABLED"
	EnvTracingServiceName = "PUBSUB_TRACING_SERVICE_NAME"
	EnvTracingZipkinURL   = "PUBSUB_TRACING_ZIPKIN_URL"
)

// LoadTracingConfigFromEnv starts from DefaultTracingConfig and overrides
// every field whose variable is set. A malformed value is reported and the
// default is kept for that field. Enabling tracing without a collector URL
// is an error.
func LoadTracingConfigFromEnv() (TracingConfig, error) {
	cfg := DefaultTracingConfig()
	var errs []error

	if raw, ok := os.LookupEnv(EnvTracingEnabled); ok && raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTracingEnabled, err))
		} else {
			cfg.Enabled = enabled
		}
	}
	if name := os.Getenv(EnvTracingServiceName); name != "" {
		cfg.ServiceName = name
	}
	if url := os.Getenv(EnvTracingZipkinURL); url != "" {
		cfg.ZipkinURL = url
	}

	if cfg.Enabled && cfg.ZipkinURL == "" {
		errs = append(errs, fmt.Errorf("%s is required when tracing is enabled", EnvTracingZipkinURL))
	}
	return cfg, errors.Join(errs...)
}
