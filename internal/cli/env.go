package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable the CLI reads.
const EnvPrefix = "SWAGGER2TS"

// Env holds settings that only come from the environment.
type Env struct {
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"warn"`
	HTTPTimeout              time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	MaxRetries               int           `envconfig:"MAX_RETRIES" default:"3"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`
}

// LoadEnv reads SWAGGER2TS_* variables.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, newUsageError(fmt.Sprintf("environment: %v", err))
	}
	return &env, nil
}

// ParsedLogLevel maps LogLevel to a slog level; unknown values fall back to warn.
func (e *Env) ParsedLogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(e.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	case "warn", "warning":
		fallthrough
	default:
		return slog.LevelWarn
	}
}
