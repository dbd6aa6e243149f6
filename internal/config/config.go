// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Remote model settings.
	ModelAPIKey  string // Empty disables the model; turns reply with the missing-key message.
	ModelBaseURL string // OpenAI-compatible endpoint root.
	ModelName    string
	ModelTimeout time.Duration // Bound on each model round trip.

	// Dispatch settings.
	SimulatedLatency  time.Duration // Waited before every delegation.
	ParallelToolCalls bool          // Run a turn's tool calls concurrently.

	// Data settings.
	AuditDSN    string // SQLite DSN for the CONTROL_LOG mirror.
	DatasetPath string // Optional TOML/YAML fixture replacing the built-in dataset.

	// OTEL settings.
	OTELEndpoint string
	ServiceName  string
	OTELInsecure bool

	// Rate limiting for POST /v1/chat.
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	// Operational settings.
	LogLevel            string
	MaxRequestBodyBytes int64 // Maximum request body size in bytes.
}

// Load reads configuration from environment variables with sensible defaults.
// Every malformed variable is reported, not just the first.
func Load() (Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var cfg Config
	var err error

	cfg.Port, err = envInt("HOSPITALOPS_PORT", 8080)
	collect(err)
	cfg.ReadTimeout, err = envDuration("HOSPITALOPS_READ_TIMEOUT", 30*time.Second)
	collect(err)
	cfg.WriteTimeout, err = envDuration("HOSPITALOPS_WRITE_TIMEOUT", 60*time.Second)
	collect(err)

	cfg.ModelAPIKey = envStr("HOSPITALOPS_API_KEY", envStr("GEMINI_API_KEY", ""))
	cfg.ModelBaseURL = envStr("HOSPITALOPS_MODEL_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	cfg.ModelName = envStr("HOSPITALOPS_MODEL", "gemini-2.5-flash")
	cfg.ModelTimeout, err = envDuration("HOSPITALOPS_MODEL_TIMEOUT", 30*time.Second)
	collect(err)

	cfg.SimulatedLatency, err = envDuration("HOSPITALOPS_SIMULATED_LATENCY", 800*time.Millisecond)
	collect(err)
	cfg.ParallelToolCalls, err = envBool("HOSPITALOPS_PARALLEL_TOOL_CALLS", false)
	collect(err)

	cfg.AuditDSN = envStr("HOSPITALOPS_AUDIT_DB_DSN", "file:hospitalops?mode=memory&cache=shared")
	cfg.DatasetPath = envStr("HOSPITALOPS_DATASET_PATH", "")

	cfg.OTELEndpoint = envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg.ServiceName = envStr("OTEL_SERVICE_NAME", "hospitalops")
	cfg.OTELInsecure, err = envBool("OTEL_INSECURE", false)
	collect(err)

	cfg.RateLimitEnabled, err = envBool("HOSPITALOPS_RATE_LIMIT_ENABLED", true)
	collect(err)
	cfg.RateLimitRPS, err = envFloat("HOSPITALOPS_RATE_LIMIT_RPS", 1)
	collect(err)
	cfg.RateLimitBurst, err = envInt("HOSPITALOPS_RATE_LIMIT_BURST", 5)
	collect(err)

	cfg.LogLevel = envStr("HOSPITALOPS_LOG_LEVEL", "info")
	maxBody, err := envInt("HOSPITALOPS_MAX_REQUEST_BODY_BYTES", 1*1024*1024) // 1 MB default
	collect(err)
	cfg.MaxRequestBodyBytes = int64(maxBody)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that values are in range.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: HOSPITALOPS_PORT must be between 1 and 65535")
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("config: HOSPITALOPS_MODEL_TIMEOUT must be positive")
	}
	if c.SimulatedLatency < 0 {
		return fmt.Errorf("config: HOSPITALOPS_SIMULATED_LATENCY must not be negative")
	}
	if c.AuditDSN == "" {
		return fmt.Errorf("config: HOSPITALOPS_AUDIT_DB_DSN is required")
	}
	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0) {
		return fmt.Errorf("config: HOSPITALOPS_RATE_LIMIT_RPS and HOSPITALOPS_RATE_LIMIT_BURST must be positive")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: HOSPITALOPS_MAX_REQUEST_BODY_BYTES must be positive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: HOSPITALOPS_LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envParse reads key with parse, falling back to def when it is unset.
// kind names the expected type in the error.
func envParse[T any](key string, def T, kind string, parse func(string) (T, error)) (T, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := parse(raw)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s=%q is not a valid %s", key, raw, kind)
	}
	return v, nil
}

func envInt(key string, def int) (int, error) {
	return envParse(key, def, "integer", strconv.Atoi)
}

func envFloat(key string, def float64) (float64, error) {
	return envParse(key, def, "number", func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func envBool(key string, def bool) (bool, error) {
	return envParse(key, def, "boolean", strconv.ParseBool)
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	return envParse(key, def, "duration", time.ParseDuration)
}
