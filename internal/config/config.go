// Package config loads server configuration from the process environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Event stream backends.
const (
	StreamBackendMemory = "memory"
	StreamBackendRedis  = "redis"
)

// Config is the full server configuration, populated from environment
// variables via envdecode.
type Config struct {
	ListenAddr     string `env:"LISTEN_ADDR,default=:8000"`
	PublicEndpoint string `env:"PUBLIC_ENDPOINT,default=http://localhost:8000/mcp"`

	WidgetAssetsDir string `env:"WIDGET_ASSETS_DIR,default=./assets"`
	WidgetDevServer string `env:"WIDGET_DEV_SERVER"`

	SessionMaxAge        time.Duration `env:"SESSION_MAX_AGE,default=30m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL,default=60s"`

	StreamBackend string `env:"EVENT_STREAM_BACKEND,default=memory"`
	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379"`

	AuthHS256Secret string `env:"AUTH_HS256_SECRET"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load reads and validates configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	switch cfg.StreamBackend {
	case StreamBackendMemory, StreamBackendRedis:
	default:
		return nil, fmt.Errorf("unknown EVENT_STREAM_BACKEND %q (want %q or %q)", cfg.StreamBackend, StreamBackendMemory, StreamBackendRedis)
	}
	if cfg.SessionMaxAge <= 0 {
		return nil, fmt.Errorf("SESSION_MAX_AGE must be positive, got %s", cfg.SessionMaxAge)
	}
	if cfg.SessionSweepInterval <= 0 {
		return nil, fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got %s", cfg.SessionSweepInterval)
	}
	return &cfg, nil
}

// SlogLevel maps the configured log level name onto a slog.Level, defaulting
// to info for unrecognized values.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
