// Package config loads and validates process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`
	Port   string `env:"PORT" default:"8080"`

	MediaServerURL string `env:"MEDIA_SERVER_URL" default:"http://localhost:8096"`

	DaemonURL             string        `env:"DAEMON_URL" default:"http://localhost:9091"`
	DaemonUsername        string        `env:"DAEMON_USERNAME"`
	DaemonPassword        string        `env:"DAEMON_PASSWORD"`
	DaemonTimeout         time.Duration `env:"DAEMON_TIMEOUT" default:"30s"`
	DaemonStrictHandshake bool          `env:"DAEMON_STRICT_HANDSHAKE" default:"false"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"24h"`
	RedisURL      string        `env:"REDIS_URL"`

	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" default:"10485760"`
	ScratchDir     string `env:"SCRATCH_DIR"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DaemonConfigured reports whether the daemon credentials needed for uploads
// are present. Their absence is not fatal at startup, but /api/upload fails
// fast with a config error instead of attempting a doomed call.
func (c *Config) DaemonConfigured() bool {
	return c.DaemonUsername != "" && c.DaemonPassword != ""
}

func validate(cfg *Config) error {
	if cfg.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if len(cfg.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 characters")
	}

	for name, value := range map[string]string{
		"MEDIA_SERVER_URL": cfg.MediaServerURL,
		"DAEMON_URL":       cfg.DaemonURL,
	} {
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, value)
		}
	}

	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	if cfg.DaemonTimeout <= 0 {
		return fmt.Errorf("DAEMON_TIMEOUT must be positive")
	}

	if !cfg.DaemonConfigured() {
		slog.Warn("Daemon credentials not configured, uploads will be rejected",
			"daemon_url", cfg.DaemonURL)
	}

	return nil
}
