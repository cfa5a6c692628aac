// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Config holds all configuration for the tool. The API token may also be
// supplied as a CLI argument, which takes precedence over the environment.
type Config struct {
	// AudioShake settings
	Token   string `env:"TOKEN" json:"-"` // Masked in JSON
	BaseURL string `env:"BASE_URL, default=https://groovy.audioshake.ai" json:"base_url" validate:"url"`

	// Job polling settings
	PollInterval time.Duration `env:"POLL_INTERVAL, default=5s" json:"poll_interval" validate:"gt=0"`
	JobTimeout   time.Duration `env:"JOB_TIMEOUT, default=10m" json:"job_timeout" validate:"gt=0"`

	// Concurrency settings
	MaxConcurrentFiles int `env:"MAX_CONCURRENT_FILES, default=5" json:"max_concurrent_files" validate:"min=1"`
	MaxConcurrentJobs  int `env:"MAX_CONCURRENT_JOBS, default=5" json:"max_concurrent_jobs" validate:"min=1"`

	// WorkDir is the base directory for per-run workspaces.
	// Defaults to the system temp directory when empty.
	WorkDir string `env:"WORK_DIR" json:"work_dir,omitempty"`

	// Optional S3 settings for publishing results
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for automation.
// Otherwise, it outputs human-readable text logs. Logs go to stderr so
// stdout stays reserved for result paths.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
