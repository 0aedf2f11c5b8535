// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// ErrBotTokenRequired is returned when BOT_TOKEN is not set.
var ErrBotTokenRequired = errors.New("config: BOT_TOKEN is required")

// Config holds all configuration for the application.
type Config struct {
	// Telegram settings
	BotToken string `env:"BOT_TOKEN, required" json:"-"` // Masked in JSON

	// Session settings
	RedisURL string        `env:"REDIS_URL, default=redis://localhost:6379/0" json:"-"` // May carry credentials
	LockTTL  time.Duration `env:"LOCK_TTL, default=600s" json:"lock_ttl"`

	// Processing settings
	FFmpegPath    string        `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath   string        `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`
	FFmpegTimeout time.Duration `env:"FFMPEG_TIMEOUT, default=120s" json:"ffmpeg_timeout"`

	// Dialog settings
	KeepActionAfterResult bool `env:"KEEP_ACTION_AFTER_RESULT, default=true" json:"keep_action_after_result"`

	// File size limits in bytes
	DownloadLimit int64 `env:"DOWNLOAD_LIMIT, default=20971520" json:"download_limit"`
	UploadLimit   int64 `env:"UPLOAD_LIMIT, default=52428800" json:"upload_limit"`
	ArtworkLimit  int64 `env:"ARTWORK_LIMIT, default=1048576" json:"artwork_limit"`

	// Ops server settings
	OpsPort int `env:"OPS_PORT, default=8080" json:"ops_port"`

	// Optional archive settings; a local directory or an S3 bucket
	ArchiveDir         string `env:"ARCHIVE_DIR" json:"archive_dir,omitempty"`
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 archive configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// ArchiveEnabled returns true if any archive backend is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Enabled() || c.ArchiveDir != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "BOT_TOKEN") {
			return nil, ErrBotTokenRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return ErrBotTokenRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{LockTTL: %s, FFmpegPath: %s, FFprobePath: %s, FFmpegTimeout: %s, KeepActionAfterResult: %t, OpsPort: %d, ArchiveDir: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.LockTTL,
		c.FFmpegPath,
		c.FFprobePath,
		c.FFmpegTimeout,
		c.KeepActionAfterResult,
		c.OpsPort,
		c.ArchiveDir,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
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
