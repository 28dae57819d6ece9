// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Playback   PlaybackConfig   `yaml:"playback"`
	SleepTimer SleepTimerConfig `yaml:"sleep_timer"`
	Retry      RetryConfig      `yaml:"retry"`
	Log        LogConfig        `yaml:"log"`
}

// StorageConfig represents queue persistence configuration.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" default:"queuebox.db" validate:"required"`
	ExportDir    string `yaml:"export_dir" default:"playlists"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	RepeatMode      string `yaml:"repeat_mode" default:"none" validate:"oneof=none one all"`
	Shuffle         bool   `yaml:"shuffle"`
	EventBufferSize int    `yaml:"event_buffer_size" default:"16" validate:"gte=1,lte=1024"`
}

// SleepTimerConfig represents sleep timer configuration.
type SleepTimerConfig struct {
	DefaultMinutes float64 `yaml:"default_minutes" default:"30" validate:"gt=0,lte=720"`
}

// RetryConfig represents retry behavior for storage operations.
type RetryConfig struct {
	MaxRetries  int `yaml:"max_retries" default:"3" validate:"gte=0,lte=10"`
	BaseDelayMs int `yaml:"base_delay_ms" default:"50" validate:"gte=1,lte=10000"`
	MaxDelayMs  int `yaml:"max_delay_ms" default:"1000" validate:"gte=1,lte=60000"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Pretty bool   `yaml:"pretty"`
}

// Load loads configuration from a YAML file. A missing file is not an error;
// the returned config then carries defaults and environment overrides only.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("QUEUEBOX_DB"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("QUEUEBOX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("QUEUEBOX_SLEEP_MINUTES"); v != "" {
		if m, err := strconv.ParseFloat(v, 64); err == nil {
			c.SleepTimer.DefaultMinutes = m
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	if c.Retry.BaseDelayMs > c.Retry.MaxDelayMs {
		return errors.Newf("base_delay_ms (%d) must not exceed max_delay_ms (%d)",
			c.Retry.BaseDelayMs, c.Retry.MaxDelayMs)
	}
	return nil
}

// BaseDelay returns the retry base delay as a duration.
func (c *RetryConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

// MaxDelay returns the retry delay ceiling as a duration.
func (c *RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}
