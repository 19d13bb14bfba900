// Package config loads the layered application configuration: built-in
// defaults, then an optional wisnus.yaml, then WISNUS_* environment
// variables. Later layers win.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all application configuration.
type Config struct {
	API  APIConfig  `koanf:"api"`
	Auth AuthConfig `koanf:"auth"`
	Chat ChatConfig `koanf:"chat"`
	Log  LogConfig  `koanf:"log"`
}

// APIConfig holds the survey platform connection settings.
type APIConfig struct {
	// BaseURL is the root of the survey platform API.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	Retry RetryConfig `koanf:"retry"`
}

// RetryConfig configures retry behavior for transient API failures.
type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	InitialWait time.Duration `koanf:"initial_wait"`
	MaxWait     time.Duration `koanf:"max_wait"`
	Multiplier  float64       `koanf:"multiplier"`
}

// AuthConfig holds the respondent's credentials.
type AuthConfig struct {
	// Token is the bearer token issued at enrollment.
	Token string `koanf:"token"`

	// RespondentName labels the session locally. Optional.
	RespondentName string `koanf:"respondent_name"`
}

// ChatConfig tunes the conversational behavior.
type ChatConfig struct {
	// EngagementTimeout is how long continuous QA use runs before the
	// respondent is nudged back toward the survey.
	EngagementTimeout time.Duration `koanf:"engagement_timeout"`

	// ConfirmCountdown is how long the mode-switch confirmation popup
	// waits before dismissing itself.
	ConfirmCountdown time.Duration `koanf:"confirm_countdown"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	// File receives structured logs. Empty disables file logging.
	File string `koanf:"file"`

	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
}

// ConfigFile is the optional YAML file probed in the working directory.
const ConfigFile = "wisnus.yaml"

const envPrefix = "WISNUS_"

// Load builds the Config from defaults, the optional YAML file, and
// WISNUS_* environment variables, in that order.
func Load() (*Config, error) {
	return loadFrom(ConfigFile)
}

// LoadFile is Load with an explicit YAML path instead of the default
// probe location. The file must exist.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return loadFrom(path)
}

func loadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults.
	k.Set("api.timeout", "30s")
	k.Set("api.retry.max_attempts", 3)
	k.Set("api.retry.initial_wait", "500ms")
	k.Set("api.retry.max_wait", "5s")
	k.Set("api.retry.multiplier", 2.0)
	k.Set("chat.engagement_timeout", "180s")
	k.Set("chat.confirm_countdown", "10s")
	k.Set("log.level", "info")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// A missing file is fine; env and defaults still apply.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	// WISNUS_API__BASE_URL → api.base_url
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings a session cannot start without.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required (set WISNUS_API__BASE_URL or %s)", ConfigFile)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.Chat.EngagementTimeout <= 0 {
		return fmt.Errorf("chat.engagement_timeout must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Log.Level)
	}
	return nil
}
