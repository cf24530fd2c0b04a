// Package config loads runtime configuration from an optional YAML
// file with environment-variable overrides layered on top. Every field
// has a usable default so the binary runs against a local dev server
// with no config at all.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration surface.
type Config struct {
	// StoryDir selects the room set and persona (theme selection).
	StoryDir string `yaml:"story_dir" env:"EMBERLIGHT_STORY_DIR"`
	// AssetDir is the root the playback backend resolves tracks under.
	AssetDir string `yaml:"asset_dir" env:"EMBERLIGHT_ASSET_DIR"`

	VerifyURL string `yaml:"verify_url" env:"EMBERLIGHT_VERIFY_URL"`
	ChatURL   string `yaml:"chat_url" env:"EMBERLIGHT_CHAT_URL"`
	HealthURL string `yaml:"health_url" env:"EMBERLIGHT_HEALTH_URL"`

	// RequestTimeout bounds each collaborator round trip.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"EMBERLIGHT_REQUEST_TIMEOUT"`

	// Volume is the starting volume fraction; Muted starts audio off.
	Volume float64 `yaml:"volume" env:"EMBERLIGHT_VOLUME"`
	Muted  bool    `yaml:"muted" env:"EMBERLIGHT_MUTED"`

	// LogFile receives slog output; empty discards (the TUI owns the
	// terminal, so logging never goes to stdout).
	LogFile string `yaml:"log_file" env:"EMBERLIGHT_LOG_FILE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StoryDir:       "stories/manor",
		AssetDir:       "assets",
		VerifyURL:      "http://localhost:8321",
		ChatURL:        "http://localhost:8321",
		HealthURL:      "http://localhost:8321",
		RequestTimeout: 30 * time.Second,
		Volume:         0.7,
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is "" or the file does not exist), then
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Optional file; fall through to env.
		case err != nil:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}

	// Volume is a preference, clamp rather than reject.
	if cfg.Volume < 0 {
		cfg.Volume = 0
	}
	if cfg.Volume > 1 {
		cfg.Volume = 1
	}

	return cfg, nil
}
