// Package config loads the tool configuration from a YAML file, with
// environment variables as read-only overrides at runtime.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Env var names used as overrides.
const (
	EnvStoryPath  = "STORYGRAPH_STORY_PATH"
	EnvStoryURL   = "STORYGRAPH_STORY_URL"
	EnvStartScene = "STORYGRAPH_START_SCENE"
	EnvStrict     = "STORYGRAPH_STRICT"
	EnvCachePath  = "STORYGRAPH_CACHE_PATH"
	EnvLogLevel   = "STORYGRAPH_LOG_LEVEL"
	EnvLogFormat  = "STORYGRAPH_LOG_FORMAT"
	EnvLogFile    = "STORYGRAPH_LOG_FILE"
)

// StoryConfig says where scenes come from and how strictly to parse them.
type StoryConfig struct {
	Path       string `yaml:"path"`        // scene directory
	URL        string `yaml:"url"`         // base URL for hosted stories
	StartScene string `yaml:"start_scene"` // defaults to startup
	Strict     bool   `yaml:"strict"`
	CachePath  string `yaml:"cache_path"` // SQLite scene cache for URL sources
	TimeoutMs  int    `yaml:"timeout_ms"` // HTTP fetch timeout
}

// LoggingConfig mirrors logger.Options.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Config is the tool configuration persisted to YAML.
type Config struct {
	ConfigVersion int           `yaml:"config_version"`
	Story         StoryConfig   `yaml:"story"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the configuration defaults.
func Defaults() Config {
	return Config{
		ConfigVersion: 1,
		Story: StoryConfig{
			StartScene: "startup",
			TimeoutMs:  15000,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// Save writes the config as YAML.
func Save(path string, cfg Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvStoryPath); v != "" {
		cfg.Story.Path = v
	}
	if v := os.Getenv(EnvStoryURL); v != "" {
		cfg.Story.URL = v
	}
	if v := os.Getenv(EnvStartScene); v != "" {
		cfg.Story.StartScene = v
	}
	if v := os.Getenv(EnvStrict); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Story.Strict = b
		}
	}
	if v := os.Getenv(EnvCachePath); v != "" {
		cfg.Story.CachePath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.Logging.File = v
	}
}
