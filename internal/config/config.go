// Package config loads the sandboxer configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "sandboxer.yaml"

// Config is the complete configuration. Dependency versions are not
// configurable; they live in the framework catalog.
type Config struct {
	Sandbox SandboxConfig `yaml:"sandbox"`
	Cache   CacheConfig   `yaml:"cache"`
	Events  EventsConfig  `yaml:"events"`
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
	Batch   BatchConfig   `yaml:"batch"`
}

// SandboxConfig describes the remote sandbox service.
type SandboxConfig struct {
	Origin           string   `yaml:"origin"`
	DefinePath       string   `yaml:"define_path"`
	ViewerPath       string   `yaml:"viewer_path"`
	Timeout          Duration `yaml:"timeout"`
	MaxResponseBytes int64    `yaml:"max_response_bytes"`
	ExcerptBytes     int      `yaml:"excerpt_bytes"`
	MarkerProperty   string   `yaml:"marker_property"`
}

// CacheConfig controls the submission cache.
type CacheConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Path          string   `yaml:"path"`
	TTL           Duration `yaml:"ttl"`
	PruneSchedule string   `yaml:"prune_schedule"` // cron expression
}

// EventsConfig controls run event publishing.
type EventsConfig struct {
	Enabled bool     `yaml:"enabled"`
	URL     string   `yaml:"url"`
	Stream  string   `yaml:"stream"`
	Subject string   `yaml:"subject"`
	Timeout Duration `yaml:"timeout"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// BatchConfig controls multi-file CLI runs.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Duration is a time.Duration that unmarshals from strings like "90s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads configPath, expands environment variables, applies SANDBOXER_*
// overrides and defaults, and validates the result. An empty configPath
// yields the defaults plus environment overrides.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).Build()
			}
			return nil, errors.WrapError(err, errors.CategoryConfig, "read config file").
				WithContext("path", configPath).Build()
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "parse config file").
				WithContext("path", configPath).Build()
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "apply defaults").Build()
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "configuration validation failed").Build()
	}
	return &cfg, nil
}

// Default returns the default configuration.
func Default() *Config {
	var cfg Config
	_ = applyDefaults(&cfg)
	return &cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}
	example := Default()
	example.Cache.Enabled = true
	example.Metrics.Enabled = true

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal config").Build()
	}
	// #nosec G306 - configuration is not secret
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
