package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/sandboxer/internal/sandbox"
)

// ValidateConfig validates the complete configuration.
func ValidateConfig(cfg *Config) error {
	return (&configurationValidator{config: cfg}).validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{cv.validateSandbox, cv.validateCache, cv.validateEvents, cv.validateServer} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateSandbox() error {
	if err := cv.config.SandboxClientConfig().Validate(); err != nil {
		return fmt.Errorf("sandbox: %w", err)
	}
	return nil
}

func (cv *configurationValidator) validateCache() error {
	c := cv.config.Cache
	if !c.Enabled {
		return nil
	}
	if c.Path == "" {
		return errors.New("cache: path is required when enabled")
	}
	if c.TTL.Std() < time.Second {
		return fmt.Errorf("cache: ttl %s is too short", c.TTL.Std())
	}
	if len(strings.Fields(c.PruneSchedule)) != 5 {
		return fmt.Errorf("cache: prune_schedule %q must be a five-field cron expression", c.PruneSchedule)
	}
	return nil
}

func (cv *configurationValidator) validateEvents() error {
	e := cv.config.Events
	if !e.Enabled {
		return nil
	}
	if !strings.HasPrefix(e.URL, "nats://") && !strings.HasPrefix(e.URL, "tls://") {
		return fmt.Errorf("events: url %q must use nats:// or tls://", e.URL)
	}
	if e.Stream == "" || e.Subject == "" {
		return errors.New("events: stream and subject are required")
	}
	return nil
}

func (cv *configurationValidator) validateServer() error {
	if !strings.HasPrefix(cv.config.Metrics.Path, "/") {
		return fmt.Errorf("metrics: path %q must start with /", cv.config.Metrics.Path)
	}
	if cv.config.Server.MaxBodyBytes <= 0 {
		return errors.New("server: max_body_bytes must be positive")
	}
	return nil
}

// SandboxClientConfig converts the sandbox section into client settings.
func (c *Config) SandboxClientConfig() sandbox.Config {
	d := sandbox.DefaultConfig()
	d.Origin = c.Sandbox.Origin
	d.DefinePath = c.Sandbox.DefinePath
	d.ViewerPath = c.Sandbox.ViewerPath
	d.Timeout = c.Sandbox.Timeout.Std()
	d.MaxResponseBytes = c.Sandbox.MaxResponseBytes
	d.ExcerptBytes = c.Sandbox.ExcerptBytes
	d.MarkerProperty = c.Sandbox.MarkerProperty
	return d
}
