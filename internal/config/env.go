package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SANDBOXER_"

// loadEnvFile loads the first of .env and .env.local that exists. Existing
// process environment variables are not overwritten.
func loadEnvFile() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}

type override struct {
	key   string
	apply func(cfg *Config, val string) error
}

var overrides = []override{
	{"SANDBOX_ORIGIN", func(c *Config, v string) error { c.Sandbox.Origin = v; return nil }},
	{"SANDBOX_DEFINE_PATH", func(c *Config, v string) error { c.Sandbox.DefinePath = v; return nil }},
	{"SANDBOX_VIEWER_PATH", func(c *Config, v string) error { c.Sandbox.ViewerPath = v; return nil }},
	{"SANDBOX_TIMEOUT", func(c *Config, v string) error { return setDuration(&c.Sandbox.Timeout, v) }},
	{"SANDBOX_MARKER", func(c *Config, v string) error { c.Sandbox.MarkerProperty = v; return nil }},
	{"CACHE_ENABLED", func(c *Config, v string) error { return setBool(&c.Cache.Enabled, v) }},
	{"CACHE_PATH", func(c *Config, v string) error { c.Cache.Path = v; return nil }},
	{"CACHE_TTL", func(c *Config, v string) error { return setDuration(&c.Cache.TTL, v) }},
	{"EVENTS_ENABLED", func(c *Config, v string) error { return setBool(&c.Events.Enabled, v) }},
	{"EVENTS_URL", func(c *Config, v string) error { c.Events.URL = v; return nil }},
	{"SERVER_ADDR", func(c *Config, v string) error { c.Server.Addr = v; return nil }},
	{"METRICS_ENABLED", func(c *Config, v string) error { return setBool(&c.Metrics.Enabled, v) }},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = LogLevel(v); return nil }},
	{"LOG_FORMAT", func(c *Config, v string) error { c.Logging.Format = LogFormat(v); return nil }},
	{"CONCURRENCY", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Batch.Concurrency = n
		return nil
	}},
}

// applyEnvOverrides applies SANDBOXER_* variables on top of the file values.
func applyEnvOverrides(cfg *Config) error {
	for _, o := range overrides {
		val, ok := os.LookupEnv(EnvPrefix + o.key)
		if !ok || strings.TrimSpace(val) == "" {
			continue
		}
		if err := o.apply(cfg, strings.TrimSpace(val)); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("invalid %s%s", EnvPrefix, o.key)).Build()
		}
	}
	return nil
}

func setDuration(dst *Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = Duration(d)
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}
