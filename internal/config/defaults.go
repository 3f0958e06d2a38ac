package config

import (
	"time"

	"git.home.luguber.info/inful/sandboxer/internal/sandbox"
)

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

type sandboxDefaults struct{}

func (sandboxDefaults) Domain() string { return "sandbox" }

func (sandboxDefaults) ApplyDefaults(cfg *Config) error {
	d := sandbox.DefaultConfig()
	s := &cfg.Sandbox
	if s.Origin == "" {
		s.Origin = d.Origin
	}
	if s.DefinePath == "" {
		s.DefinePath = d.DefinePath
	}
	if s.ViewerPath == "" {
		s.ViewerPath = d.ViewerPath
	}
	if s.Timeout == 0 {
		s.Timeout = Duration(d.Timeout)
	}
	if s.MaxResponseBytes == 0 {
		s.MaxResponseBytes = d.MaxResponseBytes
	}
	if s.ExcerptBytes == 0 {
		s.ExcerptBytes = d.ExcerptBytes
	}
	if s.MarkerProperty == "" {
		s.MarkerProperty = d.MarkerProperty
	}
	return nil
}

type cacheDefaults struct{}

func (cacheDefaults) Domain() string { return "cache" }

func (cacheDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = ".sandboxer/cache.db"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = Duration(24 * time.Hour)
	}
	if cfg.Cache.PruneSchedule == "" {
		cfg.Cache.PruneSchedule = "*/30 * * * *"
	}
	return nil
}

type eventsDefaults struct{}

func (eventsDefaults) Domain() string { return "events" }

func (eventsDefaults) ApplyDefaults(cfg *Config) error {
	e := &cfg.Events
	if e.URL == "" {
		e.URL = "nats://127.0.0.1:4222"
	}
	if e.Stream == "" {
		e.Stream = "SANDBOXER"
	}
	if e.Subject == "" {
		e.Subject = "sandboxer.runs"
	}
	if e.Timeout == 0 {
		e.Timeout = Duration(5 * time.Second)
	}
	return nil
}

type serverDefaults struct{}

func (serverDefaults) Domain() string { return "server" }

func (serverDefaults) ApplyDefaults(cfg *Config) error {
	s := &cfg.Server
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = Duration(15 * time.Second)
	}
	if s.WriteTimeout == 0 {
		// longer than a submission
		s.WriteTimeout = Duration(cfg.Sandbox.Timeout.Std() + 15*time.Second)
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = 1 << 20
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	return nil
}

type loggingDefaults struct{}

func (loggingDefaults) Domain() string { return "logging" }

func (loggingDefaults) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if cfg.Batch.Concurrency <= 0 {
		cfg.Batch.Concurrency = 4
	}
	return nil
}

// appliers run in order; server defaults depend on the sandbox timeout.
var appliers = []DefaultApplier{sandboxDefaults{}, cacheDefaults{}, eventsDefaults{}, serverDefaults{}, loggingDefaults{}}

func applyDefaults(cfg *Config) error {
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
