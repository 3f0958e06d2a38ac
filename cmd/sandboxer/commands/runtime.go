package commands

import (
	"context"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sandboxer/internal/cache"
	"git.home.luguber.info/inful/sandboxer/internal/events"
	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/logfields"
	"git.home.luguber.info/inful/sandboxer/internal/metrics"
	"git.home.luguber.info/inful/sandboxer/internal/pipeline"
	"git.home.luguber.info/inful/sandboxer/internal/sandbox"
)

// runtime wires the pipeline with the optional cache, event and metrics
// components the configuration enables.
type runtime struct {
	catalog   *framework.Catalog
	pipeline  *pipeline.Pipeline
	store     *cache.Store
	publisher *events.Publisher
	registry  *prom.Registry
	logger    *slog.Logger
}

func newRuntime(ctx context.Context, g *Global, submit bool) (*runtime, error) {
	catalog, err := framework.LoadCatalog()
	if err != nil {
		return nil, err
	}
	cfg := g.Config
	rt := &runtime{catalog: catalog, logger: g.Logger}
	opts := []pipeline.Option{pipeline.WithLogger(g.Logger)}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		rt.registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(rt.registry)
		opts = append(opts, pipeline.WithRecorder(recorder))
	}

	if cfg.Cache.Enabled {
		rt.store, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "open submission cache").
				WithContext("path", cfg.Cache.Path).Build()
		}
		opts = append(opts, pipeline.WithObserver(cache.HistoryObserver{Store: rt.store, Logger: g.Logger}))
	}

	if cfg.Events.Enabled {
		rt.publisher, err = events.Connect(ctx, events.Config{
			URL:     cfg.Events.URL,
			Stream:  cfg.Events.Stream,
			Subject: cfg.Events.Subject,
			Timeout: cfg.Events.Timeout.Std(),
		}, g.Logger)
		if err != nil {
			// events are best effort
			g.Logger.Warn("Run events disabled", logfields.URL(cfg.Events.URL), logfields.Error(err))
		} else {
			opts = append(opts, pipeline.WithObserver(rt.publisher))
		}
	}

	if submit {
		client, err := sandbox.NewClient(cfg.SandboxClientConfig(), sandbox.WithLogger(g.Logger))
		if err != nil {
			rt.Close()
			return nil, errors.WrapError(err, errors.CategoryConfig, "configure sandbox client").Build()
		}
		var sub pipeline.Submitter = client
		if rt.store != nil {
			sub = cache.NewCachingSubmitter(client, rt.store, cfg.Cache.TTL.Std(), recorder, g.Logger)
		}
		opts = append(opts, pipeline.WithSubmitter(sub))
	}

	rt.pipeline = pipeline.New(catalog, opts...)
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.publisher != nil {
		if err := rt.publisher.Close(); err != nil {
			rt.logger.Warn("Failed to close NATS connection", logfields.Error(err))
		}
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.logger.Warn("Failed to close submission cache", logfields.Error(err))
		}
	}
}
