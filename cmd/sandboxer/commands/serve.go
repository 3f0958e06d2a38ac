package commands

import (
	"errors"
	"net/http"

	"git.home.luguber.info/inful/sandboxer/internal/logfields"
	"git.home.luguber.info/inful/sandboxer/internal/metrics"
	"git.home.luguber.info/inful/sandboxer/internal/scheduler"
	"git.home.luguber.info/inful/sandboxer/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `short:"a" help:"Listen address (overrides server.addr)"`
}

func (s *ServeCmd) Run(g *Global, _ *CLI) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := newRuntime(ctx, g, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := g.Config
	opts := server.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		MetricsPath:  cfg.Metrics.Path,
		Logger:       g.Logger,
	}
	if s.Addr != "" {
		opts.Addr = s.Addr
	}
	if rt.registry != nil {
		opts.Metrics = metrics.HTTPHandler(rt.registry)
	}
	if rt.store != nil {
		opts.History = rt.store

		sched, err := scheduler.New(g.Logger)
		if err != nil {
			return err
		}
		if _, err := sched.SchedulePrune(cfg.Cache.PruneSchedule, rt.store, cfg.Cache.TTL.Std()); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				g.Logger.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	err = server.New(rt.pipeline, rt.catalog, opts).ListenAndServe(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
