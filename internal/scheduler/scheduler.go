// Package scheduler runs periodic maintenance jobs for the server.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sandboxer/internal/logfields"
)

// Pruner removes entries older than maxAge.
type Pruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// New creates a stopped scheduler.
func New(logger *slog.Logger, opts ...gocron.SchedulerOption) (*Scheduler, error) {
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// SchedulePrune runs p.Prune(maxAge) on the cron expression and returns the
// job ID.
func (s *Scheduler) SchedulePrune(cron string, p Pruner, maxAge time.Duration) (string, error) {
	return s.add(gocron.CronJob(cron, false), "cache-prune", func() { s.prune(p, maxAge) })
}

// ScheduleEvery runs p.Prune(maxAge) at a fixed interval.
func (s *Scheduler) ScheduleEvery(interval time.Duration, p Pruner, maxAge time.Duration) (string, error) {
	return s.add(gocron.DurationJob(interval), "cache-prune", func() { s.prune(p, maxAge) })
}

func (s *Scheduler) add(def gocron.JobDefinition, name string, fn func()) (string, error) {
	job, err := s.scheduler.NewJob(def, gocron.NewTask(fn), gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule))
	if err != nil {
		return "", fmt.Errorf("failed to create %s job: %w", name, err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) prune(p Pruner, maxAge time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := p.Prune(ctx, maxAge)
	if err != nil {
		s.logger.Error("Cache prune failed", logfields.Job("cache-prune"), logfields.Error(err))
		return
	}
	s.logger.Info("Cache pruned", logfields.Job("cache-prune"), slog.Int64("removed", n))
}
