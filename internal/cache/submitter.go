package cache

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sandboxer/internal/logfields"
	"git.home.luguber.info/inful/sandboxer/internal/metrics"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// Submitter posts a bundle to the sandbox service.
type Submitter interface {
	Submit(ctx context.Context, b *models.Bundle) (*models.SubmissionResult, error)
}

// CachingSubmitter answers repeated submissions of an identical verified
// bundle from the store. Failures are never cached.
type CachingSubmitter struct {
	next     Submitter
	store    *Store
	ttl      time.Duration
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewCachingSubmitter wraps next.
func NewCachingSubmitter(next Submitter, store *Store, ttl time.Duration, recorder metrics.Recorder, logger *slog.Logger) *CachingSubmitter {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingSubmitter{next: next, store: store, ttl: ttl, recorder: recorder, logger: logger}
}

// Submit implements the pipeline submitter.
func (c *CachingSubmitter) Submit(ctx context.Context, b *models.Bundle) (*models.SubmissionResult, error) {
	if !b.Verified {
		return c.next.Submit(ctx, b)
	}
	hash := b.Hash()
	entry, ok, err := c.store.Get(ctx, hash, c.ttl)
	if err != nil {
		c.logger.Warn("Submission cache lookup failed", logfields.BundleHash(hash), logfields.Error(err))
	}
	c.recorder.IncCacheLookup(ok)
	if ok {
		c.logger.Debug("Submission served from cache", logfields.BundleHash(hash), logfields.ViewerURL(entry.Result.ViewerURL))
		res := entry.Result
		return &res, nil
	}

	res, err := c.next.Submit(ctx, b)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, hash, *res); err != nil {
		c.logger.Warn("Submission cache write failed", logfields.BundleHash(hash), logfields.Error(err))
	}
	return res, nil
}

// HistoryObserver records finished runs in the store.
type HistoryObserver struct {
	models.NoopObserver
	Store  *Store
	Logger *slog.Logger
}

// OnRunComplete implements models.RunObserver.
func (h HistoryObserver) OnRunComplete(r *models.Report) {
	if h.Store == nil || r == nil {
		return
	}
	if err := h.Store.RecordRun(context.Background(), r); err != nil && h.Logger != nil {
		h.Logger.Warn("Failed to record run", logfields.RunID(r.RunID), logfields.Error(err))
	}
}
