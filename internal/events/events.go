// Package events publishes a summary of every finished run to NATS
// JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/sandboxer/internal/logfields"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// RunEvent is the payload published for each finished run.
type RunEvent struct {
	RunID       string               `json:"run_id"`
	Framework   string               `json:"framework"`
	Outcome     models.Outcome       `json:"outcome"`
	FailureKind models.FailureKind   `json:"failure_kind,omitempty"`
	BundleHash  string               `json:"bundle_hash,omitempty"`
	Verified    bool                 `json:"verified"`
	ViewerURL   string               `json:"viewer_url,omitempty"`
	HTTPStatus  int                  `json:"http_status,omitempty"`
	Warnings    int                  `json:"warnings"`
	DurationMS  int64                `json:"duration_ms"`
	Issues      []models.ReportIssue `json:"issues,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

// NewRunEvent summarizes a report.
func NewRunEvent(r *models.Report) RunEvent {
	return RunEvent{
		RunID:       r.RunID,
		Framework:   string(r.Framework),
		Outcome:     r.Outcome,
		FailureKind: r.FailureKind,
		BundleHash:  r.BundleHash,
		Verified:    r.Verified,
		ViewerURL:   r.ViewerURL,
		HTTPStatus:  r.HTTPStatus,
		Warnings:    len(r.Warnings()),
		DurationMS:  r.Duration().Milliseconds(),
		Issues:      r.Issues,
		Timestamp:   r.End,
	}
}

// Config configures the publisher.
type Config struct {
	URL     string
	Stream  string
	Subject string
	Timeout time.Duration
}

type publishFunc func(ctx context.Context, subject string, data []byte) error

// Publisher is a RunObserver that publishes RunEvents. Publish errors are
// logged and never affect the run.
type Publisher struct {
	models.NoopObserver
	conn    *nats.Conn
	publish publishFunc
	subject string
	timeout time.Duration
	logger  *slog.Logger
}

// Connect dials NATS and ensures the stream exists.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(cfg.URL, nats.Name("sandboxer"), nats.Timeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	sctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(sctx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "Sandboxer run events",
		Subjects:    []string{cfg.Subject},
		MaxAge:      7 * 24 * time.Hour,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err)
	}

	logger.Info("NATS publisher initialized", logfields.URL(cfg.URL), slog.String("subject", cfg.Subject))
	p := newPublisher(func(ctx context.Context, subject string, data []byte) error {
		_, err := js.Publish(ctx, subject, data)
		return err
	}, cfg.Subject, cfg.Timeout, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(fn publishFunc, subject string, timeout time.Duration, logger *slog.Logger) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{publish: fn, subject: subject, timeout: timeout, logger: logger}
}

// OnRunComplete implements models.RunObserver.
func (p *Publisher) OnRunComplete(r *models.Report) {
	if r == nil {
		return
	}
	if err := p.Publish(context.Background(), NewRunEvent(r)); err != nil {
		p.logger.Warn("Failed to publish run event", logfields.RunID(r.RunID), logfields.Error(err))
	}
}

// Publish sends one event.
func (p *Publisher) Publish(ctx context.Context, ev RunEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	p.logger.Debug("Published run event", logfields.RunID(ev.RunID), logfields.Kind(string(ev.Outcome)))
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
