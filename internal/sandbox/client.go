// Package sandbox submits project bundles to a remote sandbox service and
// recovers the viewer URL from its HTML response.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/sandboxer/internal/logfields"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// Client submits bundles. It performs exactly one request per Submit call
// and never retries.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient validates cfg and returns a client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.cfg }

type fileBody struct {
	Content  string `json:"content"`
	IsBinary bool   `json:"isBinary,omitempty"`
}

// EncodeBundle renders the request body with files in bundle order. The
// path mapping is not the top-level value: the define endpoint only accepts
// it wrapped in a "files" object, {"files": {path: {content, isBinary}}}.
func EncodeBundle(b *models.Bundle) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"files":{`)
	for i, f := range b.Files() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Path)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fileBody{Content: f.Content, IsBinary: f.IsBinary})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

// Submit posts the bundle and returns the viewer URL. Every error is a
// *models.Failure of an external kind.
func (c *Client) Submit(ctx context.Context, b *models.Bundle) (*models.SubmissionResult, error) {
	body, err := EncodeBundle(b)
	if err != nil {
		return nil, &models.Failure{Kind: models.KindTransportError, Stage: models.StageSubmit, Err: fmt.Errorf("encode bundle: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.defineURL(), bytes.NewReader(body))
	if err != nil {
		return nil, &models.Failure{Kind: models.KindTransportError, Stage: models.StageSubmit, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/html,application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		f := transportFailure(err)
		c.logger.Warn("Sandbox submission failed",
			logfields.Kind(string(f.Kind)),
			logfields.URL(c.cfg.defineURL()),
			logfields.DurationMS(millis(time.Since(start))),
			logfields.Error(err))
		return nil, f
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseBytes))
	if err != nil {
		f := transportFailure(err)
		f.Status = resp.StatusCode
		return nil, f
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f := &models.Failure{
			Kind:    models.KindSubmissionRejected,
			Stage:   models.StageSubmit,
			Status:  resp.StatusCode,
			Excerpt: Excerpt(data, c.cfg.ExcerptBytes),
		}
		c.logger.Warn("Sandbox rejected submission",
			logfields.Status(resp.StatusCode),
			logfields.DurationMS(millis(time.Since(start))))
		return nil, f
	}

	id, ok := ExtractIdentifier(data, c.cfg.MarkerProperty, c.cfg.MaxTokens)
	if !ok {
		return nil, &models.Failure{
			Kind:    models.KindSubmissionMalformed,
			Stage:   models.StageSubmit,
			Status:  resp.StatusCode,
			Excerpt: Excerpt(data, c.cfg.ExcerptBytes),
		}
	}

	result := &models.SubmissionResult{
		ViewerURL:     c.cfg.ViewerURL(id),
		RawIdentifier: id,
		HTTPStatus:    resp.StatusCode,
	}
	c.logger.Debug("Sandbox accepted submission",
		logfields.ViewerURL(result.ViewerURL),
		logfields.Status(resp.StatusCode),
		logfields.DurationMS(millis(time.Since(start))))
	return result, nil
}

// transportFailure classifies a request error. Deadline expiry is a timeout;
// cancellation and every other network error is a transport error.
func transportFailure(err error) *models.Failure {
	kind := models.KindTransportError
	var netErr net.Error
	switch {
	case stdErrors.Is(err, context.DeadlineExceeded):
		kind = models.KindSubmissionTimeout
	case stdErrors.Is(err, context.Canceled):
	case stdErrors.As(err, &netErr) && netErr.Timeout():
		kind = models.KindSubmissionTimeout
	}
	return &models.Failure{Kind: kind, Stage: models.StageSubmit, Err: err}
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
