package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestPublisherPublishesRunSummary(t *testing.T) {
	var (
		gotSubject string
		got        RunEvent
	)
	p := newPublisher(func(ctx context.Context, subject string, data []byte) error {
		_, hasDeadline := ctx.Deadline()
		require.True(t, hasDeadline)
		gotSubject = subject
		return json.Unmarshal(data, &got)
	}, "sandboxer.runs", time.Second, quietLogger())

	r := models.NewReport("run-7", framework.ReactPixi)
	r.AddDiagnostics(models.Diagnostics{{Code: "imports.unknown_component", Stage: models.StageResolveImports, Severity: models.SeverityWarning, Message: "x"}})
	r.BundleHash = "deadbeef"
	r.Verified = true
	r.Finish(nil)

	var obs models.RunObserver = p
	obs.OnRunComplete(r)

	require.Equal(t, "sandboxer.runs", gotSubject)
	require.Equal(t, "run-7", got.RunID)
	require.Equal(t, "react-pixi", got.Framework)
	require.Equal(t, models.OutcomeWarning, got.Outcome)
	require.Equal(t, 1, got.Warnings)
	require.True(t, got.Verified)
	require.Equal(t, "deadbeef", got.BundleHash)
}

func TestPublisherErrorsAreContained(t *testing.T) {
	calls := 0
	p := newPublisher(func(context.Context, string, []byte) error {
		calls++
		return errors.New("no responders")
	}, "s", 0, quietLogger())

	r := models.NewReport("run-8", framework.React)
	r.Finish(&models.Failure{Kind: models.KindTransportError})
	p.OnRunComplete(r)
	require.Equal(t, 1, calls)

	err := p.Publish(t.Context(), NewRunEvent(r))
	require.ErrorContains(t, err, "no responders")
	require.NoError(t, p.Close())
}
