// Package pipeline runs the six recovery and packaging stages over one
// source document and, for Process, submits the resulting bundle.
package pipeline

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sandboxer/internal/assemble"
	"git.home.luguber.info/inful/sandboxer/internal/entrypoint"
	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/imports"
	"git.home.luguber.info/inful/sandboxer/internal/logfields"
	"git.home.luguber.info/inful/sandboxer/internal/metrics"
	"git.home.luguber.info/inful/sandboxer/internal/models"
	"git.home.luguber.info/inful/sandboxer/internal/normalize"
	"git.home.luguber.info/inful/sandboxer/internal/structure"
)

var errNoSubmitter = stdErrors.New("pipeline has no submitter configured")

// Submitter posts a bundle to the sandbox service.
type Submitter interface {
	Submit(ctx context.Context, b *models.Bundle) (*models.SubmissionResult, error)
}

// Pipeline is safe for concurrent use; every run owns its state.
type Pipeline struct {
	catalog   *framework.Catalog
	assembler *assemble.Assembler
	submitter Submitter
	observer  MultiObserver
	logger    *slog.Logger
	newRunID  func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSubmitter sets the submission client used by Process.
func WithSubmitter(s Submitter) Option {
	return func(p *Pipeline) { p.submitter = s }
}

// WithObserver adds run observers.
func WithObserver(obs ...models.RunObserver) Option {
	return func(p *Pipeline) { p.observer = append(p.observer, obs...) }
}

// WithRecorder records stage and run metrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.observer = append(p.observer, models.RecorderObserver{Recorder: r}) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithAssembler replaces the project assembler.
func WithAssembler(a *assemble.Assembler) Option {
	return func(p *Pipeline) { p.assembler = a }
}

// WithRunIDs replaces the run identifier generator.
func WithRunIDs(gen func() string) Option {
	return func(p *Pipeline) { p.newRunID = gen }
}

// New returns a pipeline over catalog.
func New(catalog *framework.Catalog, opts ...Option) *Pipeline {
	p := &Pipeline{
		catalog:   catalog,
		assembler: assemble.New(),
		logger:    slog.Default(),
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prepared is the output of the five local stages.
type Prepared struct {
	RunID       string
	Framework   framework.Name
	Source      string
	Manifest    *models.ImportManifest
	Bundle      *models.Bundle
	Diagnostics models.Diagnostics
	Report      *models.Report
}

// Result is the output of a successful Process call.
type Result struct {
	RunID      string
	ViewerURL  string
	Warnings   models.Diagnostics
	BundleHash string
	Submission *models.SubmissionResult
	Report     *models.Report
	// WarningKind is KindNormalizationWarningOnly when the normalizer left
	// constructs untouched; the run still succeeded.
	WarningKind models.FailureKind
}

func (p *Pipeline) localStages() []stageDef {
	return []stageDef{
		{models.StageNormalize, func(_ context.Context, st *runState) (models.Diagnostics, error) {
			st.outcome = normalize.Run(st.outcome)
			return st.outcome.Diagnostics, nil
		}},
		{models.StageRepair, func(_ context.Context, st *runState) (models.Diagnostics, error) {
			st.outcome = structure.Run(st.outcome)
			return st.outcome.Diagnostics, nil
		}},
		{models.StageResolveImports, func(_ context.Context, st *runState) (models.Diagnostics, error) {
			st.outcome = imports.Resolve(st.outcome, st.def)
			return st.outcome.Diagnostics, nil
		}},
		{models.StageEntryPoint, func(_ context.Context, st *runState) (models.Diagnostics, error) {
			st.outcome = entrypoint.Run(st.outcome, st.def)
			return st.outcome.Diagnostics, nil
		}},
		{models.StageAssemble, func(ctx context.Context, st *runState) (models.Diagnostics, error) {
			b, diags := p.assembler.Assemble(ctx, st.outcome, st.def)
			if b != nil {
				b.Verified = st.failure == nil
				st.bundle = b
				st.report.BundleHash = b.Hash()
				st.report.Verified = b.Verified
			}
			return diags, nil
		}},
	}
}

func (p *Pipeline) submitStage() stageDef {
	return stageDef{models.StageSubmit, func(ctx context.Context, st *runState) (models.Diagnostics, error) {
		res, err := p.submitter.Submit(ctx, st.bundle)
		if err != nil {
			return nil, err
		}
		st.result = res
		st.report.ViewerURL = res.ViewerURL
		st.report.HTTPStatus = res.HTTPStatus
		return nil, nil
	}}
}

func (p *Pipeline) begin(text string, fw framework.Name) (*runState, *models.Failure) {
	st := &runState{
		outcome:  models.Begin(models.SourceDocument{Text: text, Framework: fw}),
		report:   models.NewReport(p.newRunID(), fw),
		warnedAt: make(map[models.StageName]bool),
	}
	def, err := p.catalog.Definition(fw)
	if err != nil {
		st.failure = &models.Failure{Kind: models.KindUnsupportedFramework, Err: err}
		return st, st.failure
	}
	st.def = def
	return st, nil
}

func (p *Pipeline) finish(st *runState) {
	st.report.Finish(st.failure)
	p.observer.OnRunComplete(st.report)

	attrs := []any{
		logfields.RunID(st.report.RunID),
		logfields.Framework(string(st.report.Framework)),
		slog.String("outcome", string(st.report.Outcome)),
		logfields.DurationMS(float64(st.report.Duration()) / float64(time.Millisecond)),
	}
	if st.failure != nil {
		attrs = append(attrs, logfields.Kind(string(st.failure.Kind)), logfields.Stage(string(st.failure.Stage)))
		p.logger.Warn("Pipeline run failed", attrs...)
		return
	}
	if st.report.ViewerURL != "" {
		attrs = append(attrs, logfields.ViewerURL(st.report.ViewerURL))
	}
	p.logger.Info("Pipeline run complete", attrs...)
}

// Prepare runs the normalize through assemble stages and returns the bundle
// without submitting it. A structural imbalance does not fail Prepare; the
// bundle is returned with Verified false.
func (p *Pipeline) Prepare(ctx context.Context, text string, fw framework.Name) (*Prepared, error) {
	st, f := p.begin(text, fw)
	if f == nil {
		f = p.runStages(ctx, st, p.localStages())
	}
	if f != nil && (f.Kind != models.KindStructuralImbalance || st.bundle == nil) {
		p.finish(st)
		return nil, f
	}
	// the imbalance is reflected in Verified rather than as a failed run
	st.failure = nil
	p.finish(st)
	return &Prepared{
		RunID:       st.report.RunID,
		Framework:   fw,
		Source:      st.outcome.Text,
		Manifest:    st.outcome.Manifest,
		Bundle:      st.bundle,
		Diagnostics: st.diags,
		Report:      st.report,
	}, nil
}

// Process runs every stage and submits the bundle. Hard pipeline failures
// abort before any network call. The returned error is always a
// *models.Failure.
func (p *Pipeline) Process(ctx context.Context, text string, fw framework.Name) (*Result, error) {
	st, f := p.begin(text, fw)
	if f == nil {
		f = p.runStages(ctx, st, p.localStages())
	}
	if f == nil {
		if p.submitter == nil {
			f = p.firstFailure(st, &models.Failure{Kind: models.KindTransportError, Stage: models.StageSubmit, Err: errNoSubmitter})
		} else {
			f = p.runStages(ctx, st, []stageDef{p.submitStage()})
		}
	}
	p.finish(st)
	if f != nil {
		return nil, f
	}

	res := &Result{
		RunID:      st.report.RunID,
		ViewerURL:  st.result.ViewerURL,
		Warnings:   st.diags.BySeverity(models.SeverityWarning),
		BundleHash: st.report.BundleHash,
		Submission: st.result,
		Report:     st.report,
	}
	if st.warnedAt[models.StageNormalize] {
		res.WarningKind = models.KindNormalizationWarningOnly
	}
	return res, nil
}
