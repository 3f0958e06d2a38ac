package pipeline

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// runState is threaded through the stages of one run.
type runState struct {
	def      *framework.Definition
	outcome  models.StageOutcome
	bundle   *models.Bundle
	result   *models.SubmissionResult
	report   *models.Report
	diags    models.Diagnostics
	failure  *models.Failure
	warnedAt map[models.StageName]bool
}

type stageFunc func(ctx context.Context, st *runState) (models.Diagnostics, error)

type stageDef struct {
	name models.StageName
	fn   stageFunc
}

// runStages executes stages in order, recording timing and stopping on the
// first aborting failure. It returns the aborting failure, or else the first
// non-aborting one.
func (p *Pipeline) runStages(ctx context.Context, st *runState, stages []stageDef) *models.Failure {
	for _, sd := range stages {
		select {
		case <-ctx.Done():
			f := &models.Failure{Kind: models.KindTransportError, Stage: sd.name, Err: ctx.Err()}
			st.report.RecordStage(sd.name, 0, models.StageResultCanceled)
			p.observer.OnStageComplete(sd.name, 0, models.StageResultCanceled)
			return p.abort(st, f)
		default:
		}

		p.observer.OnStageStart(sd.name)
		t0 := time.Now()
		diags, err := sd.fn(ctx, st)
		dur := time.Since(t0)

		v := classifyStage(sd.name, diags, err)
		st.diags = append(st.diags, diags...)
		st.report.AddDiagnostics(diags)
		st.report.RecordStage(sd.name, dur, v.Result)
		if diags.Count(models.SeverityWarning) > 0 {
			st.warnedAt[sd.name] = true
		}
		p.observer.OnStageComplete(sd.name, dur, v.Result)

		if v.Failure != nil {
			if v.Abort {
				return p.abort(st, v.Failure)
			}
			p.firstFailure(st, v.Failure)
		}
	}
	return st.failure
}

// abort records the failure that stopped the run. An earlier non-aborting
// failure is superseded; its diagnostics are carried on f.
func (p *Pipeline) abort(st *runState, f *models.Failure) *models.Failure {
	if prev := st.failure; prev != nil && prev != f {
		f.Diagnostics = append(f.Diagnostics, prev.Diagnostics...)
	}
	st.failure = f
	return f
}

func (p *Pipeline) firstFailure(st *runState, f *models.Failure) *models.Failure {
	if st.failure == nil {
		st.failure = f
	}
	return st.failure
}
