package models

import (
	"time"

	"git.home.luguber.info/inful/sandboxer/internal/metrics"
)

// RunObserver receives callbacks around stage execution and the run lifecycle.
type RunObserver interface {
	OnStageStart(stage StageName)
	OnStageComplete(stage StageName, duration time.Duration, result StageResult)
	OnRunComplete(report *Report)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(_ StageName)                                    {}
func (NoopObserver) OnStageComplete(_ StageName, _ time.Duration, _ StageResult) {}
func (NoopObserver) OnRunComplete(_ *Report)                                     {}

// RecorderObserver adapts metrics.Recorder into a RunObserver.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnStageStart(_ StageName) {}

func (r RecorderObserver) OnStageComplete(stage StageName, d time.Duration, res StageResult) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.ObserveStageDuration(string(stage), d)
	r.Recorder.IncStageResult(string(stage), resultLabel(res))
}

func (r RecorderObserver) OnRunComplete(report *Report) {
	if r.Recorder == nil || report == nil {
		return
	}
	r.Recorder.ObserveRunDuration(report.Duration())
	r.Recorder.IncRunOutcome(metrics.OutcomeLabel(report.Outcome))
	counts := map[StageName]map[Severity]int{}
	for _, is := range report.Issues {
		if counts[is.Stage] == nil {
			counts[is.Stage] = map[Severity]int{}
		}
		counts[is.Stage][is.Severity]++
	}
	for stage, bySev := range counts {
		for sev, n := range bySev {
			r.Recorder.IncDiagnostics(string(stage), string(sev), n)
		}
	}
	if _, submitted := report.StageResults[StageSubmit]; submitted {
		kind := "success"
		if report.FailureKind != "" {
			kind = string(report.FailureKind)
		}
		r.Recorder.IncSubmissionResult(kind)
		r.Recorder.ObserveSubmissionDuration(report.StageDurations[StageSubmit])
	}
}

func resultLabel(res StageResult) metrics.ResultLabel {
	switch res {
	case StageResultWarning:
		return metrics.ResultWarning
	case StageResultFatal:
		return metrics.ResultFatal
	case StageResultCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultSuccess
	}
}
