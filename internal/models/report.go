package models

import (
	"time"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/version"
)

// Outcome is the typed enumeration of final run states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// ReportIssue is a structured entry describing a warning or error seen during a run.
type ReportIssue struct {
	Code     string    `json:"code"`
	Stage    StageName `json:"stage"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Line     int       `json:"line,omitempty"`
}

// Report captures what happened during one pipeline run.
type Report struct {
	SchemaVersion  int                         `json:"schema_version"`
	RunID          string                      `json:"run_id"`
	Framework      framework.Name              `json:"framework"`
	Start          time.Time                   `json:"start"`
	End            time.Time                   `json:"end"`
	StageDurations map[StageName]time.Duration `json:"stage_durations"`
	StageResults   map[StageName]StageResult   `json:"stage_results"`
	Issues         []ReportIssue               `json:"issues,omitempty"`
	Outcome        Outcome                     `json:"outcome"`
	FailureKind    FailureKind                 `json:"failure_kind,omitempty"`
	BundleHash     string                      `json:"bundle_hash,omitempty"`
	Verified       bool                        `json:"verified"`
	ViewerURL      string                      `json:"viewer_url,omitempty"`
	HTTPStatus     int                         `json:"http_status,omitempty"`
	Version        string                      `json:"version"`
}

// NewReport starts a report for one run.
func NewReport(runID string, fw framework.Name) *Report {
	return &Report{
		SchemaVersion:  1,
		RunID:          runID,
		Framework:      fw,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
		Version:        version.Version,
	}
}

// RecordStage stores the timing and result of a stage.
func (r *Report) RecordStage(stage StageName, d time.Duration, res StageResult) {
	r.StageDurations[stage] = d
	r.StageResults[stage] = res
}

// AddDiagnostics mirrors warnings and errors into Issues. Info diagnostics
// stay with the stage outcome.
func (r *Report) AddDiagnostics(ds Diagnostics) {
	for _, d := range ds {
		if d.Severity == SeverityInfo {
			continue
		}
		r.Issues = append(r.Issues, ReportIssue{Code: d.Code, Stage: d.Stage, Severity: d.Severity, Message: d.Message, Line: d.Line})
	}
}

// Finish closes the report and derives the outcome from failure and issues.
func (r *Report) Finish(f *Failure) {
	r.End = time.Now()
	switch {
	case f != nil && r.canceled():
		r.Outcome = OutcomeCanceled
		r.FailureKind = f.Kind
	case f != nil:
		r.Outcome = OutcomeFailed
		r.FailureKind = f.Kind
		r.HTTPStatus = f.Status
	case len(r.Issues) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

func (r *Report) canceled() bool {
	for _, res := range r.StageResults {
		if res == StageResultCanceled {
			return true
		}
	}
	return false
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Warnings returns the warning issues.
func (r *Report) Warnings() []ReportIssue {
	var out []ReportIssue
	for _, is := range r.Issues {
		if is.Severity == SeverityWarning {
			out = append(out, is)
		}
	}
	return out
}
