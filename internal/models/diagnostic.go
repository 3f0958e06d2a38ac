package models

import (
	"fmt"
	"strings"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a single finding reported by a stage. Line is 1-based and
// refers to the stage's input text; zero means the whole document.
type Diagnostic struct {
	Stage    StageName `json:"stage"`
	Severity Severity  `json:"severity"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Line     int       `json:"line,omitempty"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(string(d.Stage))
	if d.Line > 0 {
		fmt.Fprintf(&b, ":%d", d.Line)
	}
	fmt.Fprintf(&b, ": %s: %s [%s]", d.Severity, d.Message, d.Code)
	return b.String()
}

// Diagnostics is an ordered list of findings.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic is an error.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// BySeverity returns the diagnostics with the given severity.
func (ds Diagnostics) BySeverity(s Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// Count returns how many diagnostics have the given severity.
func (ds Diagnostics) Count(s Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// Reporter accumulates diagnostics for one stage.
type Reporter struct {
	stage StageName
	diags Diagnostics
}

// NewReporter returns a Reporter tagging every diagnostic with stage.
func NewReporter(stage StageName) *Reporter { return &Reporter{stage: stage} }

func (r *Reporter) add(sev Severity, line int, code, format string, args ...any) {
	r.diags = append(r.diags, Diagnostic{
		Stage:    r.stage,
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
	})
}

// Info records an informational diagnostic.
func (r *Reporter) Info(line int, code, format string, args ...any) {
	r.add(SeverityInfo, line, code, format, args...)
}

// Warn records a warning.
func (r *Reporter) Warn(line int, code, format string, args ...any) {
	r.add(SeverityWarning, line, code, format, args...)
}

// Error records an error.
func (r *Reporter) Error(line int, code, format string, args ...any) {
	r.add(SeverityError, line, code, format, args...)
}

// Diagnostics returns everything recorded so far.
func (r *Reporter) Diagnostics() Diagnostics { return r.diags }
