package server

import (
	"encoding/json"
	"net/http"
	"time"

	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// ProcessRequest is the body of /v1/process and /v1/prepare.
type ProcessRequest struct {
	Source    string `json:"source"`
	Framework string `json:"framework"`
}

// ProcessResponse is returned by a successful /v1/process.
type ProcessResponse struct {
	RunID       string              `json:"run_id"`
	ViewerURL   string              `json:"viewer_url"`
	BundleHash  string              `json:"bundle_hash"`
	WarningKind models.FailureKind  `json:"warning_kind,omitempty"`
	Warnings    []DiagnosticPayload `json:"warnings,omitempty"`
}

// PrepareResponse is returned by /v1/prepare.
type PrepareResponse struct {
	RunID       string               `json:"run_id"`
	Framework   string               `json:"framework"`
	Verified    bool                 `json:"verified"`
	BundleHash  string               `json:"bundle_hash"`
	EntryPath   string               `json:"entry_path"`
	Imports     map[string][]string  `json:"imports"`
	Files       []models.ProjectFile `json:"files"`
	Diagnostics []DiagnosticPayload  `json:"diagnostics,omitempty"`
}

// FailureResponse is returned for pipeline and submission failures.
type FailureResponse struct {
	Error       string              `json:"error"`
	Kind        models.FailureKind  `json:"kind"`
	Stage       models.StageName    `json:"stage,omitempty"`
	Status      int                 `json:"status,omitempty"`
	Excerpt     string              `json:"excerpt,omitempty"`
	RateLimited bool                `json:"rate_limited,omitempty"`
	Diagnostics []DiagnosticPayload `json:"diagnostics,omitempty"`
}

// DiagnosticPayload is the wire form of a diagnostic.
type DiagnosticPayload struct {
	Code     string           `json:"code"`
	Stage    models.StageName `json:"stage"`
	Severity models.Severity  `json:"severity"`
	Line     int              `json:"line,omitempty"`
	Message  string           `json:"message"`
}

// FrameworkInfo describes one supported framework.
type FrameworkInfo struct {
	Name          string            `json:"name"`
	Title         string            `json:"title"`
	RootContainer string            `json:"root_container,omitempty"`
	Dependencies  map[string]string `json:"dependencies"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

func diagnosticPayloads(ds models.Diagnostics) []DiagnosticPayload {
	if len(ds) == 0 {
		return nil
	}
	out := make([]DiagnosticPayload, 0, len(ds))
	for _, d := range ds {
		out = append(out, DiagnosticPayload{Code: d.Code, Stage: d.Stage, Severity: d.Severity, Line: d.Line, Message: d.Message})
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
