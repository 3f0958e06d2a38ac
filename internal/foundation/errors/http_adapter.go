package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter converts errors to HTTP status codes and JSON bodies.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates a new HTTP error adapter.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Error    string         `json:"error"`
	Category string         `json:"category,omitempty"`
	Severity string         `json:"severity,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

// StatusCodeFor determines the HTTP status code for an error.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	classified, ok := AsClassified(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch classified.Category() {
	case CategoryConfig, CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryNormalize, CategoryStructure, CategoryManifest, CategoryEntryPoint, CategoryAssembly:
		return http.StatusUnprocessableEntity
	case CategorySubmission, CategoryNetwork:
		if classified.RetryStrategy() == RetryRateLimit {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error response.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := a.StatusCodeFor(err)
	resp := ErrorResponse{Error: err.Error()}
	if classified, ok := AsClassified(err); ok {
		resp.Error = classified.Message()
		resp.Category = string(classified.Category())
		resp.Severity = string(classified.Severity())
		if len(classified.Context()) > 0 {
			resp.Context = classified.Context()
		}
	}
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()))
	} else {
		a.logger.Warn("request rejected",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
