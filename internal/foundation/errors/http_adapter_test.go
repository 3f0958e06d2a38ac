package errors

import (
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPErrorAdapterStatusCodes(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"plain", stdErrors.New("boom"), http.StatusInternalServerError},
		{"validation", ValidationError("empty").Build(), http.StatusBadRequest},
		{"manifest", NewError(CategoryManifest, "empty").Build(), http.StatusUnprocessableEntity},
		{"submission", NewError(CategorySubmission, "rejected").Build(), http.StatusBadGateway},
		{"rate limited", NewError(CategorySubmission, "quota").RateLimit().Build(), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.StatusCodeFor(tt.err); got != tt.want {
				t.Errorf("StatusCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHTTPErrorAdapterWriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/process", nil)
	rec := httptest.NewRecorder()

	err := NewError(CategoryEntryPoint, "no component renders Canvas").WithContext("framework", "react-three-fiber").Build()
	adapter.WriteErrorResponse(rec, req, err)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body ErrorResponse
	if decodeErr := json.NewDecoder(rec.Body).Decode(&body); decodeErr != nil {
		t.Fatalf("decode: %v", decodeErr)
	}
	if body.Category != "entrypoint" || body.Error != "no component renders Canvas" {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Context["framework"] != "react-three-fiber" {
		t.Errorf("expected framework context, got %v", body.Context)
	}
}
