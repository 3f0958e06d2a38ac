package server

import (
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
	derrors "git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
	"git.home.luguber.info/inful/sandboxer/internal/models"
	"git.home.luguber.info/inful/sandboxer/internal/version"
)

const maxRunsLimit = 200

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   version.Version,
		Uptime:    time.Since(s.started).Seconds(),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleFrameworks(w http.ResponseWriter, r *http.Request) {
	var out []FrameworkInfo
	for _, n := range s.catalog.Names() {
		def, err := s.catalog.Definition(n)
		if err != nil {
			s.errorAdapter.WriteErrorResponse(w, r, err)
			return
		}
		out = append(out, FrameworkInfo{
			Name:          string(def.Name),
			Title:         def.Title,
			RootContainer: def.RootContainer,
			Dependencies:  def.Dependencies,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	req, fw, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	res, err := s.runner.Process(r.Context(), req.Source, fw)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProcessResponse{
		RunID:       res.RunID,
		ViewerURL:   res.ViewerURL,
		BundleHash:  res.BundleHash,
		WarningKind: res.WarningKind,
		Warnings:    diagnosticPayloads(res.Warnings),
	})
}

func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) {
	req, fw, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	p, err := s.runner.Prepare(r.Context(), req.Source, fw)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	imports := make(map[string][]string)
	for _, mod := range p.Manifest.Modules() {
		for _, spec := range p.Manifest.Specs(mod) {
			imports[mod] = append(imports[mod], spec.Name)
		}
	}
	writeJSON(w, http.StatusOK, PrepareResponse{
		RunID:       p.RunID,
		Framework:   string(p.Framework),
		Verified:    p.Bundle.Verified,
		BundleHash:  p.Bundle.Hash(),
		EntryPath:   p.Bundle.EntryPath,
		Imports:     imports,
		Files:       p.Bundle.Files(),
		Diagnostics: diagnosticPayloads(p.Diagnostics),
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("limit must be a positive integer").Build())
			return
		}
		limit = min(n, maxRunsLimit)
	}
	runs, err := s.opts.History.Runs(r.Context(), limit)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.WrapError(err, derrors.CategoryStorage, "list runs").Build())
		return
	}
	if runs == nil {
		runs = []*models.Report{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (ProcessRequest, framework.Name, bool) {
	var req ProcessRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stdErrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, derrors.ErrorResponse{Error: "request body too large", Category: string(derrors.CategoryValidation)})
			return req, "", false
		}
		s.errorAdapter.WriteErrorResponse(w, r, derrors.WrapError(err, derrors.CategoryValidation, "invalid request body").Build())
		return req, "", false
	}
	if strings.TrimSpace(req.Source) == "" {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("source is required").Build())
		return req, "", false
	}
	fw, err := framework.ParseName(req.Framework)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return req, "", false
	}
	return req, fw, true
}

// writeFailure maps a *models.Failure to a status through the error adapter
// and writes its typed payload.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var f *models.Failure
	if !stdErrors.As(err, &f) {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	status := s.errorAdapter.StatusCodeFor(f)
	if f.Kind == models.KindTransportError && r.Context().Err() != nil {
		// client went away
		status = 499
	}
	writeJSON(w, status, FailureResponse{
		Error:       f.Error(),
		Kind:        f.Kind,
		Stage:       f.Stage,
		Status:      f.Status,
		Excerpt:     f.Excerpt,
		RateLimited: f.RateLimited(),
		Diagnostics: diagnosticPayloads(f.Diagnostics),
	})
}
