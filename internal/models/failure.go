package models

import (
	"fmt"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
)

// FailureKind is the caller-facing failure taxonomy.
type FailureKind string

const (
	// KindNormalizationWarningOnly marks a successful run whose source needed
	// conservative no-ops in the normalizer. It never fails a run.
	KindNormalizationWarningOnly FailureKind = "NormalizationWarningOnly"
	KindUnsupportedFramework     FailureKind = "UnsupportedFramework"
	KindStructuralImbalance      FailureKind = "StructuralImbalance"
	KindEmptyComponentManifest   FailureKind = "EmptyComponentManifest"
	KindNoEntryPointCandidate    FailureKind = "NoEntryPointCandidate"
	KindBundleInvalid            FailureKind = "BundleInvalid"
	KindSubmissionRejected       FailureKind = "SubmissionRejected"
	KindSubmissionMalformed      FailureKind = "SubmissionMalformed"
	KindSubmissionTimeout        FailureKind = "SubmissionTimeout"
	KindTransportError           FailureKind = "TransportError"
)

// External reports whether the kind originates from the remote service or the network.
func (k FailureKind) External() bool {
	switch k {
	case KindSubmissionRejected, KindSubmissionMalformed, KindSubmissionTimeout, KindTransportError:
		return true
	default:
		return false
	}
}

// Failure is the typed error returned by the pipeline. Pipeline failures
// carry the offending stage and its diagnostics; external failures carry the
// HTTP status and a truncated response excerpt.
type Failure struct {
	Kind        FailureKind
	Stage       StageName
	Diagnostics Diagnostics
	Status      int
	Excerpt     string
	Err         error
}

func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", f.Kind)
	if f.Stage != "" {
		fmt.Fprintf(&b, " at %s", f.Stage)
	}
	if f.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", f.Status)
	}
	if errs := f.Diagnostics.BySeverity(SeverityError); len(errs) > 0 {
		fmt.Fprintf(&b, ": %s", errs[0].Message)
		if len(errs) > 1 {
			fmt.Fprintf(&b, " (+%d more)", len(errs)-1)
		}
	} else if f.Err != nil {
		fmt.Fprintf(&b, ": %v", f.Err)
	}
	return b.String()
}

// Unwrap exposes the classified form so foundation adapters can map the
// failure to exit codes and HTTP statuses.
func (f *Failure) Unwrap() error { return f.Classified() }

var rateLimitMarkers = []string{"rate limit", "rate-limit", "ratelimit", "too many requests", "quota"}

// RateLimited reports whether an external failure looks like a quota or
// rate-limit condition rather than a permanent rejection.
func (f *Failure) RateLimited() bool {
	if f.Status == http.StatusTooManyRequests {
		return true
	}
	if !f.Kind.External() {
		return false
	}
	lower := strings.ToLower(f.Excerpt)
	for _, m := range rateLimitMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Classified converts the failure to a ClassifiedError.
func (f *Failure) Classified() *errors.ClassifiedError {
	var b *errors.ErrorBuilder
	msg := string(f.Kind)
	switch f.Kind {
	case KindUnsupportedFramework:
		b = errors.NewError(errors.CategoryValidation, msg).UserAction()
	case KindStructuralImbalance:
		b = errors.NewError(errors.CategoryStructure, msg).UserAction()
	case KindEmptyComponentManifest:
		b = errors.NewError(errors.CategoryManifest, msg).UserAction()
	case KindNoEntryPointCandidate:
		b = errors.NewError(errors.CategoryEntryPoint, msg).UserAction()
	case KindBundleInvalid:
		b = errors.NewError(errors.CategoryAssembly, msg)
	case KindSubmissionRejected, KindSubmissionMalformed:
		b = errors.NewError(errors.CategorySubmission, msg)
		if f.RateLimited() {
			b.RateLimit()
		}
	case KindSubmissionTimeout, KindTransportError:
		b = errors.NewError(errors.CategoryNetwork, msg).Retryable()
	default:
		b = errors.NewError(errors.CategoryInternal, msg)
	}
	if f.Err != nil {
		b.WithCause(f.Err)
	}
	if f.Stage != "" {
		b.WithContext("stage", string(f.Stage))
	}
	if f.Status != 0 {
		b.WithContext("status", f.Status)
	}
	if f.Excerpt != "" {
		b.WithContext("excerpt", f.Excerpt)
	}
	if errs := f.Diagnostics.BySeverity(SeverityError); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, d := range errs {
			msgs[i] = d.String()
		}
		b.WithContext("diagnostics", msgs)
	}
	return b.Build()
}
