package models

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
	"git.home.luguber.info/inful/sandboxer/internal/framework"
)

func TestImportManifestDeduplicatesAndSorts(t *testing.T) {
	m := NewImportManifest()
	m.Add("@react-three/drei", ImportSpec{Name: "Sphere"})
	m.Add("@react-three/drei", ImportSpec{Name: "Box"})
	m.Add("@react-three/drei", ImportSpec{Name: "Sphere"})
	m.Add("@react-three/fiber", ImportSpec{Name: "Canvas"})

	require.Equal(t, []string{"@react-three/drei", "@react-three/fiber"}, m.Modules())
	require.Equal(t, []ImportSpec{{Name: "Box"}, {Name: "Sphere"}}, m.Specs("@react-three/drei"))
	require.Equal(t, []string{"Box", "Canvas", "Sphere"}, m.Identifiers())
	require.Equal(t, 3, m.Len())
	require.True(t, m.Has("Canvas"))

	var nilManifest *ImportManifest
	require.True(t, nilManifest.Empty())
	require.Nil(t, nilManifest.Modules())
}

func TestBundleOrderAndHash(t *testing.T) {
	b := NewBundle(framework.React, "src/App.js")
	require.NoError(t, b.Add(ProjectFile{Path: "package.json", Content: "{}"}))
	require.NoError(t, b.Add(ProjectFile{Path: "src/App.js", Content: "export default App;"}))
	require.Error(t, b.Add(ProjectFile{Path: "package.json"}))

	require.Equal(t, []string{"package.json", "src/App.js"}, b.Paths())
	entry, ok := b.Entry()
	require.True(t, ok)
	require.Equal(t, "export default App;", entry.Content)

	same := NewBundle(framework.React, "src/App.js")
	require.NoError(t, same.Add(ProjectFile{Path: "package.json", Content: "{}"}))
	require.NoError(t, same.Add(ProjectFile{Path: "src/App.js", Content: "export default App;"}))
	require.Equal(t, b.Hash(), same.Hash())

	reordered := NewBundle(framework.React, "src/App.js")
	require.NoError(t, reordered.Add(ProjectFile{Path: "src/App.js", Content: "export default App;"}))
	require.NoError(t, reordered.Add(ProjectFile{Path: "package.json", Content: "{}"}))
	require.NotEqual(t, b.Hash(), reordered.Hash())
}

func TestFailureClassification(t *testing.T) {
	tests := []struct {
		name     string
		failure  *Failure
		category errors.ErrorCategory
		rate     bool
	}{
		{"imbalance", &Failure{Kind: KindStructuralImbalance, Stage: StageRepair}, errors.CategoryStructure, false},
		{"empty manifest", &Failure{Kind: KindEmptyComponentManifest, Stage: StageResolveImports}, errors.CategoryManifest, false},
		{"no entry", &Failure{Kind: KindNoEntryPointCandidate, Stage: StageEntryPoint}, errors.CategoryEntryPoint, false},
		{"rejected 503", &Failure{Kind: KindSubmissionRejected, Status: 503, Excerpt: "Service Unavailable"}, errors.CategorySubmission, false},
		{"rejected 429", &Failure{Kind: KindSubmissionRejected, Status: 429}, errors.CategorySubmission, true},
		{"quota text", &Failure{Kind: KindSubmissionRejected, Status: 403, Excerpt: "Monthly quota exceeded"}, errors.CategorySubmission, true},
		{"timeout", &Failure{Kind: KindSubmissionTimeout, Err: context.DeadlineExceeded}, errors.CategoryNetwork, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error = tt.failure
			require.True(t, errors.HasCategory(err, tt.category))
			require.Equal(t, tt.rate, tt.failure.RateLimited())
		})
	}
}

func TestFailureUnwrapsCause(t *testing.T) {
	f := &Failure{Kind: KindTransportError, Err: context.Canceled}
	require.True(t, stdErrors.Is(f, context.Canceled))

	var target *Failure
	require.True(t, stdErrors.As(error(f), &target))
	require.Equal(t, KindTransportError, target.Kind)
}

func TestFailureMessageNamesStageAndDiagnostic(t *testing.T) {
	f := &Failure{
		Kind:  KindNoEntryPointCandidate,
		Stage: StageEntryPoint,
		Diagnostics: Diagnostics{
			{Stage: StageEntryPoint, Severity: SeverityError, Code: "entrypoint.no_candidate", Message: "no component renders Canvas"},
		},
	}
	require.Equal(t, "NoEntryPointCandidate at entry_point: no component renders Canvas", f.Error())
}

func TestReportOutcome(t *testing.T) {
	r := NewReport("run-1", framework.ReactPixi)
	r.RecordStage(StageNormalize, time.Millisecond, StageResultWarning)
	r.AddDiagnostics(Diagnostics{
		{Stage: StageNormalize, Severity: SeverityInfo, Code: "normalize.generic", Message: "removed"},
		{Stage: StageNormalize, Severity: SeverityWarning, Code: "normalize.enum", Message: "enum left untouched"},
	})
	r.Finish(nil)
	require.Equal(t, OutcomeWarning, r.Outcome)
	require.Len(t, r.Issues, 1)
	require.Len(t, r.Warnings(), 1)

	failed := NewReport("run-2", framework.React)
	failed.RecordStage(StageSubmit, time.Second, StageResultFatal)
	failed.Finish(&Failure{Kind: KindSubmissionRejected, Status: 503})
	require.Equal(t, OutcomeFailed, failed.Outcome)
	require.Equal(t, 503, failed.HTTPStatus)

	canceled := NewReport("run-3", framework.React)
	canceled.RecordStage(StageSubmit, 0, StageResultCanceled)
	canceled.Finish(&Failure{Kind: KindTransportError, Err: context.Canceled})
	require.Equal(t, OutcomeCanceled, canceled.Outcome)
}

func TestReporter(t *testing.T) {
	r := NewReporter(StageRepair)
	r.Info(3, "structure.orphan_closer", "removed orphaned %q", ")")
	r.Error(0, "structure.imbalance", "unbalanced")
	ds := r.Diagnostics()
	require.Len(t, ds, 2)
	require.True(t, ds.HasErrors())
	require.Equal(t, 1, ds.Count(SeverityInfo))
	require.Equal(t, `repair:3: info: removed orphaned ")" [structure.orphan_closer]`, ds[0].String())
}
