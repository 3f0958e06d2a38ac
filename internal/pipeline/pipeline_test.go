package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/sandboxer/internal/assemble"
	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/models"
	"git.home.luguber.info/inful/sandboxer/internal/structure"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var catalog = framework.MustLoadCatalog()

const tsxScene = `import React, { useRef } from 'react';
import { Canvas, useFrame } from '@react-three/fiber';
import type { Mesh } from 'three';

interface SpinnerProps {
  speed: number;
}

function Spinner({ speed }: SpinnerProps) {
  const ref = useRef<Mesh>(null);
  useFrame(() => {
    if (ref.current) ref.current.rotation.y += speed;
  });
  return (
    <mesh ref={ref}>
      <boxGeometry />
      <meshStandardMaterial color="orange" />
    </mesh>
  );
}

export default function App() {
  return (
    <Canvas>
      <ambientLight />
      <Spinner speed={0.01} />
      <OrbitControls />
    </Canvas>
  );
}

ReactDOM.render(<App />, document.getElementById('root'));
`

type fakeSubmitter struct {
	mu      sync.Mutex
	bundles []*models.Bundle
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, b *models.Bundle) (*models.SubmissionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bundles = append(f.bundles, b)
	if f.err != nil {
		return nil, f.err
	}
	return &models.SubmissionResult{ViewerURL: "https://sandbox.test/s/abc123", RawIdentifier: "abc123", HTTPStatus: 200}, nil
}

func (f *fakeSubmitter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bundles)
}

type recordingObserver struct {
	mu      sync.Mutex
	started []models.StageName
	results map[models.StageName]models.StageResult
	report  *models.Report
}

func (o *recordingObserver) OnStageStart(s models.StageName) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, s)
}

func (o *recordingObserver) OnStageComplete(s models.StageName, _ time.Duration, r models.StageResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		o.results = map[models.StageName]models.StageResult{}
	}
	o.results[s] = r
}

func (o *recordingObserver) OnRunComplete(r *models.Report) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report = r
}

func newPipeline(sub Submitter, obs models.RunObserver) *Pipeline {
	opts := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAssembler(assemble.New(assemble.WithChecker(nil))),
		WithRunIDs(func() string { return "run-1" }),
	}
	if sub != nil {
		opts = append(opts, WithSubmitter(sub))
	}
	if obs != nil {
		opts = append(opts, WithObserver(obs))
	}
	return New(catalog, opts...)
}

func failureOf(t *testing.T, err error) *models.Failure {
	t.Helper()
	f, ok := err.(*models.Failure)
	require.True(t, ok, "expected *models.Failure, got %T", err)
	return f
}

func TestProcessEndToEnd(t *testing.T) {
	sub := &fakeSubmitter{}
	obs := &recordingObserver{}
	res, err := newPipeline(sub, obs).Process(context.Background(), tsxScene, framework.ReactThreeFiber)
	require.NoError(t, err)
	require.Equal(t, "https://sandbox.test/s/abc123", res.ViewerURL)
	require.Equal(t, "run-1", res.RunID)
	require.Equal(t, 1, sub.calls())

	b := sub.bundles[0]
	require.True(t, b.Verified)
	require.Equal(t, b.Hash(), res.BundleHash)
	entry, ok := b.Entry()
	require.True(t, ok)
	require.NotContains(t, entry.Content, "interface")
	require.NotContains(t, entry.Content, "ReactDOM")
	require.NotContains(t, entry.Content, "<Mesh>")
	require.Contains(t, entry.Content, "import { OrbitControls } from '@react-three/drei';\n")
	require.Contains(t, entry.Content, "import { Canvas, useFrame } from '@react-three/fiber';\n")
	require.Contains(t, entry.Content, "import { useRef } from 'react';\n")
	require.Contains(t, entry.Content, "\n\nexport default App;\n")
	require.Zero(t, len(structure.Measure(entry.Content).Unbalanced()))

	require.Equal(t, models.StageOrder(), obs.started)
	require.Equal(t, models.OutcomeSuccess, obs.report.Outcome)
	require.Equal(t, "https://sandbox.test/s/abc123", obs.report.ViewerURL)
	require.Empty(t, res.WarningKind)
}

func TestManifestSoundness(t *testing.T) {
	inputs := map[framework.Name]string{
		framework.ReactThreeFiber: tsxScene,
		framework.ReactPixi:       "export const App = () => <Stage><Sprite image=\"a.png\" /><Legacy /></Stage>;\n",
		framework.ReactBabylon:    "function App() {\n  const pos = new Vector3(0, 1, 0);\n  return <Engine><Scene><Fancy position={pos} /></Scene></Engine>;\n}\n",
		framework.React:           "import React from 'react';\nfunction App() {\n  const [n, setN] = React.useState(0);\n  return <Widget onClick={() => setN(n + 1)} />;\n}\n",
	}
	p := newPipeline(nil, nil)
	for fw, src := range inputs {
		prep, err := p.Prepare(context.Background(), src, fw)
		require.NoError(t, err, fw)
		def, _ := catalog.Definition(fw)
		for _, id := range prep.Manifest.Identifiers() {
			_, ok := def.Lookup(id)
			require.True(t, ok, "%s: %s not in catalog", fw, id)
		}
	}
}

func TestPrepareIsDeterministic(t *testing.T) {
	p := newPipeline(nil, nil)
	a, err := p.Prepare(context.Background(), tsxScene, framework.ReactThreeFiber)
	require.NoError(t, err)
	b, err := p.Prepare(context.Background(), tsxScene, framework.ReactThreeFiber)
	require.NoError(t, err)
	require.Equal(t, a.Bundle.Hash(), b.Bundle.Hash())
	require.Equal(t, a.Bundle.Files(), b.Bundle.Files())
}

func TestStructuralImbalanceBlocksSubmission(t *testing.T) {
	src := "function App() {\n  return <Canvas><Box /></Canvas>;\n"
	sub := &fakeSubmitter{}
	p := newPipeline(sub, nil)

	prep, err := p.Prepare(context.Background(), src, framework.ReactThreeFiber)
	require.NoError(t, err)
	require.False(t, prep.Bundle.Verified)
	require.False(t, prep.Report.Verified)
	require.True(t, prep.Diagnostics.HasErrors())

	_, err = p.Process(context.Background(), src, framework.ReactThreeFiber)
	f := failureOf(t, err)
	require.Equal(t, models.KindStructuralImbalance, f.Kind)
	require.Equal(t, models.StageRepair, f.Stage)
	require.Equal(t, "structure.imbalance", f.Diagnostics[0].Code)
	require.Zero(t, sub.calls())
}

func TestAbortingStageSupersedesImbalance(t *testing.T) {
	src := "function App() {\n  return <div>hello</div>;\n"
	sub := &fakeSubmitter{}
	p := newPipeline(sub, nil)

	_, prepErr := p.Prepare(context.Background(), src, framework.ReactThreeFiber)
	_, procErr := p.Process(context.Background(), src, framework.ReactThreeFiber)
	for _, err := range []error{prepErr, procErr} {
		f := failureOf(t, err)
		require.Equal(t, models.KindEmptyComponentManifest, f.Kind)
		require.Equal(t, models.StageResolveImports, f.Stage)
		var codes []string
		for _, d := range f.Diagnostics {
			codes = append(codes, d.Code)
		}
		require.Equal(t, []string{"imports.empty_manifest", "structure.imbalance"}, codes)
	}
	require.Zero(t, sub.calls())
}

func TestHardFailuresAbortBeforeSubmission(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		kind  models.FailureKind
		stage models.StageName
	}{
		{
			name:  "empty manifest",
			src:   "export default function App() {\n  return <div />;\n}\n",
			kind:  models.KindEmptyComponentManifest,
			stage: models.StageResolveImports,
		},
		{
			name:  "no entry point",
			src:   "function Scene() {\n  return <group><Box /></group>;\n}\n",
			kind:  models.KindNoEntryPointCandidate,
			stage: models.StageEntryPoint,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := &fakeSubmitter{}
			obs := &recordingObserver{}
			_, err := newPipeline(sub, obs).Process(context.Background(), tc.src, framework.ReactThreeFiber)
			f := failureOf(t, err)
			require.Equal(t, tc.kind, f.Kind)
			require.Equal(t, tc.stage, f.Stage)
			require.NotEmpty(t, f.Diagnostics)
			require.Zero(t, sub.calls())
			require.Equal(t, tc.stage, obs.started[len(obs.started)-1])
			require.Equal(t, models.OutcomeFailed, obs.report.Outcome)
			require.Equal(t, tc.kind, obs.report.FailureKind)
		})
	}
}

func TestSubmissionFailurePropagates(t *testing.T) {
	sub := &fakeSubmitter{err: &models.Failure{Kind: models.KindSubmissionRejected, Status: 503, Excerpt: "Service Unavailable"}}
	obs := &recordingObserver{}
	_, err := newPipeline(sub, obs).Process(context.Background(), tsxScene, framework.ReactThreeFiber)
	f := failureOf(t, err)
	require.Equal(t, models.KindSubmissionRejected, f.Kind)
	require.Equal(t, models.StageSubmit, f.Stage)
	require.Equal(t, 503, f.Status)
	require.Equal(t, 1, sub.calls())
	require.Equal(t, models.StageResultFatal, obs.results[models.StageSubmit])
	require.Equal(t, 503, obs.report.HTTPStatus)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	obs := &recordingObserver{}
	_, err := newPipeline(&fakeSubmitter{}, obs).Process(ctx, tsxScene, framework.ReactThreeFiber)
	f := failureOf(t, err)
	require.Equal(t, models.KindTransportError, f.Kind)
	require.Equal(t, models.StageNormalize, f.Stage)
	require.ErrorIs(t, f.Err, context.Canceled)
	require.Equal(t, models.OutcomeCanceled, obs.report.Outcome)
}

func TestUnsupportedFramework(t *testing.T) {
	_, err := newPipeline(&fakeSubmitter{}, nil).Process(context.Background(), tsxScene, framework.Name("vue"))
	require.Equal(t, models.KindUnsupportedFramework, failureOf(t, err).Kind)
}

func TestMissingSubmitter(t *testing.T) {
	_, err := newPipeline(nil, nil).Process(context.Background(), tsxScene, framework.ReactThreeFiber)
	f := failureOf(t, err)
	require.Equal(t, models.KindTransportError, f.Kind)
	require.ErrorIs(t, f.Err, errNoSubmitter)
}

func TestNormalizationWarningsAreNonFatal(t *testing.T) {
	src := "enum Mode { A, B }\n\nexport default function App() {\n  return <Canvas />;\n}\n"
	res, err := newPipeline(&fakeSubmitter{}, nil).Process(context.Background(), src, framework.ReactThreeFiber)
	require.NoError(t, err)
	require.Equal(t, models.KindNormalizationWarningOnly, res.WarningKind)
	require.NotEmpty(t, res.Warnings)
	require.Equal(t, models.StageNormalize, res.Warnings[0].Stage)
}

func TestMultiObserverFansOut(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	m := MultiObserver{a, b}
	m.OnStageStart(models.StageNormalize)
	m.OnStageComplete(models.StageNormalize, time.Millisecond, models.StageResultSuccess)
	m.OnRunComplete(&models.Report{RunID: "x"})
	for _, o := range []*recordingObserver{a, b} {
		require.Equal(t, []models.StageName{models.StageNormalize}, o.started)
		require.Equal(t, models.StageResultSuccess, o.results[models.StageNormalize])
		require.Equal(t, "x", o.report.RunID)
	}
}
