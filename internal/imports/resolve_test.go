package imports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

var catalog = framework.MustLoadCatalog()

func resolve(t *testing.T, fw framework.Name, text string) models.StageOutcome {
	t.Helper()
	def, err := catalog.Definition(fw)
	require.NoError(t, err)
	return Resolve(models.StageOutcome{Text: text}, def)
}

func codes(ds models.Diagnostics) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func TestReplacesUnrelatedImportWithUsedComponents(t *testing.T) {
	src := `import { Something } from 'unrelated';

function Shapes() {
  return (
    <group>
      <Sphere />
      <Box />
    </group>
  );
}
`
	out := resolve(t, framework.ReactThreeFiber, src)

	want := `import { Box, Sphere } from '@react-three/drei';

function Shapes() {
  return (
    <group>
      <Sphere />
      <Box />
    </group>
  );
}
`
	require.Equal(t, want, out.Text)
	require.Equal(t, []string{"@react-three/drei"}, out.Manifest.Modules())
	require.Equal(t, []string{"Box", "Sphere"}, out.Manifest.Identifiers())
	require.Contains(t, codes(out.Diagnostics), "imports.unknown_module")
	require.Contains(t, codes(out.Diagnostics), "imports.rewritten")
	require.False(t, out.HasErrors())
}

func TestBuildsImportsAcrossModules(t *testing.T) {
	src := `import React, { useRef } from 'react';
import { Canvas, useFrame } from 'react-three-fiber';
import * as THREE from 'three';

function Spinner() {
  const ref = useRef();
  useFrame(() => { ref.current.rotation.y += 0.01; });
  const color = new THREE.Color('hotpink');
  return <mesh ref={ref}><boxGeometry /><meshStandardMaterial color={color} /></mesh>;
}

export default function App() {
  return (
    <Canvas>
      <Suspense fallback={null}>
        <Spinner />
        <OrbitControls />
      </Suspense>
    </Canvas>
  );
}
`
	out := resolve(t, framework.ReactThreeFiber, src)

	header := `import { OrbitControls } from '@react-three/drei';
import { Canvas, useFrame } from '@react-three/fiber';
import { Suspense, useRef } from 'react';
import * as THREE from 'three';

function Spinner() {`
	require.True(t, strings.HasPrefix(out.Text, header), out.Text)
	require.False(t, out.Manifest.Has("React"))
	require.Contains(t, codes(out.Diagnostics), "imports.legacy_module")
	require.NotContains(t, codes(out.Diagnostics), "imports.unknown_component")
	require.False(t, out.HasErrors())
}

func TestResolveIsIdempotent(t *testing.T) {
	src := `import { Stage } from '@inlet/react-pixi';

export const App = () => {
  const [x, setX] = useState(0);
  useTick(() => setX((v) => v + 1));
  return <Stage width={300}><Sprite x={x} texture={PIXI.Texture.WHITE} /></Stage>;
};
`
	first := resolve(t, framework.ReactPixi, src)
	require.Contains(t, first.Text, "import { Sprite, Stage, useTick } from '@pixi/react';\n")
	require.Contains(t, first.Text, "import * as PIXI from 'pixi.js';\n")
	require.Contains(t, first.Text, "import { useState } from 'react';\n")

	second := resolve(t, framework.ReactPixi, first.Text)
	require.Equal(t, first.Text, second.Text)
	require.False(t, second.Changed)
	require.NotContains(t, codes(second.Diagnostics), "imports.rewritten")
}

func TestLocalDeclarationsShadowCatalog(t *testing.T) {
	src := `function Box({ size }) {
  return <mesh scale={size} />;
}

const { Text: Label, Sky } = helpers;

export default function App() {
  return <Canvas><Box size={2} /><Label /><Sky /></Canvas>;
}
`
	out := resolve(t, framework.ReactThreeFiber, src)
	require.Equal(t, []string{"Canvas"}, out.Manifest.Identifiers())
	require.Empty(t, out.Diagnostics)
	require.Equal(t, "import { Canvas } from '@react-three/fiber';\n\n"+src, out.Text)
}

func TestUnknownTagIsReportedWithLine(t *testing.T) {
	src := "const App = () => (\n  <Engine>\n    <Scene>\n      <Hologram />\n    </Scene>\n  </Engine>\n);\n"
	out := resolve(t, framework.ReactBabylon, src)
	require.Equal(t, []string{"Engine", "Scene"}, out.Manifest.Identifiers())

	warns := out.Diagnostics.BySeverity(models.SeverityWarning)
	require.Len(t, warns, 1)
	require.Equal(t, "imports.unknown_component", warns[0].Code)
	require.Equal(t, 4, warns[0].Line)
}

func TestUnknownTagLineCountsRemovedImports(t *testing.T) {
	src := "import { Engine } from 'react-babylonjs';\nimport { Hologram } from 'react-babylonjs';\n\nconst App = () => (\n  <Engine>\n    <Hologram />\n  </Engine>\n);\n"
	out := resolve(t, framework.ReactBabylon, src)
	warns := out.Diagnostics.BySeverity(models.SeverityWarning)
	require.Len(t, warns, 1)
	require.Equal(t, 6, warns[0].Line)
}

func TestUsageKindRestrictsDetection(t *testing.T) {
	src := "export default function App() {\n  const Text = 'x';\n  const v = new Vector3(0, 1, 0);\n  return <Engine><Scene>{Vector3.Zero().x}</Scene></Engine>;\n}\n"
	out := resolve(t, framework.ReactBabylon, src)
	require.Equal(t, []string{"@babylonjs/core", "react-babylonjs"}, out.Manifest.Modules())
	require.Equal(t, []string{"Engine", "Scene", "Vector3"}, out.Manifest.Identifiers())

	// Hooks are only imported when called.
	out = resolve(t, framework.React, "export default function App() {\n  const useState = 1;\n  return <p>{useEffect}</p>;\n}\n")
	require.True(t, out.Manifest.Empty())
	require.False(t, out.HasErrors())
}

func TestEmptyManifestIsFatalWhenRootRequired(t *testing.T) {
	out := resolve(t, framework.ReactThreeFiber, "export default function App() {\n  return <div>hello</div>;\n}\n")
	require.True(t, out.HasErrors())
	require.Equal(t, "imports.empty_manifest", out.Diagnostics.BySeverity(models.SeverityError)[0].Code)

	out = resolve(t, framework.React, "export default function App() {\n  return <div>hello</div>;\n}\n")
	require.False(t, out.HasErrors())
	require.NotNil(t, out.Manifest)
}

func TestImportsFollowDirectivePrologue(t *testing.T) {
	src := "'use client';\nimport { useState } from \"react\";\nimport './styles.css';\n\nexport default function App() {\n  const [n] = useState(1);\n  return <b>{n}</b>;\n}\n"
	out := resolve(t, framework.React, src)
	want := "'use client';\nimport { useState } from 'react';\n\nexport default function App() {\n  const [n] = useState(1);\n  return <b>{n}</b>;\n}\n"
	require.Equal(t, want, out.Text)
	require.Empty(t, out.Diagnostics.BySeverity(models.SeverityWarning))
}

func TestDynamicImportAndStringsAreKept(t *testing.T) {
	src := "const mod = import('./lazy');\nconst s = \"import x from 'y';\";\nexport default function App() { return <Fragment>{s}</Fragment>; }\n"
	out := resolve(t, framework.React, src)
	require.Equal(t, "import { Fragment } from 'react';\n\n"+src, out.Text)
}

func TestRender(t *testing.T) {
	m := models.NewImportManifest()
	m.Add("react", models.ImportSpec{Name: "useState"})
	m.Add("react", models.ImportSpec{Name: "React", Default: true})
	m.Add("react", models.ImportSpec{Name: "useEffect"})
	m.Add("three", models.ImportSpec{Name: "THREE", Namespace: true})
	m.Add("@react-three/fiber", models.ImportSpec{Name: "Canvas"})

	want := "import { Canvas } from '@react-three/fiber';\n" +
		"import React, { useEffect, useState } from 'react';\n" +
		"import * as THREE from 'three';\n"
	require.Equal(t, want, Render(m))
	require.Empty(t, Render(models.NewImportManifest()))
}

func TestReactNamespaceUnderThreeFiber(t *testing.T) {
	src := "import React from 'react';\nimport { Canvas } from '@react-three/fiber';\n\nexport default function App() {\n  const [n, setN] = React.useState(0);\n  return <Canvas onClick={() => setN(n + 1)} />;\n}\n"
	out := resolve(t, framework.ReactThreeFiber, src)

	require.True(t, strings.HasPrefix(out.Text, "import { Canvas } from '@react-three/fiber';\nimport React from 'react';\n\nexport default function App() {"), out.Text)
	require.Equal(t, []string{"Canvas", "React"}, out.Manifest.Identifiers())
	require.Empty(t, out.Diagnostics.BySeverity(models.SeverityWarning))
}

func TestUnresolvedBindingIsReported(t *testing.T) {
	src := "import { Canvas } from '@react-three/fiber';\nimport { useSpring, animated } from '@react-spring/three';\n\nexport default function App() {\n  const props = useSpring({ scale: 1 });\n  return <Canvas>{props.scale}</Canvas>;\n}\n"
	out := resolve(t, framework.ReactThreeFiber, src)

	var unresolved []models.Diagnostic
	for _, d := range out.Diagnostics {
		if d.Code == "imports.unresolved_binding" {
			unresolved = append(unresolved, d)
		}
	}
	require.Len(t, unresolved, 1)
	require.Equal(t, 5, unresolved[0].Line)
	require.Contains(t, unresolved[0].Message, "useSpring")
	require.Contains(t, codes(out.Diagnostics), "imports.unknown_module")
	require.False(t, out.HasErrors())
}

func TestImportedNames(t *testing.T) {
	tests := []struct {
		stmt string
		want []string
	}{
		{"import React from 'react';", []string{"React"}},
		{"import React, { useState as useLocal, useEffect } from 'react';", []string{"useLocal", "useEffect", "React"}},
		{"import * as THREE from 'three';", []string{"THREE"}},
		{"import './styles.css';", nil},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, importedNames(tt.stmt), tt.stmt)
	}
}
