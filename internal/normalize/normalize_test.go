package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sandboxer/internal/models"
)

func run(text string) models.StageOutcome {
	return Run(models.StageOutcome{Text: text})
}

func TestNestedGenericsReachFixedPoint(t *testing.T) {
	out := run("const meshes = useRef<Array<Mesh | null>>([]);\n")
	require.Equal(t, "const meshes = useRef([]);\n", out.Text)
	require.True(t, out.Changed)
	require.False(t, out.HasErrors())
}

func TestStripsTypeScriptComponent(t *testing.T) {
	src := `import React, { useRef, useState } from 'react';
import type { Mesh } from 'three';

interface BoxProps {
  position: [number, number, number];
  color?: string;
}

type Mode = 'spin' | 'idle';

function Box({ position, color = 'orange' }: BoxProps): JSX.Element {
  const ref = useRef<Mesh>(null!);
  const [hovered, setHovered] = useState<boolean>(false);
  const speed: number = 0.01;
  useFrame((state, delta: number) => {
    ref.current!.rotation.x += delta * speed;
  });
  return <mesh ref={ref} position={position} onClick={(e: any) => setHovered(!hovered)} />;
}
`
	out := run(src)

	require.Contains(t, out.Text, "import React, { useRef, useState } from 'react';")
	require.NotContains(t, out.Text, "import type")
	require.NotContains(t, out.Text, "interface")
	require.NotContains(t, out.Text, "type Mode")
	require.Contains(t, out.Text, "function Box({ position, color = 'orange' }) {")
	require.Contains(t, out.Text, "const ref = useRef(null);")
	require.Contains(t, out.Text, "useState(false)")
	require.Contains(t, out.Text, "const speed = 0.01;")
	require.Contains(t, out.Text, "useFrame((state, delta) => {")
	require.Contains(t, out.Text, "ref.current.rotation.x += delta * speed;")
	require.Contains(t, out.Text, "onClick={(e) => setHovered(!hovered)}")
	require.Empty(t, out.Diagnostics.BySeverity(models.SeverityWarning))
	require.NotEmpty(t, out.Diagnostics.BySeverity(models.SeverityInfo))
}

func TestIdempotent(t *testing.T) {
	inputs := []string{
		"const meshes = useRef<Array<Mesh | null>>([]);\n",
		"function f(a: number, b?: string): void {\n  return;\n}\n",
		"const el = document.getElementById('root') as HTMLElement;\nel!.focus();\n",
		"class Counter extends React.Component<Props, State> implements Foo {\n  private count: number = 0;\n  state: State = { n: 0 };\n  handle = (e: Event): void => {};\n}\n",
		"enum Color { Red, Green }\nabstract class Shape {}\nconst c = Color.Red;\n",
	}
	for _, in := range inputs {
		first := run(in)
		require.NotEmpty(t, first.Diagnostics, in)
		second := run(first.Text)
		require.Equal(t, first.Text, second.Text, in)
		require.False(t, second.Changed, in)
		require.Empty(t, second.Diagnostics, in)
	}
}

func TestComparisonsAreNotGenerics(t *testing.T) {
	src := "if (a < b && c > d) { x = i<n; }\nconst ok = count<3 && <Box />;\n"
	out := run(src)
	require.Equal(t, src, out.Text)
	require.False(t, out.Changed)
}

func TestLiteralsAreUntouched(t *testing.T) {
	src := "const s = \"a: number\";\nconst o = { a: 1, b: 'x as string' };\nconst t = `<Array<T>>`;\n"
	out := run(src)
	require.Equal(t, src, out.Text)
}

func TestCasts(t *testing.T) {
	out := run("const el = document.getElementById('root') as HTMLElement;\nconst v = (e.target as HTMLInputElement).value;\nconst c = ['a', 'b'] as const;\nimport { a as b } from 'x';\n")
	require.Equal(t, "const el = document.getElementById('root');\nconst v = (e.target).value;\nconst c = ['a', 'b'];\nimport { a as b } from 'x';\n", out.Text)
}

func TestDoubleCast(t *testing.T) {
	out := run("const x = y as unknown as Foo;\n")
	require.Equal(t, "const x = y;\n", out.Text)
}

func TestClassMembers(t *testing.T) {
	src := "class Counter extends React.Component<Props, State> implements Foo {\n  private count: number = 0;\n  state: State = { n: 0 };\n  handle = (e: Event): void => {};\n  render() { return null; }\n}\n"
	out := run(src)
	require.Equal(t, "class Counter extends React.Component {\n  count = 0;\n  state = { n: 0 };\n  handle = (e) => {};\n  render() { return null; }\n}\n", out.Text)
}

func TestMultilineTypeAlias(t *testing.T) {
	src := "type Shape =\n  | 'box'\n  | 'sphere';\nconst s = 'box';\n"
	out := run(src)
	require.Equal(t, "const s = 'box';\n", out.Text)
}

func TestUnsupportedConstructsWarn(t *testing.T) {
	src := "enum Color { Red, Green }\nnamespace Util {\n  export const x = 1;\n}\n"
	out := run(src)
	require.Equal(t, untouchedMarker+"enum Color { Red, Green }\n"+untouchedMarker+"namespace Util {\n  export const x = 1;\n}\n", out.Text)
	warnings := out.Diagnostics.BySeverity(models.SeverityWarning)
	require.Len(t, warnings, 2)
	require.Equal(t, "normalize.enum", warnings[0].Code)
	require.Equal(t, 1, warnings[0].Line)
	require.Equal(t, "normalize.namespace", warnings[1].Code)
	require.False(t, out.HasErrors())
}

func TestUnterminatedInterfaceWarns(t *testing.T) {
	src := "interface Props {\n  a: string;\n"
	out := run(src)
	require.Equal(t, src, out.Text)
	require.Equal(t, "normalize.unterminated_interface", out.Diagnostics.BySeverity(models.SeverityWarning)[0].Code)
}

func TestUnicodeCleanup(t *testing.T) {
	out := run("\uFEFFconst a\u00A0= 1;\u200B\r\n")
	require.Equal(t, "const a = 1;\n", out.Text)
	require.Equal(t, "normalize.unicode", out.Diagnostics[0].Code)
}

func TestArrowTypeParameters(t *testing.T) {
	out := run("const id = <T,>(x: T): T => x;\n")
	require.Equal(t, "const id = (x) => x;\n", out.Text)
}

func TestOptionalParameterWithDefault(t *testing.T) {
	out := run("function f(a?: number, { b }: Opts = {}, ...rest: string[]) {}\n")
	require.Equal(t, "function f(a, { b } = {}, ...rest) {}\n", out.Text)
}

func TestControlStatementsKeepParens(t *testing.T) {
	src := "switch (mode) {\n  case (x): {\n    break;\n  }\n}\nwhile (running) { tick(); }\n"
	out := run(src)
	require.Equal(t, src, out.Text)
	require.False(t, strings.Contains(out.Text, "case (x) {"))
}

func TestJSXTextKeepsProse(t *testing.T) {
	src := "function App() {\n  return (\n    <p>\n      Click the cube to see it change as well\n    </p>\n  );\n}\n"
	out := run(src)
	require.Equal(t, src, out.Text)
	require.Empty(t, out.Diagnostics)
}

func TestJSXTextKeepsExclamation(t *testing.T) {
	src := "const App = () => <h1>Hello world!\n  {count! + 1}</h1>;\n"
	out := run(src)
	require.Equal(t, "const App = () => <h1>Hello world!\n  {count + 1}</h1>;\n", out.Text)
}

func TestNonNullAssertions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"member", "el!.focus();\n", "el.focus();\n"},
		{"binary operand", "const y = x! + 1;\n", "const y = x + 1;\n"},
		{"jsx container", "const a = <div>{x!}</div>;\n", "const a = <div>{x}</div>;\n"},
		{"nullish", "const v = a! ?? b;\n", "const v = a ?? b;\n"},
		{"call result", "const n = get()!.length;\n", "const n = get().length;\n"},
		{"inequality kept", "if (a!==b && c!=d) {}\n", "if (a!==b && c!=d) {}\n"},
		{"logical not kept", "if (!ok) { return!ok; }\n", "if (!ok) { return!ok; }\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, run(tt.in).Text)
		})
	}
}
