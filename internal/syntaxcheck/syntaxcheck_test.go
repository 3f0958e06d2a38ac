package syntaxcheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanSourceHasNoProblems(t *testing.T) {
	src := `import { Canvas } from '@react-three/fiber';

function App() {
  const items = [1, 2, 3];
  return (
    <Canvas>
      {items.map((i) => <mesh key={i} position={[i, 0, 0]} />)}
    </Canvas>
  );
}

export default App;
`
	problems, err := Check(context.Background(), src)
	require.NoError(t, err)
	require.Empty(t, problems)
}

func TestReportsBrokenSource(t *testing.T) {
	src := "function App() {\n  return <div>;\n}\n\nconst x = (1 + ;\n"
	problems, err := Check(context.Background(), src)
	require.NoError(t, err)
	require.NotEmpty(t, problems)
	require.LessOrEqual(t, len(problems), MaxProblems)
	for _, p := range problems {
		require.GreaterOrEqual(t, p.Line, 1)
		require.NotEmpty(t, p.String())
	}
}
