package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const reply = "Here is the scene you asked for.\n\n" +
	"```bash\nnpm install three\n```\n\n" +
	"```jsx\nimport { Canvas } from '@react-three/fiber';\n\nexport default function App() {\n  return <Canvas />;\n}\n```\n\n" +
	"And a helper:\n\n" +
	"```js\nconst x = 1;\n```\n"

func TestBlocks(t *testing.T) {
	blocks := Blocks([]byte(reply))
	require.Len(t, blocks, 3)
	require.Equal(t, "bash", blocks[0].Language)
	require.Equal(t, "jsx", blocks[1].Language)
	require.Equal(t, 8, blocks[1].Line)
	require.Contains(t, blocks[1].Code, "<Canvas />")
}

func TestCodePicksLargestScriptBlock(t *testing.T) {
	b, err := Code([]byte(reply))
	require.NoError(t, err)
	require.Equal(t, "jsx", b.Language)
	require.Equal(t, "import { Canvas } from '@react-three/fiber';\n\nexport default function App() {\n  return <Canvas />;\n}\n", b.Code)
}

func TestCodeWithoutBlocks(t *testing.T) {
	tests := []string{
		"just prose",
		"```python\nprint(1)\n```\n",
		"```tsx\n\n```\n",
	}
	for _, in := range tests {
		_, err := Code([]byte(in))
		require.ErrorIs(t, err, ErrNoCodeBlock, in)
	}
}

func TestIsMarkdown(t *testing.T) {
	require.True(t, IsMarkdown("reply.MD"))
	require.True(t, IsMarkdown("a/b.markdown"))
	require.False(t, IsMarkdown("scene.jsx"))
}
