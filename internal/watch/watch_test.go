package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type calls struct {
	mu    sync.Mutex
	paths []string
}

func (c *calls) handle(_ context.Context, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, filepath.Base(path))
}

func (c *calls) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	var got calls
	w, err := New([]string{dir}, 100*time.Millisecond, got.handle, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	scene := filepath.Join(dir, "scene.jsx")
	for i := range 3 {
		require.NoError(t, os.WriteFile(scene, []byte{byte('a' + i)}, 0o600))
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scene.jsx.swp"), []byte("x"), 0o600))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, []string{"scene.jsx"}, got.snapshot())

	cancel()
	require.NoError(t, <-done)
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "absent")}, time.Millisecond, func(context.Context, string) {}, nil)
	require.Error(t, err)
}
