package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	calls  atomic.Int32
	maxAge atomic.Int64
}

func (f *fakePruner) Prune(_ context.Context, maxAge time.Duration) (int64, error) {
	f.calls.Add(1)
	f.maxAge.Store(int64(maxAge))
	return 3, nil
}

func TestScheduleEveryRunsPrune(t *testing.T) {
	s, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	p := &fakePruner{}
	id, err := s.ScheduleEvery(20*time.Millisecond, p, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	s.Start()
	require.Eventually(t, func() bool { return p.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
	require.Equal(t, int64(time.Hour), p.maxAge.Load())
}

func TestSchedulePruneRejectsBadCron(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer func() { _ = s.Stop() }()

	_, err = s.SchedulePrune("every now and then", &fakePruner{}, time.Hour)
	require.Error(t, err)

	_, err = s.SchedulePrune("*/30 * * * *", &fakePruner{}, time.Hour)
	require.NoError(t, err)
}
