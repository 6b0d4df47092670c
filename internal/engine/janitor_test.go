package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aevon-lab/rule-engine/internal/core/window"
	"github.com/stretchr/testify/require"
)

type scriptedSweeper struct {
	calls  atomic.Int64
	panics atomic.Int64
}

func (s *scriptedSweeper) Sweep() window.SweepStats {
	n := s.calls.Add(1)
	if n <= s.panics.Load() {
		panic("iteration failed")
	}
	return window.SweepStats{Devices: 1, Evicted: 1}
}

func TestJanitor_RunOnceRecoversPanic(t *testing.T) {
	s := &scriptedSweeper{}
	s.panics.Store(1)
	j := newJanitor(s, time.Minute)

	_, err := j.RunOnce()
	require.ErrorIs(t, err, errSweepPanic)

	stats, err := j.RunOnce()
	require.NoError(t, err)
	require.Equal(t, 1, stats.Evicted)
}

func TestJanitor_StartKeepsTickingAfterFailure(t *testing.T) {
	s := &scriptedSweeper{}
	s.panics.Store(2)
	j := newJanitor(s, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Start(ctx) }()

	require.Eventually(t, func() bool { return s.calls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after cancellation")
	}
}

func TestJanitor_DefaultInterval(t *testing.T) {
	j := newJanitor(&scriptedSweeper{}, 0)
	require.Equal(t, DefaultJanitorInterval, j.interval)
}

func TestJanitor_SweepsEngineStore(t *testing.T) {
	eng, clock := newTestEngine(t, 3, &recordingSink{})
	_, err := eng.OnEnvelope(context.Background(), envelope("gone", number(1), clock.Now(), 1))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	stats, err := NewJanitor(eng, time.Minute).RunOnce()
	require.NoError(t, err)
	require.Equal(t, 1, stats.Removed)
	require.Equal(t, 0, eng.Store().Len())
}
