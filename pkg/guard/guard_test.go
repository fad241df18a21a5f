package guard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitGuard_OverlappingOperations(t *testing.T) {
	g := NewExitGuard()
	assert.False(t, g.Active())

	g.Acquire("op-1")
	g.Acquire("op-2")
	assert.True(t, g.Active())
	assert.Equal(t, []string{"op-1", "op-2"}, g.ActiveIDs())

	// The first operation finishing must not clear the guard for the second.
	g.Release("op-1")
	assert.True(t, g.Active())
	assert.True(t, g.Holds("op-2"))
	assert.False(t, g.Holds("op-1"))

	g.Release("op-2")
	assert.False(t, g.Active())
}

func TestExitGuard_ReleaseIsIdempotent(t *testing.T) {
	g := NewExitGuard()
	g.Release("unknown")
	assert.False(t, g.Active())

	g.Acquire("op")
	g.Acquire("op")
	g.Release("op")
	g.Release("op")
	assert.False(t, g.Active())
}

func TestExitGuard_Wait(t *testing.T) {
	g := NewExitGuard()
	require.NoError(t, g.Wait(context.Background()))

	g.Acquire("op")
	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Wait returned while guard held")
	case <-time.After(20 * time.Millisecond):
	}

	g.Release("op")
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after release")
	}

	g.Acquire("op2")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)
}

func TestExitGuard_Concurrent(t *testing.T) {
	g := NewExitGuard()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			op := string(rune('a' + id%26))
			g.Acquire(op + "-x")
			g.Release(op + "-x")
		}(i)
	}
	wg.Wait()
	assert.False(t, g.Active())
}

func TestInflight(t *testing.T) {
	f := NewInflight()

	require.NoError(t, f.TryAcquire("I1", "op-1"))
	assert.True(t, f.Busy("I1"))

	err := f.TryAcquire("I1", "op-2")
	assert.ErrorIs(t, err, pkgerrors.ErrOperationInFlight)

	require.NoError(t, f.TryAcquire("I2", "op-3"))

	// Only the holder may release.
	f.Release("I1", "op-2")
	assert.True(t, f.Busy("I1"))
	f.Release("I1", "op-1")
	assert.False(t, f.Busy("I1"))
	require.NoError(t, f.TryAcquire("I1", "op-4"))
}

func TestShutdownHandler_IdleExitsImmediately(t *testing.T) {
	g := NewExitGuard()
	var exited atomic.Bool
	h := NewShutdownHandler(g, nil, func() { exited.Store(true) })

	assert.True(t, h.RequestExit(context.Background()))
	assert.True(t, exited.Load())
}

func TestShutdownHandler_DefersWhileActive(t *testing.T) {
	g := NewExitGuard()
	g.Acquire("op")

	var hidden atomic.Int32
	exited := make(chan struct{})
	h := NewShutdownHandler(g, func() { hidden.Add(1) }, func() { close(exited) })

	assert.False(t, h.RequestExit(context.Background()))
	assert.False(t, h.RequestExit(context.Background()))
	assert.True(t, h.Pending())
	assert.Equal(t, int32(1), hidden.Load())

	select {
	case <-exited:
		t.Fatal("exited while guard held")
	case <-time.After(20 * time.Millisecond):
	}

	g.Release("op")
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("deferred exit never ran")
	}
}

func TestShutdownHandler_DeferredExitAbandoned(t *testing.T) {
	g := NewExitGuard()
	g.Acquire("op")

	var exited atomic.Bool
	h := NewShutdownHandler(g, nil, func() { exited.Store(true) })

	ctx, cancel := context.WithCancel(context.Background())
	assert.False(t, h.RequestExit(ctx))
	cancel()

	require.Eventually(t, func() bool { return !h.Pending() }, time.Second, 5*time.Millisecond)
	assert.False(t, exited.Load())
}
