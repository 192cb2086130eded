package mainthread

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/l1jgo/nonsend/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type surface struct{ id int }

func start(t *testing.T, l *Loop) (context.Context, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	return ctx, errc
}

func TestCallRunsInOrder(t *testing.T) {
	l := New(8, nil)
	ctx, _ := start(t, l)

	var mu sync.Mutex
	var got []int
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Go(func(*ecs.Owner) {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, l.Call(ctx, func(*ecs.Owner) {}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestCallRecoversPanic(t *testing.T) {
	l := New(1, nil)
	ctx, _ := start(t, l)

	err := l.Call(ctx, func(*ecs.Owner) { panic("bad") })
	assert.ErrorContains(t, err, "bad")

	assert.NoError(t, l.Call(ctx, func(*ecs.Owner) {}), "loop survives a panicking call")
}

func TestBoundLoopOwnsWorld(t *testing.T) {
	w := ecs.NewWorld()
	l := New(1, nil)
	require.NoError(t, l.Bind(w))
	ctx, _ := start(t, l)

	_, err := w.ClaimOwner()
	assert.ErrorIs(t, err, ecs.ErrOwnerClaimed)
	assert.ErrorIs(t, New(1, nil).Bind(w), ecs.ErrOwnerClaimed)

	require.NoError(t, l.Call(ctx, func(o *ecs.Owner) {
		ecs.InsertNonSend(o, surface{id: 2})
	}))
	var id int
	require.NoError(t, l.Call(ctx, func(o *ecs.Owner) {
		s, _ := ecs.GetNonSend[surface](o)
		id = s.id
	}))
	assert.Equal(t, 2, id)
}

func TestUnboundLoopPassesNilOwner(t *testing.T) {
	l := New(1, nil)
	ctx, _ := start(t, l)

	var got *ecs.Owner
	require.NoError(t, l.Call(ctx, func(o *ecs.Owner) { got = o }))
	assert.Nil(t, got)
}

// While the loop is busy, another goroutine can neither claim the world nor
// apply its queue; whatever it queues runs later on the loop.
func TestBusyLoopKeepsOwnership(t *testing.T) {
	w := ecs.NewWorld()
	cmds := ecs.NewCommands()
	l := New(2, nil)
	require.NoError(t, l.Bind(w))
	ctx, _ := start(t, l)

	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, l.Go(func(*ecs.Owner) {
		close(entered)
		<-release
	}))
	<-entered

	pushed := make(chan struct{})
	var applied atomic.Bool
	var claimErr error
	go func() {
		defer close(pushed)
		_, claimErr = w.ClaimOwner()
		cmds.Push(ecs.CommandFunc(func(o *ecs.Owner) {
			ecs.InsertNonSend(o, surface{id: 7})
			applied.Store(true)
		}))
	}()
	<-pushed
	assert.ErrorIs(t, claimErr, ecs.ErrOwnerClaimed)
	assert.False(t, applied.Load(), "queued command must wait for the owner")
	assert.Equal(t, 1, cmds.Len())

	close(release)
	var applyErr error
	var id int
	require.NoError(t, l.Call(ctx, func(o *ecs.Owner) {
		applyErr = cmds.Apply(o)
		s, _ := ecs.GetNonSend[surface](o)
		id = s.id
	}))
	require.NoError(t, applyErr)
	assert.True(t, applied.Load())
	assert.Equal(t, 7, id)
}

func TestCloseStopsLoop(t *testing.T) {
	l := New(1, nil)
	ctx, errc := start(t, l)

	require.NoError(t, l.Call(ctx, func(*ecs.Owner) {}))
	l.Close()
	l.Close()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.True(t, errors.Is(l.Go(func(*ecs.Owner) {}), ErrClosed))
	assert.ErrorIs(t, l.Call(ctx, func(*ecs.Owner) {}), ErrClosed)
}

func TestRunReturnsOnCancel(t *testing.T) {
	l := New(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
