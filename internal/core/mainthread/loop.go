// Package mainthread runs work on one designated OS thread.
//
// Run locks its goroutine to the current OS thread. To make that thread the
// process main thread, call runtime.LockOSThread from an init func and call
// Run from main.
package mainthread

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/l1jgo/nonsend/internal/core/ecs"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("mainthread: loop closed")

// Loop executes submitted funcs in order on a single locked thread. When bound
// to a world, the loop holds the world's Owner and hands it to every func it
// runs; nothing else can reach the world's non-send resources.
type Loop struct {
	calls     chan func()
	done      chan struct{}
	closeOnce sync.Once
	owner     *ecs.Owner
	log       *zap.Logger
}

func New(queueSize int, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		calls: make(chan func(), queueSize),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Bind claims w's owner token for the loop. Call before Run. It fails with
// ecs.ErrOwnerClaimed when something else already owns w.
func (l *Loop) Bind(w *ecs.World) error {
	o, err := w.ClaimOwner()
	if err != nil {
		return fmt.Errorf("bind world: %w", err)
	}
	l.owner = o
	return nil
}

// Run processes calls until ctx is cancelled or Close is called. It returns
// ctx.Err() on cancellation and nil on Close.
func (l *Loop) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.log.Debug("main thread loop started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.calls:
			fn()
		}
	}
}

// Go submits fn without waiting for it. fn receives the bound world's Owner,
// or nil on an unbound loop. A panic in fn kills the loop, same as any
// goroutine.
func (l *Loop) Go(fn func(o *ecs.Owner)) error {
	return l.submit(context.Background(), func() { fn(l.owner) })
}

// Call runs fn on the loop and waits for it to return. fn receives the bound
// world's Owner, or nil on an unbound loop. A panic in fn is recovered and
// returned as an error.
//
// Call must not be used from a func already running on the loop: the loop
// cannot pick up the new call until the current one returns, so the caller
// blocks until ctx is done. Use the Owner it was handed instead.
func (l *Loop) Call(ctx context.Context, fn func(o *ecs.Owner)) error {
	result := make(chan error, 1)
	wrapped := func() {
		defer func() {
			if r := recover(); r != nil {
				l.log.Error("main thread call panicked", zap.Any("panic", r))
				result <- fmt.Errorf("mainthread: call panicked: %v", r)
			}
		}()
		fn(l.owner)
		result <- nil
	}
	if err := l.submit(ctx, wrapped); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) submit(ctx context.Context, fn func()) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.calls <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop. Pending calls are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}
