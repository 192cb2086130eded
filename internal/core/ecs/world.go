package ecs

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var ErrOwnerClaimed = errors.New("ecs: world owner already claimed")

// Owner is the capability to touch a world's non-send resources and apply
// its commands. Exactly one exists per world; pass it only to code running
// on the designated thread.
type Owner struct {
	w *World
}

func (o *Owner) World() *World { return o.w }

// Observer is notified after a resource is inserted into or removed from the
// world. It runs synchronously on the goroutine performing the mutation.
type Observer interface {
	ResourceInserted(t reflect.Type, nonSend bool)
	ResourceRemoved(t reflect.Type, nonSend bool)
}

// World is the top-level ECS container. It owns the entity pool, the deferred
// destroy queue and two resource tables: shareable resources, which any
// goroutine may read under the world's lock, and non-send resources, which
// are only reachable through the world's Owner.
//
// Everything except the shareable resource table is single-goroutine: the
// holder of the Owner (usually a mainthread.Loop) drives it.
type World struct {
	pool         *entityPool
	destroyQueue []Entity

	resMu     sync.RWMutex
	resources map[reflect.Type]any

	nonSend map[reflect.Type]any
	claimed atomic.Bool

	observer Observer
	log      *zap.Logger
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger used for command failures.
func WithLogger(log *zap.Logger) Option {
	return func(w *World) { w.log = log }
}

// WithObserver installs a resource lifecycle observer.
func WithObserver(o Observer) Option {
	return func(w *World) { w.observer = o }
}

func NewWorld(opts ...Option) *World {
	w := &World{
		pool:         newEntityPool(),
		destroyQueue: make([]Entity, 0, 64),
		resources:    make(map[reflect.Type]any, 16),
		nonSend:      make(map[reflect.Type]any, 8),
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Logger() *zap.Logger { return w.log }

func (w *World) Spawn() Entity {
	return w.pool.spawn()
}

func (w *World) Alive(e Entity) bool {
	return w.pool.alive(e)
}

// EntityCount reports how many entities are currently alive.
func (w *World) EntityCount() int {
	return w.pool.live
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(e Entity) {
	w.destroyQueue = append(w.destroyQueue, e)
}

// FlushDestroyQueue releases every queued entity. Stale or duplicate handles
// are skipped.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, e := range w.destroyQueue {
		if w.pool.release(e) {
			n++
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

// ClaimOwner hands out the world's single owner token. Non-send resources
// and command application are only reachable through it, so whoever holds
// the token is the designated thread. Later claims fail with
// ErrOwnerClaimed.
func (w *World) ClaimOwner() (*Owner, error) {
	if !w.claimed.CompareAndSwap(false, true) {
		w.log.Warn("owner token already claimed")
		return nil, ErrOwnerClaimed
	}
	return &Owner{w: w}, nil
}

// MustClaimOwner is ClaimOwner for single-goroutine programs and tests.
func (w *World) MustClaimOwner() *Owner {
	o, err := w.ClaimOwner()
	if err != nil {
		panic(err)
	}
	return o
}

func (w *World) notifyInserted(t reflect.Type, nonSend bool) {
	if w.observer != nil {
		w.observer.ResourceInserted(t, nonSend)
	}
}

func (w *World) notifyRemoved(t reflect.Type, nonSend bool) {
	if w.observer != nil {
		w.observer.ResourceRemoved(t, nonSend)
	}
}
