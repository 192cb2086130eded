package nonsend

import (
	"sync/atomic"

	"github.com/l1jgo/nonsend/internal/core/ecs"
)

// once wraps a world mutation so it runs at most one time no matter how
// often the command is applied.
type once struct {
	done atomic.Bool
	fn   func(o *ecs.Owner)
}

func (c *once) Apply(o *ecs.Owner) {
	if !c.done.CompareAndSwap(false, true) {
		return
	}
	c.fn(o)
}

func newOnce(fn func(o *ecs.Owner)) ecs.Command {
	return &once{fn: fn}
}

// InitResource returns a command that registers the non-send R with the
// default it builds from the world, unless R is already present.
func InitResource[R any, P ecs.FromWorld[R]]() ecs.Command {
	return newOnce(func(o *ecs.Owner) {
		ecs.InitNonSend[R, P](o)
	})
}

// InsertResource returns a command that calls factory on the owner thread
// and stores the result as the non-send R, replacing any previous value.
// The factory may be built on any goroutine; its result only exists on the
// goroutine holding the world's Owner.
func InsertResource[R any](factory func() R) ecs.Command {
	if factory == nil {
		panic("nonsend: InsertResource with nil factory")
	}
	return newOnce(func(o *ecs.Owner) {
		ecs.InsertNonSend(o, factory())
	})
}

// RemoveResource returns a command that removes the non-send R. It does
// nothing when R is absent.
func RemoveResource[R any]() ecs.Command {
	return newOnce(func(o *ecs.Owner) {
		ecs.RemoveNonSend[R](o)
	})
}

// Init queues InitResource[R] on q.
func Init[R any, P ecs.FromWorld[R]](q ecs.CommandQueue) {
	q.Push(InitResource[R, P]())
}

// Insert queues InsertResource(factory) on q.
func Insert[R any](q ecs.CommandQueue, factory func() R) {
	q.Push(InsertResource(factory))
}

// Remove queues RemoveResource[R] on q.
func Remove[R any](q ecs.CommandQueue) {
	q.Push(RemoveResource[R]())
}
