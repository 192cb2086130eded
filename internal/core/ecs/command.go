package ecs

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Command is a deferred mutation applied to the world at a sync point. It
// receives the world's Owner, so it runs on the designated thread.
type Command interface {
	Apply(o *Owner)
}

// CommandFunc adapts a plain closure to Command.
type CommandFunc func(o *Owner)

func (f CommandFunc) Apply(o *Owner) { f(o) }

// CommandQueue is the queue surface extension packages build on. The
// unexported method keeps *Commands its only implementation.
type CommandQueue interface {
	Push(cmd Command)
	sealedQueue()
}

// CommandPanicError reports a command that panicked while being applied. The
// remaining commands in the batch still run.
type CommandPanicError struct {
	Index int
	Value any
}

func (e *CommandPanicError) Error() string {
	return fmt.Sprintf("command %d panicked: %v", e.Index, e.Value)
}

// Commands buffers commands pushed from any goroutine until the owner of the
// world applies them.
type Commands struct {
	mu    sync.Mutex
	queue []Command
}

func NewCommands() *Commands {
	return &Commands{queue: make([]Command, 0, 64)}
}

func (c *Commands) sealedQueue() {}

// Push appends a command. Nil commands are dropped.
func (c *Commands) Push(cmd Command) {
	if cmd == nil {
		return
	}
	c.mu.Lock()
	c.queue = append(c.queue, cmd)
	c.mu.Unlock()
}

// Add is Push returning the queue for chaining.
func (c *Commands) Add(cmd Command) *Commands {
	c.Push(cmd)
	return c
}

func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Drain returns the queued commands and resets the buffer.
func (c *Commands) Drain() []Command {
	c.mu.Lock()
	drained := c.queue
	c.queue = make([]Command, 0, cap(drained))
	c.mu.Unlock()
	return drained
}

// Apply runs every queued command once, in push order. Commands pushed while
// applying run in the same call after the current batch. Panics are
// recovered per command and returned as *CommandPanicError values.
func (c *Commands) Apply(o *Owner) error {
	var errs error
	idx := 0
	for {
		batch := c.Drain()
		if len(batch) == 0 {
			return errs
		}
		for _, cmd := range batch {
			if err := applyOne(o, cmd, idx); err != nil {
				errs = multierr.Append(errs, err)
			}
			idx++
		}
	}
}

func applyOne(o *Owner, cmd Command, idx int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CommandPanicError{Index: idx, Value: r}
			o.w.log.Error("command panicked",
				zap.Int("index", idx),
				zap.String("command", fmt.Sprintf("%T", cmd)),
				zap.Any("panic", r),
			)
		}
	}()
	cmd.Apply(o)
	return nil
}

// Spawn queues creation of an entity. fn, if non-nil, receives the new handle
// on the owner thread.
func (c *Commands) Spawn(fn func(o *Owner, e Entity)) *Commands {
	return c.Add(CommandFunc(func(o *Owner) {
		e := o.w.Spawn()
		if fn != nil {
			fn(o, e)
		}
	}))
}

// Destroy queues the entity for end-of-tick destruction.
func (c *Commands) Destroy(e Entity) *Commands {
	return c.Add(CommandFunc(func(o *Owner) {
		o.w.MarkForDestruction(e)
	}))
}

// InitResourceCmd returns a command registering the shareable R with its
// world-derived default if absent.
func InitResourceCmd[R any, P FromWorld[R]]() Command {
	return CommandFunc(func(o *Owner) {
		InitResource[R, P](o.w)
	})
}

// InsertResourceCmd returns a command storing v as the shareable R.
func InsertResourceCmd[R any](v R) Command {
	return CommandFunc(func(o *Owner) {
		InsertResource(o.w, v)
	})
}

// RemoveResourceCmd returns a command removing the shareable R if present.
func RemoveResourceCmd[R any]() Command {
	return CommandFunc(func(o *Owner) {
		RemoveResource[R](o.w)
	})
}
