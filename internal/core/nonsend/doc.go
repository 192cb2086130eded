// Package nonsend queues insertion and removal of non-send resources through
// an ecs.Commands buffer.
//
// A non-send resource is world state that must only be touched from the
// thread that owns the world (GPU contexts, cgo handles, window objects).
// Systems running elsewhere cannot reach such a resource directly, but they
// can push a command that the owner applies at the next sync point:
//
//	nonsend.Insert(cmds, func() *Window { return openWindow() })
//
// The factory passed to Insert travels through the queue as a plain func
// value. It runs on the owner thread, so the value it builds never crosses
// goroutines.
package nonsend
