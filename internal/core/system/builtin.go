package system

import (
	"time"

	"github.com/l1jgo/nonsend/internal/core/ecs"
	"github.com/l1jgo/nonsend/internal/core/event"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
type CleanupSystem struct{}

func NewCleanupSystem() *CleanupSystem {
	return &CleanupSystem{}
}

func (s *CleanupSystem) Phase() Phase { return PhaseCleanup }

func (s *CleanupSystem) Update(o *ecs.Owner, _ time.Duration) {
	o.World().FlushDestroyQueue()
}

// EventSystem swaps the bus and delivers last tick's events.
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus) *EventSystem {
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() Phase { return PhasePreUpdate }

func (s *EventSystem) Update(_ *ecs.Owner, _ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
