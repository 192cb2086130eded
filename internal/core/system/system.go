package system

import (
	"time"

	"github.com/l1jgo/nonsend/internal/core/ecs"
)

// Phase orders systems within a tick. Queued commands are applied after
// every phase, so a phase sees everything earlier phases requested.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain external queues
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: simulation
	PhasePostUpdate              // 3: derived state
	PhaseOutput                  // 4: publish results
	PhaseCleanup                 // 5: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseOutput:
		return "output"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every ECS system implements. Update receives the
// world's Owner because systems run on the owner thread.
type System interface {
	Phase() Phase
	Update(o *ecs.Owner, dt time.Duration)
}

// Func adapts a function to System.
type Func struct {
	At Phase
	Fn func(o *ecs.Owner, dt time.Duration)
}

func (f Func) Phase() Phase                          { return f.At }
func (f Func) Update(o *ecs.Owner, dt time.Duration) { f.Fn(o, dt) }
