package system

import (
	"sort"
	"time"

	"github.com/l1jgo/nonsend/internal/core/ecs"
	"go.uber.org/zap"
)

// Runner executes systems in phase order each tick and applies the command
// queue at the end of every phase. Tick takes the world's Owner, so only the
// owner thread can drive it.
type Runner struct {
	commands *ecs.Commands
	systems  []System
	sorted   bool
	log      *zap.Logger
}

func NewRunner(commands *ecs.Commands, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		commands: commands,
		systems:  make([]System, 0, 16),
		log:      log,
	}
}

// Commands is the queue systems push deferred work onto. Safe to hand to
// other goroutines.
func (r *Runner) Commands() *ecs.Commands { return r.commands }

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Tick(o *ecs.Owner, dt time.Duration) {
	r.ensureSorted()
	i := 0
	for i < len(r.systems) {
		phase := r.systems[i].Phase()
		for i < len(r.systems) && r.systems[i].Phase() == phase {
			r.systems[i].Update(o, dt)
			i++
		}
		r.sync(o, phase)
	}
	// Commands pushed from other goroutines between ticks, or by a runner
	// with no systems.
	r.sync(o, PhaseCleanup)
}

// TickPhase runs only the systems of one phase, then applies the queue.
func (r *Runner) TickPhase(o *ecs.Owner, phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(o, dt)
		}
	}
	r.sync(o, phase)
}

func (r *Runner) sync(o *ecs.Owner, phase Phase) {
	if r.commands.Len() == 0 {
		return
	}
	if err := r.commands.Apply(o); err != nil {
		r.log.Warn("commands failed", zap.Stringer("phase", phase), zap.Error(err))
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
