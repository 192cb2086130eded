package main

import (
	"fmt"
	"math"
	"time"

	"github.com/l1jgo/nonsend/internal/core/ecs"
	"github.com/l1jgo/nonsend/internal/core/nonsend"
)

// Settings is a shareable resource: any goroutine may read it.
type Settings struct {
	TickRate time.Duration
}

// Stats mirrors main-thread counters into the shareable table so code off
// the loop can report them.
type Stats struct {
	Ticks  int
	Frames int
}

func (s *Stats) FromWorld(*ecs.World) {}

// FrameCounter counts ticks on the main thread. Non-send.
type FrameCounter struct {
	Frames int
	Step   int
}

func (c *FrameCounter) FromWorld(w *ecs.World) {
	c.Step = 1
}

// Surface stands in for a handle that must stay on the thread that created
// it, such as a window or graphics context. Non-send.
type Surface struct {
	Title   string
	Width   int
	Height  int
	Created time.Time
}

// FromWorld sizes the default surface after the shareable settings, if any.
func (s *Surface) FromWorld(w *ecs.World) {
	s.Title = "untitled"
	s.Width, s.Height = 640, 480
	if st, ok := ecs.GetResource[Settings](w); ok && st.TickRate > 0 {
		s.Title = fmt.Sprintf("untitled @ %s", st.TickRate)
	}
	s.Created = time.Now()
}

// countFrames advances the frame counter and publishes it as Stats.
func countFrames(o *ecs.Owner, _ time.Duration) {
	c, ok := ecs.GetNonSend[FrameCounter](o)
	if !ok {
		return
	}
	c.Frames += c.Step
	w := o.World()
	st := ecs.InitResource[Stats](w)
	ecs.InsertResource(w, Stats{Ticks: st.Ticks + 1, Frames: c.Frames})
}

func registerKinds(kinds *nonsend.Kinds) {
	kinds.MustRegister(nonsend.Decodable(
		nonsend.KindOf[FrameCounter]("frame_counter"),
		func(v map[string]any) (func() FrameCounter, error) {
			step, err := intValue(v, "step", 1)
			if err != nil {
				return nil, err
			}
			start, err := intValue(v, "start", 0)
			if err != nil {
				return nil, err
			}
			return func() FrameCounter { return FrameCounter{Frames: start, Step: step} }, nil
		},
	))
	kinds.MustRegister(nonsend.Decodable(
		nonsend.KindOf[Surface]("surface"),
		func(v map[string]any) (func() Surface, error) {
			title, _ := v["title"].(string)
			w, err := intValue(v, "width", 640)
			if err != nil {
				return nil, err
			}
			h, err := intValue(v, "height", 480)
			if err != nil {
				return nil, err
			}
			return func() Surface {
				return Surface{Title: title, Width: w, Height: h, Created: time.Now()}
			}, nil
		},
	))
}

// intValue reads key as an integer. YAML decodes ints as int (uint64 past
// the int64 range) and Lua hands over float64.
func intValue(v map[string]any, key string, def int) (int, error) {
	raw, ok := v[key]
	if !ok {
		return def, nil
	}
	switch n := raw.(type) {
	case int:
		return n, nil
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, fmt.Errorf("%s: %d out of range", key, n)
		}
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, fmt.Errorf("%s: %d out of range", key, n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt || n >= math.MaxInt {
			return 0, fmt.Errorf("%s: want integer, got %v", key, n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("%s: want number, got %T", key, raw)
}
