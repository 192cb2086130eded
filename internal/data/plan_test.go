package data

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/nonsend/internal/core/ecs"
	"github.com/l1jgo/nonsend/internal/core/nonsend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type gauge struct{ Level int }

func (g *gauge) FromWorld(*ecs.World) { g.Level = 1 }

type lamp struct{}

func (l *lamp) FromWorld(*ecs.World) {}

func testKinds(t *testing.T) *nonsend.Kinds {
	t.Helper()
	ks := nonsend.NewKinds()
	ks.MustRegister(nonsend.Decodable(nonsend.KindOf[gauge]("gauge"),
		func(v map[string]any) (func() gauge, error) {
			n, ok := v["level"].(int)
			if !ok {
				return nil, fmt.Errorf("level: want int, got %T", v["level"])
			}
			return func() gauge { return gauge{Level: n} }, nil
		}))
	ks.MustRegister(nonsend.KindOf[lamp]("lamp"))
	return ks
}

const planYAML = `
steps:
  - op: init
    kind: gauge
  - op: init
    kind: lamp
  - op: insert
    kind: gauge
    values:
      level: 7
  - op: remove
    kind: lamp
`

func TestPlanEnqueue(t *testing.T) {
	p, err := ParsePlan([]byte(planYAML))
	require.NoError(t, err)
	require.Len(t, p.Steps, 4)
	assert.Equal(t, OpInsert, p.Steps[2].Op)

	o := ecs.NewWorld().MustClaimOwner()
	cmds := ecs.NewCommands()
	require.NoError(t, p.Enqueue(testKinds(t), cmds))
	assert.Equal(t, 4, cmds.Len())
	require.NoError(t, cmds.Apply(o))

	g, ok := ecs.GetNonSend[gauge](o)
	require.True(t, ok)
	assert.Equal(t, 7, g.Level)
	assert.False(t, ecs.HasNonSend[lamp](o))
}

func TestPlanEnqueueCollectsErrors(t *testing.T) {
	p, err := ParsePlan([]byte(`
steps:
  - {op: init, kind: ghost}
  - {op: insert, kind: lamp}
  - {op: insert, kind: gauge, values: {level: high}}
  - {op: init, kind: gauge}
`))
	require.NoError(t, err)

	cmds := ecs.NewCommands()
	err = p.Enqueue(testKinds(t), cmds)
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 3)
	assert.ErrorIs(t, errs[0], nonsend.ErrUnknownKind)
	assert.ErrorIs(t, errs[1], nonsend.ErrInsertUnsupported)
	assert.ErrorContains(t, errs[2], "step 2")
	assert.Equal(t, 1, cmds.Len(), "valid steps are still queued")
}

func TestParsePlanValidates(t *testing.T) {
	_, err := ParsePlan([]byte("steps:\n  - {op: explode, kind: gauge}\n"))
	assert.ErrorContains(t, err, "unknown op")

	_, err = ParsePlan([]byte("steps:\n  - {op: init}\n"))
	assert.ErrorContains(t, err, "missing kind")

	_, err = ParsePlan([]byte("steps: ["))
	assert.Error(t, err)
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planYAML), 0o644))

	p, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Len(t, p.Steps, 4)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorContains(t, err, "read plan")
}
