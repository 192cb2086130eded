package nonsend_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/l1jgo/nonsend/internal/core/ecs"
	"github.com/l1jgo/nonsend/internal/core/nonsend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterKind() nonsend.Kind {
	return nonsend.Decodable(nonsend.KindOf[Counter]("counter"),
		func(v map[string]any) (func() Counter, error) {
			n, ok := v["value"].(int)
			if !ok {
				return nil, fmt.Errorf("value: want int, got %T", v["value"])
			}
			return func() Counter { return Counter{Value: n} }, nil
		})
}

func TestKindsRegister(t *testing.T) {
	ks := nonsend.NewKinds()
	require.NoError(t, ks.Register(counterKind()))
	require.NoError(t, ks.Register(nonsend.KindOf[handle]("handle")))

	err := ks.Register(nonsend.KindOf[Counter]("counter"))
	assert.True(t, errors.Is(err, nonsend.ErrDuplicateKind))

	assert.Error(t, ks.Register(nonsend.Kind{Name: "empty"}))
	assert.Equal(t, []string{"counter", "handle"}, ks.Names())

	_, err = ks.Lookup("missing")
	assert.ErrorIs(t, err, nonsend.ErrUnknownKind)
}

func TestKindsQueueByName(t *testing.T) {
	ks := nonsend.NewKinds()
	ks.MustRegister(counterKind())
	ks.MustRegister(nonsend.KindOf[handle]("handle"))

	o := ecs.NewWorld().MustClaimOwner()
	cmds := ecs.NewCommands()

	require.NoError(t, ks.Init(cmds, "counter"))
	require.NoError(t, ks.Insert(cmds, "counter", map[string]any{"value": 12}))
	require.NoError(t, ks.Init(cmds, "handle"))
	require.NoError(t, cmds.Apply(o))

	v, _ := value(t, o)
	assert.Equal(t, 12, v)
	assert.True(t, ecs.HasNonSend[handle](o))

	require.NoError(t, ks.Remove(cmds, "counter"))
	require.NoError(t, cmds.Apply(o))
	assert.False(t, ecs.HasNonSend[Counter](o))
}

func TestKindsInsertErrors(t *testing.T) {
	ks := nonsend.NewKinds()
	ks.MustRegister(counterKind())
	ks.MustRegister(nonsend.KindOf[handle]("handle"))
	cmds := ecs.NewCommands()

	err := ks.Insert(cmds, "handle", nil)
	assert.ErrorIs(t, err, nonsend.ErrInsertUnsupported)

	err = ks.Insert(cmds, "counter", map[string]any{"value": "x"})
	assert.ErrorContains(t, err, "decode counter")

	assert.ErrorIs(t, ks.Init(cmds, "nope"), nonsend.ErrUnknownKind)
	assert.ErrorIs(t, ks.Remove(cmds, "nope"), nonsend.ErrUnknownKind)
	assert.Equal(t, 0, cmds.Len(), "failed requests queue nothing")
}
