package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gioui.org/f32"

	"github.com/gioverse/scrollkit/controller"
)

func TestRegistryAllocatesStateOncePerID(t *testing.T) {
	calls := 0
	reg := NewRegistry(func(id ID) any {
		calls++
		return "state-" + string(id)
	})

	h := New(ID("row-1"), reg, Callbacks{})
	h.OnInserted(0)
	h.OnUpdated(0)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, reg.Len())
}

func TestNoIDNeverAllocatesState(t *testing.T) {
	calls := 0
	reg := NewRegistry(func(ID) any { calls++; return nil })
	h := New(NoID, reg, Callbacks{})
	h.OnInserted(0)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, reg.Len())
}

func TestCallbacksReceivePositionAndState(t *testing.T) {
	reg := NewRegistry(func(id ID) any { return 42 })
	var gotPos int
	var gotState any
	h := New(ID("a"), reg, Callbacks{
		OnInserted: func(id ID, position int, state any) {
			gotPos, gotState = position, state
		},
	})
	h.OnInserted(3)
	assert.Equal(t, 3, gotPos)
	assert.Equal(t, 42, gotState)
}

func TestLockedDefaultsFalseAndIsSettable(t *testing.T) {
	h := New(ID("x"), nil, Callbacks{})
	assert.False(t, h.Locked())
	h.SetLocked(true)
	assert.True(t, h.Locked())
}

func TestForgetRemovesAllocatedState(t *testing.T) {
	reg := NewRegistry(func(id ID) any { return id })
	h := New(ID("a"), reg, Callbacks{})
	h.OnInserted(0)
	require.Equal(t, 1, reg.Len())
	reg.Forget(ID("a"))
	assert.Equal(t, 0, reg.Len())
}

func TestResizeDelegatesToController(t *testing.T) {
	c := controller.New(controller.Vertical)
	c.AddItem(func() controller.Node { return nil }, f32.Point{Y: 10})
	item := c.GetItem(0)
	Resize(c, item, f32.Point{Y: 20}, true)
	assert.Equal(t, float32(20), item.Size.Y)
}
