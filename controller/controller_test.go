package controller

import (
	"testing"

	"gioui.org/f32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct{ size float32 }

func (f fakeNode) NaturalSize(Axis) float32 { return f.size }

func factoryFor(size float32) Factory {
	return func() Node { return fakeNode{size: size} }
}

func TestAddItemAutoPositionsAfterPrevious(t *testing.T) {
	c := New(Vertical)
	c.AddItem(factoryFor(10), f32.Point{Y: 10})
	c.AddItem(factoryFor(10), f32.Point{Y: 20})

	require.Equal(t, 2, c.Len())
	assert.Equal(t, float32(0), c.GetItem(0).Position.Y)
	assert.Equal(t, float32(10), c.GetItem(1).Position.Y)
}

func TestResizeItemForwardShiftsFollowingItems(t *testing.T) {
	c := New(Vertical)
	c.AddItem(factoryFor(10), f32.Point{Y: 10})
	c.AddItem(factoryFor(10), f32.Point{Y: 10})
	c.AddItem(factoryFor(10), f32.Point{Y: 10})

	first := c.GetItem(0)
	before1 := c.GetItem(1).Position.Y
	before2 := c.GetItem(2).Position.Y

	c.ResizeItem(first, f32.Point{Y: 15}, true)

	assert.Equal(t, float32(0), first.Position.Y, "resized item keeps its own position when forward")
	assert.Equal(t, before1+5, c.GetItem(1).Position.Y)
	assert.Equal(t, before2+5, c.GetItem(2).Position.Y)
}

func TestResizeItemBackwardShiftsPrecedingItems(t *testing.T) {
	c := New(Vertical)
	c.AddItem(factoryFor(10), f32.Point{Y: 10})
	c.AddItem(factoryFor(10), f32.Point{Y: 10})
	c.AddItem(factoryFor(10), f32.Point{Y: 10})

	last := c.GetItem(2)
	before0 := c.GetItem(0).Position.Y
	before1 := c.GetItem(1).Position.Y
	lastPosBefore := last.Position.Y

	c.ResizeItem(last, f32.Point{Y: 15}, false)

	assert.Equal(t, lastPosBefore-5, last.Position.Y)
	assert.Equal(t, before0-5, c.GetItem(0).Position.Y)
	assert.Equal(t, before1-5, c.GetItem(1).Position.Y)
}

func TestOnScrollPositionAttachesOnlyItemsInWindow(t *testing.T) {
	c := New(Vertical)
	for i := 0; i < 10; i++ {
		c.AddItem(factoryFor(10), f32.Point{Y: 10})
	}
	c.OnScrollPosition(0, 20, true)

	for i, it := range c.Items() {
		inWindow := it.axisEnd(Vertical) >= -slack && it.Position.Y <= 20+slack
		if inWindow {
			assert.NotNilf(t, it.Node, "item %d should be resident", i)
		} else {
			assert.Nilf(t, it.Node, "item %d should not be resident", i)
		}
	}
}

func TestOnScrollPositionDetachesItemsLeavingWindow(t *testing.T) {
	c := New(Vertical)
	for i := 0; i < 10; i++ {
		c.AddItem(factoryFor(10), f32.Point{Y: 10})
	}
	c.OnScrollPosition(0, 20, true)
	require.NotNil(t, c.GetItem(0).Node)

	c.OnScrollPosition(500, 20, true)
	assert.Nil(t, c.GetItem(0).Node, "item scrolled far out of view should be detached")
}

// TestIdempotentForcedStep mirrors idempotence law: calling
// OnScrollPosition(force=true) twice with no state change between them
// leaves the item set and positions identical.
func TestIdempotentForcedStep(t *testing.T) {
	c := New(Vertical)
	for i := 0; i < 5; i++ {
		c.AddItem(factoryFor(10), f32.Point{Y: 10})
	}
	c.OnScrollPosition(0, 30, true)

	before := snapshotPositions(c)
	c.OnScrollPosition(0, 30, true)
	after := snapshotPositions(c)

	assert.Equal(t, before, after)
}

func snapshotPositions(c *Controller) []f32.Point {
	out := make([]f32.Point, c.Len())
	for i, it := range c.Items() {
		out[i] = it.Position
	}
	return out
}

func TestFactoryReturningNilLeavesSlotReserved(t *testing.T) {
	c := New(Vertical)
	calls := 0
	c.AddItem(func() Node {
		calls++
		if calls == 1 {
			return nil
		}
		return fakeNode{size: 10}
	}, f32.Point{Y: 10})

	c.OnScrollPosition(0, 20, true)
	assert.Nil(t, c.GetItem(0).Node)

	c.OnScrollPosition(0, 20, true)
	assert.NotNil(t, c.GetItem(0).Node)
}

func TestDegenerateWindowIsNoOp(t *testing.T) {
	c := New(Vertical)
	c.AddItem(factoryFor(10), f32.Point{Y: 10})
	c.OnScrollPosition(0, 0, true)
	assert.Nil(t, c.GetItem(0).Node)
}

func TestClearDetachesAllNodes(t *testing.T) {
	c := New(Vertical)
	for i := 0; i < 3; i++ {
		c.AddItem(factoryFor(10), f32.Point{Y: 10})
	}
	c.OnScrollPosition(0, 30, true)
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestScrollPositionForRelativeClampsToBounds(t *testing.T) {
	c := New(Vertical)
	for i := 0; i < 5; i++ {
		c.AddItem(factoryFor(10), f32.Point{Y: 10})
	}
	c.OnScrollPosition(0, 20, true)

	pos := c.ScrollPositionForRelative(0, 20, Padding{})
	assert.Equal(t, c.Area().Offset, pos)

	posEnd := c.ScrollPositionForRelative(1, 20, Padding{})
	assert.Equal(t, c.Area().Offset+c.Area().Size-20, posEnd)
}
