package recycler

import (
	"testing"
	"time"

	"gioui.org/f32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gioverse/scrollkit/controller"
	"github.com/gioverse/scrollkit/handle"
)

func tickUntilIdle(r *Row, maxSteps int) {
	for i := 0; i < maxSteps; i++ {
		r.Tick(1.0 / 60)
	}
}

func TestSwipePastThresholdEntersPreparedAndSnapsToRowWidth(t *testing.T) {
	r := NewRow("row-1", 100)
	r.OnSwipeBegin()
	r.OnSwipeDelta(-80)
	r.OnSwipeEnded(0)

	assert.Equal(t, Prepared, r.State())
	tickUntilIdle(r, 120)
	assert.InDelta(t, -100, r.ContentOffset(), 1)
}

func TestSwipeBelowThresholdSnapsBackToEnabled(t *testing.T) {
	r := NewRow("row-1", 100)
	r.OnSwipeBegin()
	r.OnSwipeDelta(-20)
	r.OnSwipeEnded(0)

	assert.Equal(t, Enabled, r.State())
	tickUntilIdle(r, 120)
	assert.InDelta(t, 0, r.ContentOffset(), 1)
}

func TestUndoReturnsPreparedRowToEnabled(t *testing.T) {
	r := NewRow("row-1", 100)
	r.OnSwipeBegin()
	r.OnSwipeDelta(-80)
	r.OnSwipeEnded(0)
	require.Equal(t, Prepared, r.State())

	r.Undo()
	assert.Equal(t, Enabled, r.State())
	tickUntilIdle(r, 120)
	assert.InDelta(t, 0, r.ContentOffset(), 1)
}

func TestSwipeAgainWhilePreparedCommitsRemoval(t *testing.T) {
	r := NewRow("row-1", 100)
	r.CollapseDuration = 10 * time.Millisecond
	r.OnSwipeBegin()
	r.OnSwipeDelta(-80)
	r.OnSwipeEnded(0)
	require.Equal(t, Prepared, r.State())

	r.OnSwipeBegin() // swipe again
	assert.Equal(t, Removed, r.State())

	var removed bool
	r.OnRemoved = func() { removed = true }
	tickUntilIdle(r, 120)
	assert.True(t, removed)
	assert.True(t, r.Collapsed())
}

func TestPreparedTimeoutCommitsRemoval(t *testing.T) {
	r := NewRow("row-1", 100)
	r.PreparedTimeout = 10 * time.Millisecond
	r.CollapseDuration = 10 * time.Millisecond

	done := make(chan struct{})
	r.OnRemoved = func() { close(done) }

	r.OnSwipeBegin()
	r.OnSwipeDelta(-80)
	r.OnSwipeEnded(0)
	require.Equal(t, Prepared, r.State())

	deadline := time.After(time.Second)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			assert.Equal(t, Removed, r.State())
			return
		case <-ticker.C:
			r.Tick(0.001)
		case <-deadline:
			t.Fatal("timed out waiting for the prepared timeout to commit removal")
		}
	}
}

func TestDraggingAgainWhileEnabledCancelsAnyRunningSnap(t *testing.T) {
	r := NewRow("row-1", 100)
	r.OnSwipeBegin()
	r.OnSwipeDelta(-20)
	r.OnSwipeEnded(0) // launches a snap-back-to-0 animation
	r.Tick(1.0 / 60)  // let it start moving

	r.OnSwipeBegin() // grab it again mid-animation
	r.OnSwipeDelta(-5)
	offsetAfterGrab := r.ContentOffset()

	// Ticking further should not be driven by the old snap animation
	// anymore; the new drag position should hold steady.
	r.Tick(1.0 / 60)
	assert.Equal(t, offsetAfterGrab, r.ContentOffset())
}

type fakeNode struct{ size float32 }

func (f fakeNode) NaturalSize(controller.Axis) float32 { return f.size }

type fakeHandle struct {
	locked bool
}

func (h *fakeHandle) OnInserted(int) {}
func (h *fakeHandle) OnUpdated(int)  {}
func (h *fakeHandle) OnRemoved(int)  {}
func (h *fakeHandle) Locked() bool   { return h.locked }

func addTestItem(t *testing.T, ctrl *controller.Controller, size float32, h controller.Handle) *controller.Item {
	t.Helper()
	idx := ctrl.AddItem(func() controller.Node { return fakeNode{size: size} }, f32.Point{Y: size})
	it := ctrl.GetItem(idx)
	it.Handle = h
	it.Node = fakeNode{size: size}
	return it
}

func TestSweepRemovesCollapsedUnlockedRows(t *testing.T) {
	ctrl := controller.New(controller.Vertical)
	rows := handle.NewRegistry(NewAllocator(100))

	id0, id1, id2 := handle.ID("0"), handle.ID("1"), handle.ID("2")
	addTestItem(t, ctrl, 10, nil)
	it1 := addTestItem(t, ctrl, 10, nil)
	addTestItem(t, ctrl, 10, nil)

	row1 := rows.Get(id1).(*Row)
	row1.CollapseDuration = time.Nanosecond
	row1.OnSwipeBegin()
	row1.OnSwipeDelta(-80)
	row1.OnSwipeEnded(0)
	row1.OnSwipeBegin() // commits removal
	tickUntilIdle(row1, 5)
	require.True(t, row1.Collapsed())
	it1.Size = f32.Point{} // in real usage row1.OnSizeChanged wired to handle.Resize would have driven this

	ids := []handle.ID{id0, id1, id2}
	idOf := func(index int) handle.ID { return ids[index] }

	var renumbered []int
	Sweep(ctrl, rows, idOf, func(index int) { renumbered = append(renumbered, index) })

	assert.Equal(t, 2, ctrl.Len())
	assert.Equal(t, []int{1}, renumbered)
	assert.Equal(t, 2, rows.Len(), "row1's state was forgotten; the other two were lazily allocated by the sweep itself")
}

func TestSweepSkipsLockedRows(t *testing.T) {
	ctrl := controller.New(controller.Vertical)
	rows := handle.NewRegistry(NewAllocator(100))

	id0 := handle.ID("0")
	locked := &fakeHandle{locked: true}
	addTestItem(t, ctrl, 10, locked)

	row0 := rows.Get(id0).(*Row)
	row0.CollapseDuration = time.Nanosecond
	row0.OnSwipeBegin()
	row0.OnSwipeDelta(-80)
	row0.OnSwipeEnded(0)
	row0.OnSwipeBegin()
	tickUntilIdle(row0, 5)
	require.True(t, row0.Collapsed())

	idOf := func(index int) handle.ID { return id0 }
	Sweep(ctrl, rows, idOf, nil)

	assert.Equal(t, 1, ctrl.Len(), "locked rows are excluded from the sweep")
}
