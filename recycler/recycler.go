// Package recycler implements the swipe-to-remove extension wrapping
// each controller item with an Enabled/Prepared/Removed state machine:
// a horizontal drag reveals an undo holder, a second swipe or a 5s
// timeout commits the removal, and a sweep pass drops fully collapsed
// rows from the controller (later rows have already slid up through the
// collapse's resizes) and reports each removed index so the caller can
// renumber its ids.
//
// A Row is the per-item presentation state stored in a handle.Registry
// (the same generalization of the teacher's row-manager.go rowState map
// that the handle package already provides for Component F), so a Row
// survives the sliced controller rebuilding its placement items on
// Reset/Front/Back.
package recycler

import (
	"math"
	"sync"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/gioverse/scrollkit/controller"
	"github.com/gioverse/scrollkit/handle"
	"github.com/gioverse/scrollkit/internal/action"
	"github.com/gioverse/scrollkit/internal/kinematics"
	"github.com/gioverse/scrollkit/logx"
)

// State is a Row's position in the swipe-to-remove state machine.
type State uint8

const (
	Enabled State = iota
	Prepared
	Removed
)

func (s State) String() string {
	switch s {
	case Enabled:
		return "Enabled"
	case Prepared:
		return "Prepared"
	case Removed:
		return "Removed"
	default:
		return "unknown"
	}
}

const (
	// SwipeThreshold is the fraction of RowWidth a swipe's predicted
	// resting displacement must reach to prepare removal rather than
	// snap back to Enabled.
	SwipeThreshold = 0.5
	// PreparedTimeout is how long a Prepared row waits for Undo before
	// committing to Removed on its own.
	PreparedTimeout = 5 * time.Second
	// RemoveDuration is how long a Removed row's shrink-to-zero
	// animation takes.
	RemoveDuration = 200 * time.Millisecond
)

// Row is one item's swipe-to-remove state, its content's current
// horizontal offset, and its collapse fraction during removal.
type Row struct {
	ID       handle.ID
	RowWidth float32

	// PreparedTimeout and CollapseDuration default to the package
	// constants PreparedTimeout and RemoveDuration but are overridable
	// per row, mainly so
	// tests don't need to wait out the real 5s/200ms durations.
	PreparedTimeout  time.Duration
	CollapseDuration time.Duration

	// OnSizeChanged, if set, fires on every tick of the Removed
	// shrink-to-zero animation with the item's new axis-aligned size
	// (RowHeight * collapse fraction). A caller wires this to
	// handle.Resize against the controller and item this row belongs
	// to, which is what actually performs the "following rows slide
	// upward" half of compaction: ResizeItem's existing forward-shift
	// logic propagates the shrink to later items on every call, frame by
	// frame, without the recycler needing its own copy of that logic.
	OnSizeChanged func(newAxisSize float32)
	RowHeight     float32

	OnRemoved  func()
	Invalidate func()
	Log        logx.Logger

	mu            sync.Mutex
	state         State
	contentOffset float32
	sizeFrac      float32
	activeAction  action.Action
	timer         *time.Timer
}

// NewRow builds an Enabled row of the given content width.
func NewRow(id handle.ID, rowWidth float32) *Row {
	return &Row{
		ID:               id,
		RowWidth:         rowWidth,
		sizeFrac:         1,
		PreparedTimeout:  PreparedTimeout,
		CollapseDuration: RemoveDuration,
		Log:              logx.Nop(),
	}
}

// NewAllocator builds a handle.Allocator producing recycler rows of a
// fixed width, for use with handle.NewRegistry.
func NewAllocator(rowWidth float32) handle.Allocator {
	return func(id handle.ID) any { return NewRow(id, rowWidth) }
}

func (r *Row) invalidate() {
	if r.Invalidate != nil {
		r.Invalidate()
	}
}

// State reports the row's current state.
func (r *Row) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ContentOffset reports the content layer's current horizontal offset.
func (r *Row) ContentOffset() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contentOffset
}

// SizeFrac reports the row's current collapse fraction: 1 while
// Enabled/Prepared, animating down to 0 while Removed.
func (r *Row) SizeFrac() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sizeFrac
}

func (r *Row) setState(s State) {
	r.state = s
}

func (r *Row) cancelTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// OnSwipeBegin starts a new drag gesture. A gesture starting while
// Prepared commits the row to Removed immediately ("swipe again");
// otherwise any in-flight snap animation is cancelled so the drag takes
// over smoothly from wherever it left off.
func (r *Row) OnSwipeBegin() {
	r.mu.Lock()
	switch r.state {
	case Prepared:
		r.mu.Unlock()
		r.startRemoved()
		return
	case Removed:
	default:
		r.activeAction = nil
	}
	r.mu.Unlock()
}

// OnSwipeDelta absorbs a horizontal drag delta into the content offset.
// Only meaningful while Enabled; Prepared rows resolved their gesture at
// OnSwipeBegin and Removed rows no longer accept input.
func (r *Row) OnSwipeDelta(delta float32) {
	r.mu.Lock()
	if r.state != Enabled {
		r.mu.Unlock()
		return
	}
	r.contentOffset += delta
	r.mu.Unlock()
	r.invalidate()
}

// OnSwipeEnded resolves a drag gesture: the content's predicted resting
// position (under the same constant-deceleration momentum model the
// scroll engine uses) decides whether it snaps back to 0 or commits to
// ±RowWidth and enters Prepared.
func (r *Row) OnSwipeEnded(v float32) {
	r.mu.Lock()
	if r.state != Enabled {
		r.mu.Unlock()
		return
	}
	f := kinematics.NewFinalize(v, 0)
	predicted := r.contentOffset + f.P
	var target float32
	if r.RowWidth > 0 && math.Abs(float64(predicted/r.RowWidth)) >= SwipeThreshold {
		if predicted < 0 {
			target = -r.RowWidth
		} else {
			target = r.RowWidth
		}
	}
	r.launchSnap(target)
	if target != 0 {
		r.setState(Prepared)
		r.mu.Unlock()
		r.scheduleTimeout()
		return
	}
	r.mu.Unlock()
}

// scheduleTimeout arms the 5s auto-removal countdown for a Prepared row.
func (r *Row) scheduleTimeout() {
	r.mu.Lock()
	r.cancelTimer()
	r.timer = time.AfterFunc(r.PreparedTimeout, func() { r.startRemoved() })
	r.mu.Unlock()
}

// Undo reverses a Prepared row back to Enabled, cancelling its timeout
// and animating the content back to 0.
func (r *Row) Undo() {
	r.mu.Lock()
	if r.state != Prepared {
		r.mu.Unlock()
		return
	}
	r.cancelTimer()
	r.setState(Enabled)
	r.launchSnap(0)
	r.mu.Unlock()
}

// launchSnap animates contentOffset from its current value to target.
// Caller must hold r.mu.
func (r *Row) launchSnap(target float32) {
	start := r.contentOffset
	dur := snapDuration(target - start)
	r.activeAction = action.MoveTo(start, target, dur, ease.OutBack, func(p float32) {
		r.mu.Lock()
		r.contentOffset = p
		r.mu.Unlock()
		r.invalidate()
	})
	r.invalidate()
}

// snapDuration estimates a spring-snap's duration from the same
// acceleration constant the scroll engine's bounce segments use, rather
// than a fixed number: a longer throw takes proportionally longer to
// settle. kinematics.Bounce assumes its motion starts exactly at the
// boundary it settles to, which doesn't fit a row snap (start and
// target generally differ), so the closed-form Bounce type isn't reused
// here; a gween spring-ease tween sized off the same constant is the
// simpler fit.
func snapDuration(delta float32) float32 {
	d := math.Abs(float64(delta))
	if d == 0 {
		return 0.08
	}
	t := math.Sqrt(2 * d / float64(kinematics.SpringAcceleration))
	if t < 0.08 {
		t = 0.08
	}
	return float32(t)
}

// startRemoved commits the row to Removed: the row collapses to zero
// size over CollapseDuration, and OnRemoved fires once the collapse
// finishes. The content offset is left where it is; a snap still in
// flight is replaced by the collapse.
func (r *Row) startRemoved() {
	r.mu.Lock()
	if r.state == Removed {
		r.mu.Unlock()
		return
	}
	r.cancelTimer()
	r.setState(Removed)
	from := r.sizeFrac
	resize := action.Resize(from, 0, float32(r.CollapseDuration.Seconds()), ease.Linear, func(v float32) {
		r.mu.Lock()
		r.sizeFrac = v
		onSizeChanged := r.OnSizeChanged
		rowHeight := r.RowHeight
		r.mu.Unlock()
		if onSizeChanged != nil {
			onSizeChanged(v * rowHeight)
		}
		r.invalidate()
	})
	done := action.Callback(func() {
		if r.OnRemoved != nil {
			r.OnRemoved()
		}
	})
	r.activeAction = action.NewSequence(resize, done)
	r.mu.Unlock()
	r.invalidate()
}

// Tick advances any running snap or collapse animation.
func (r *Row) Tick(dt float32) {
	r.mu.Lock()
	a := r.activeAction
	r.mu.Unlock()
	if a == nil {
		return
	}
	if a.Update(dt) {
		r.mu.Lock()
		if r.activeAction == a {
			r.activeAction = nil
		}
		r.mu.Unlock()
	}
	r.invalidate()
}

// Collapsed reports whether the row's shrink-to-zero animation has
// finished: Removed and fully collapsed.
func (r *Row) Collapsed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == Removed && r.sizeFrac <= 0
}

// Sweep compacts every fully-collapsed, unlocked Removed row out of
// ctrl: items are dropped in descending index order (so earlier indices
// stay valid across the pass), and onRenumber is called once per
// removed item with that item's index, so a caller's data-source view
// can renumber its own bookkeeping. Locked
// items (handle.Handle.Locked) are left in place even if Removed,
// matching the cleanup sweep's exclusion rule.
func Sweep(ctrl *controller.Controller, rows *handle.Registry, idOf func(index int) handle.ID, onRenumber func(index int)) {
	for i := ctrl.Len() - 1; i >= 0; i-- {
		it := ctrl.GetItem(i)
		if it == nil {
			continue
		}
		if it.Handle != nil && it.Handle.Locked() {
			continue
		}
		id := idOf(i)
		row, ok := rowAt(rows, id)
		if !ok || !row.Collapsed() {
			continue
		}
		ctrl.RemoveAt(i)
		rows.Forget(id)
		if onRenumber != nil {
			onRenumber(i)
		}
	}
}

func rowAt(rows *handle.Registry, id handle.ID) (*Row, bool) {
	if rows == nil {
		return nil, false
	}
	v := rows.Get(id)
	row, ok := v.(*Row)
	return row, ok
}
