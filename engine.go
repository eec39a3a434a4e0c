// Package scrollkit implements the scroll engine: viewport bookkeeping,
// the input-to-motion state machine, momentum and bounce physics, and
// the culling window the scroll controller virtualizes against. It
// exposes small functional hooks (Invalidate, OverscrollCB, ScrollCB)
// rather than an inheritance hierarchy, matching how the rest of this
// module models narrow interfaces instead of class hierarchies.
package scrollkit

import (
	"math"

	"github.com/gioverse/scrollkit/controller"
	"github.com/gioverse/scrollkit/internal/action"
	"github.com/gioverse/scrollkit/internal/kinematics"
	"github.com/gioverse/scrollkit/logx"
)

// Axis re-exports controller.Axis so callers need only import this
// package for the common case.
type Axis = controller.Axis

const (
	Vertical   = controller.Vertical
	Horizontal = controller.Horizontal
)

// Padding re-exports controller.Padding.
type Padding = controller.Padding

// Movement is the engine's current input/motion state.
type Movement uint8

const (
	MovementNone Movement = iota
	MovementManual
	MovementAuto
	MovementOverscroll
)

func (m Movement) String() string {
	switch m {
	case MovementNone:
		return "None"
	case MovementManual:
		return "Manual"
	case MovementAuto:
		return "Auto"
	case MovementOverscroll:
		return "Overscroll"
	default:
		return "unknown"
	}
}

// Engine is the scroll engine. It owns the axis-scalar viewport state;
// everything else (placement, recycling) is the controller's job.
type Engine struct {
	Axis Axis

	// Bounce selects whether a pull past a boundary produces a spring
	// bulge (true) or a flat, clamped drag (false).
	Bounce bool

	// MaxVelocity clamps the initial velocity of a finalize animation
	// when > 0.
	MaxVelocity float32

	// OverscrollCB is invoked with the unconsumed delta whenever a drag
	// is stopped dead by a boundary in non-bounce mode, or whenever a
	// finalize animation's accelerated leg reaches a boundary before
	// handing off to a bounce. A finalize animation hands off to the
	// bounce leg whatever Bounce is set to.
	OverscrollCB func(delta float32)

	// ScrollCB is invoked on every applied delta, finished reporting
	// whether the motion causing it has now come to rest. Ticks of a
	// finalize or bounce animation report a delta of 0.
	ScrollCB func(delta float32, finished bool)

	// Invalidate requests a new frame from the host.
	Invalidate func()

	// AnimationPaddingCB is invoked with the engine's current
	// animation-padding hint: the estimated remaining displacement of an
	// in-flight auto-scroll animation, decaying to 0 as that displacement
	// is consumed. A caller combining this engine with a controller wires
	// this straight to controller.Controller.AnimationPadding, so the
	// virtualization window inflates ahead of a decelerating scroll.
	AnimationPaddingCB func(padding float32)

	Log logx.Logger

	scrollPosition float32
	scrollMin      *float32
	scrollMax      *float32
	scrollSize     float32

	movement     Movement
	activeAction action.Action

	// globalScale normalises gesture deltas by the product of ancestor
	// transforms along the scroll axis.
	globalScale float32

	// savedRelative holds a deferred [0,1] scroll target to re-apply once
	// bounds become known.
	savedRelative *float32
}

// New constructs an Engine for the given axis. Bounce defaults to true
// and globalScale to 1.
func New(axis Axis) *Engine {
	return &Engine{
		Axis:        axis,
		Bounce:      true,
		globalScale: 1,
		Log:         logx.Nop(),
	}
}

// Position returns the current scroll_position.
func (e *Engine) Position() float32 { return e.scrollPosition }

// Movement returns the engine's current motion state.
func (e *Engine) Movement() Movement { return e.movement }

// ScrollSize returns the last-known viewport extent along the axis.
func (e *Engine) ScrollSize() float32 { return e.scrollSize }

// SetScrollSize updates the viewport extent used in the bounds
// computation below.
func (e *Engine) SetScrollSize(size float32) { e.scrollSize = size }

// SetGlobalScale updates the product of ancestor transforms used to
// normalise gesture deltas.
func (e *Engine) SetGlobalScale(scale float32) {
	if scale == 0 {
		scale = 1
	}
	e.globalScale = scale
}

// Bounds reports the current scroll_min/scroll_max, which may be nil if
// the controller has not yet published an area.
func (e *Engine) Bounds() (min, max *float32) { return e.scrollMin, e.scrollMax }

// reportAnimationPadding publishes the current animation-padding hint
// through AnimationPaddingCB, if wired.
func (e *Engine) reportAnimationPadding(p float32) {
	if e.AnimationPaddingCB != nil {
		e.AnimationPaddingCB(p)
	}
}

// UpdateBounds recomputes scroll_min/scroll_max from the controller's
// published area. area is nil when the controller has not published
// anything yet.
func (e *Engine) UpdateBounds(area *controller.Area, padding Padding) {
	if area == nil {
		e.scrollMin, e.scrollMax = nil, nil
		return
	}
	front := padding.Front(e.Axis)
	back := padding.Back(e.Axis)
	min := area.Offset - front
	max := area.Offset + area.Size + back - e.scrollSize
	if max < min {
		max = min
	}
	e.scrollMin = &min
	e.scrollMax = &max

	if e.savedRelative != nil {
		t := *e.savedRelative
		e.savedRelative = nil
		e.seekRelative(t)
	} else {
		e.clampToBounds()
	}
}

func (e *Engine) clampToBounds() {
	pos := e.scrollPosition
	if math.IsNaN(float64(pos)) {
		// NaN position retains previous value (already current).
		return
	}
	if e.scrollMin != nil && pos < *e.scrollMin {
		e.scrollPosition = *e.scrollMin
	}
	if e.scrollMax != nil && pos > *e.scrollMax {
		e.scrollPosition = *e.scrollMax
	}
}

func (e *Engine) seekRelative(t float32) {
	if e.scrollMin == nil || e.scrollMax == nil {
		e.savedRelative = &t
		return
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	e.scrollPosition = *e.scrollMin + t*(*e.scrollMax-*e.scrollMin)
}

// SetScrollRelativeValue seeks to fraction t of the scrollable range. If
// bounds are not yet known, the target is deferred via savedRelative
// and applied the next time UpdateBounds runs.
func (e *Engine) SetScrollRelativeValue(t float32) {
	e.seekRelative(t)
}

// RelativePosition returns the current position as a fraction of the
// scrollable range, or 0 if bounds are unknown.
func (e *Engine) RelativePosition() float32 {
	if e.scrollMin == nil || e.scrollMax == nil || *e.scrollMax == *e.scrollMin {
		return 0
	}
	return (e.scrollPosition - *e.scrollMin) / (*e.scrollMax - *e.scrollMin)
}

func (e *Engine) invalidate() {
	if e.Invalidate != nil {
		e.Invalidate()
	}
}

// stopAnimation cancels any in-flight finalize/bounce animation and
// returns the engine to rest.
func (e *Engine) stopAnimation() {
	e.activeAction = nil
	e.movement = MovementNone
	e.reportAnimationPadding(0)
}

// OnPressBegin stops any running animation the moment a new pointer
// contact begins, so a finger landing mid-fling kills the motion
// immediately rather than fighting it.
func (e *Engine) OnPressBegin() {
	e.stopAnimation()
}

// OnSwipeBegin marks the start of a manual drag, stopping any running
// animation.
func (e *Engine) OnSwipeBegin() {
	e.stopAnimation()
}

// OnSwipeDelta applies one manual-drag increment, already expressed in
// the caller's coordinate space; it is divided by globalScale before
// being applied, undoing the effect of nested ancestor transforms.
func (e *Engine) OnSwipeDelta(delta float32) {
	e.movement = MovementManual
	e.applyDelta(delta / e.globalScale)
	e.invalidate()
}

// applyDelta implements the boundary-aware delta application: a pull
// past scroll_min/scroll_max either compresses (bounce mode) or is
// reported to OverscrollCB and clamped (flat mode).
func (e *Engine) applyDelta(delta float32) {
	p := e.scrollPosition
	if delta < 0 && e.scrollMin != nil && p+delta < *e.scrollMin {
		if e.Bounce {
			d := *e.scrollMin - (p + delta)
			delta = kinematics.Compress(delta, d)
		} else {
			if e.OverscrollCB != nil {
				e.OverscrollCB(delta)
			}
			e.scrollPosition = *e.scrollMin
			if e.ScrollCB != nil {
				e.ScrollCB(0, true)
			}
			return
		}
	}
	if delta > 0 && e.scrollMax != nil && p+delta > *e.scrollMax {
		if e.Bounce {
			d := (p + delta) - *e.scrollMax
			delta = kinematics.Compress(delta, d)
		} else {
			if e.OverscrollCB != nil {
				e.OverscrollCB(delta)
			}
			e.scrollPosition = *e.scrollMax
			if e.ScrollCB != nil {
				e.ScrollCB(0, true)
			}
			return
		}
	}
	e.scrollPosition = p + delta
	if e.ScrollCB != nil {
		e.ScrollCB(delta, false)
	}
}

// OnSwipeEnded launches a finalize (momentum) animation from velocity
// v0, splitting it against a boundary into an accelerated leg followed
// by a bounce leg when the unconstrained path would cross one.
func (e *Engine) OnSwipeEnded(v0 float32) {
	f := kinematics.NewFinalize(v0, e.MaxVelocity)
	if f.T == 0 || (f.P < kinematics.SnapThreshold && f.P > -kinematics.SnapThreshold) {
		e.stopAnimation()
		if e.ScrollCB != nil {
			e.ScrollCB(0, true)
		}
		return
	}
	e.launchFinalize(f)
}

// launchFinalize builds the accelerated (+ optional bounce) action
// sequence for a momentum animation starting from the engine's current
// position, and installs it as the active animation.
func (e *Engine) launchFinalize(f kinematics.Finalize) {
	p0 := e.scrollPosition
	var boundary *float32
	if f.P < 0 {
		boundary = e.scrollMin
	} else if f.P > 0 {
		boundary = e.scrollMax
	}

	e.reportAnimationPadding(f.P)

	onAccelTick := func(d, v float32) {
		e.scrollPosition = p0 + d
		e.reportAnimationPadding(f.P - d)
		if e.ScrollCB != nil {
			e.ScrollCB(0, false)
		}
	}

	if boundary != nil {
		target := *boundary - p0
		crosses := (f.P < 0 && f.P <= target) || (f.P > 0 && f.P >= target)
		if crosses {
			tExit, ok := f.TimeToDisplacement(target)
			if ok {
				residual := f.VelocityAt(tExit)
				accel := action.AccelerateToUntil(f, tExit, onAccelTick)
				overscrollAmount := f.P - target
				report := action.Callback(func() {
					e.scrollPosition = *boundary
					if e.OverscrollCB != nil {
						e.OverscrollCB(overscrollAmount)
					}
					e.movement = MovementOverscroll
				})
				b := kinematics.NewBounce(*boundary, residual)
				bounceAction := action.Bounce(b, func(pos float32) {
					e.scrollPosition = pos
					e.reportAnimationPadding(pos - *boundary)
					if e.ScrollCB != nil {
						e.ScrollCB(0, false)
					}
				})
				done := action.Callback(func() {
					e.scrollPosition = *boundary
					e.stopAnimation()
					if e.ScrollCB != nil {
						e.ScrollCB(0, true)
					}
				})
				e.activeAction = action.NewSequence(accel, report, bounceAction, done)
				e.movement = MovementAuto
				e.invalidate()
				return
			}
		}
	}

	done := action.Callback(func() {
		e.stopAnimation()
		if e.ScrollCB != nil {
			e.ScrollCB(0, true)
		}
	})
	e.activeAction = action.NewSequence(action.AccelerateTo(f, onAccelTick), done)
	e.movement = MovementAuto
	e.invalidate()
}

// OnWheel applies an immediate, undamped delta (e.g. from a scroll
// wheel or trackpad tick) and does not enter a motion state: wheel
// input is always instantaneous, never animated.
func (e *Engine) OnWheel(delta float32) {
	e.stopAnimation()
	e.applyDelta(delta / e.globalScale)
	e.invalidate()
}

// OnTap is a pass-through notification; it never affects motion state.
func (e *Engine) OnTap(count int) {}

// Tick advances any in-flight finalize/bounce animation by dt seconds.
// It is a no-op when the engine is at rest.
func (e *Engine) Tick(dt float32) {
	if e.activeAction == nil {
		return
	}
	if e.activeAction.Update(dt) {
		e.activeAction = nil
		if e.movement != MovementNone {
			e.movement = MovementNone
		}
	} else {
		e.invalidate()
	}
}

// State is the persisted subset of engine state save/load round-trips,
// matching the original's save_scroll_state/load behaviour of
// remembering the relative scroll position across a node's lifetime.
type State struct {
	RelativePosition float32
}

// Save captures the engine's current position as a relative fraction,
// suitable for persist.Store.
func (e *Engine) Save() State {
	return State{RelativePosition: e.RelativePosition()}
}

// Load restores a previously-saved relative position, deferring it via
// savedRelative if bounds are not yet known.
func (e *Engine) Load(s State) {
	e.seekRelative(s.RelativePosition)
}
