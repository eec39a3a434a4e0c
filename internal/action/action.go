// Package action implements a narrow action-library contract:
// decelerated motion, bounce to a boundary, a time-normalised progress
// tween, and the small combinators (sequence, callback, fade, move-to,
// resize) built on top of them.
//
// Plain value-to-value tweens (fade, move-to, resize, progress) are
// built on github.com/tanema/gween + github.com/tanema/gween/ease, the
// same tweening library phanxgames-willow uses for its TweenGroup. The
// two kinematic actions (AccelerateTo, Bounce) are NOT built on gween:
// they are a closed-form initial-velocity ODE (see internal/kinematics),
// which a fixed Penner easing curve cannot reproduce exactly, so those
// two compute position directly from the physics instead.
package action

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/gioverse/scrollkit/internal/kinematics"
)

// Action is one running animation. Update advances it by dt seconds and
// reports whether it has finished.
type Action interface {
	Update(dt float32) (done bool)
}

// Callback is a one-shot action: it runs once on its first Update call
// and immediately reports done.
type Callback func()

// Update invokes the callback and reports done.
func (c Callback) Update(float32) bool {
	c()
	return true
}

// Sequence runs a list of actions one after another, advancing to the
// next only once the current one reports done. The tick that finishes
// one action also advances the next one, by that tick's full dt rather
// than only the unused remainder; this matches the coarse per-frame
// tick granularity the rest of the pipeline uses (frame deltas are
// small enough that the overlap is never visible).
type Sequence struct {
	actions []Action
	i       int
}

// NewSequence builds a Sequence over the given actions, run in order.
func NewSequence(actions ...Action) *Sequence {
	return &Sequence{actions: actions}
}

// Update advances the currently active action.
func (s *Sequence) Update(dt float32) bool {
	for s.i < len(s.actions) {
		if !s.actions[s.i].Update(dt) {
			return false
		}
		s.i++
	}
	return true
}

// Progress is a time-normalised tween over [0,1] with start/progress/end
// callbacks, matching "Progress action."
type Progress struct {
	tween      *gween.Tween
	onStart    func()
	onProgress func(p float32)
	onEnd      func()
	started    bool
}

// NewProgress builds a Progress action lasting duration seconds.
func NewProgress(duration float32, fn ease.TweenFunc, onStart func(), onProgress func(p float32), onEnd func()) *Progress {
	if fn == nil {
		fn = ease.Linear
	}
	return &Progress{
		tween:      gween.New(0, 1, duration, fn),
		onStart:    onStart,
		onProgress: onProgress,
		onEnd:      onEnd,
	}
}

// Update advances the progress tween.
func (p *Progress) Update(dt float32) bool {
	if !p.started {
		p.started = true
		if p.onStart != nil {
			p.onStart()
		}
	}
	v, done := p.tween.Update(dt)
	if p.onProgress != nil {
		p.onProgress(v)
	}
	if done && p.onEnd != nil {
		p.onEnd()
	}
	return done
}

// Tween is a plain value-to-value animation writing its current value
// into Set on every tick; it backs Fade, MoveTo and Resize below.
type Tween struct {
	tween *gween.Tween
	Set   func(v float32)
}

// NewTween builds a Tween from begin to end over duration seconds.
func NewTween(begin, end, duration float32, fn ease.TweenFunc, set func(v float32)) *Tween {
	if fn == nil {
		fn = ease.Linear
	}
	return &Tween{tween: gween.New(begin, end, duration, fn), Set: set}
}

// Update advances the tween and writes the new value through Set.
func (t *Tween) Update(dt float32) bool {
	v, done := t.tween.Update(dt)
	if t.Set != nil {
		t.Set(v)
	}
	return done
}

// Fade animates an opacity-like scalar in [0,1].
func Fade(from, to, duration float32, set func(alpha float32)) *Tween {
	return NewTween(from, to, duration, ease.Linear, set)
}

// MoveTo animates a single axis coordinate from one position to
// another.
func MoveTo(from, to, duration float32, fn ease.TweenFunc, set func(pos float32)) *Tween {
	return NewTween(from, to, duration, fn, set)
}

// Resize animates an axis-aligned size from one extent to another.
func Resize(from, to, duration float32, fn ease.TweenFunc, set func(size float32)) *Tween {
	return NewTween(from, to, duration, fn, set)
}

// Kinematic wraps a kinematics.Finalize momentum animation as an
// Action, calling onTick with the displacement from the start position
// on every update and finishing once its duration elapses.
type Kinematic struct {
	f        kinematics.Finalize
	duration float32
	elapsed  float32
	onTick   func(displacement, velocity float32)
	finished bool
}

// AccelerateTo builds the decelerated momentum action described by f,
// running for its full natural duration f.T.
func AccelerateTo(f kinematics.Finalize, onTick func(displacement, velocity float32)) *Kinematic {
	return &Kinematic{f: f, duration: f.T, onTick: onTick}
}

// AccelerateToUntil builds the same decelerated momentum action as
// AccelerateTo but cuts it short at duration seconds — used when the
// motion is going to meet a boundary before it would naturally come to
// rest, and the remainder of the curve is handed off to a Bounce.
func AccelerateToUntil(f kinematics.Finalize, duration float32, onTick func(displacement, velocity float32)) *Kinematic {
	if duration <= 0 || duration > f.T {
		duration = f.T
	}
	return &Kinematic{f: f, duration: duration, onTick: onTick}
}

// Update advances the kinematic action by dt seconds.
func (k *Kinematic) Update(dt float32) bool {
	if k.finished {
		return true
	}
	k.elapsed += dt
	done := k.elapsed >= k.duration
	t := k.elapsed
	if done {
		t = k.duration
	}
	if k.onTick != nil {
		k.onTick(k.f.PositionAt(t), k.f.VelocityAt(t))
	}
	k.finished = done
	return done
}

// BounceAction wraps a kinematics.Bounce spring-return segment as an
// Action.
type BounceAction struct {
	b        kinematics.Bounce
	elapsed  float32
	onTick   func(position float32)
	finished bool
}

// Bounce builds the spring-return-to-boundary action described by b.
func Bounce(b kinematics.Bounce, onTick func(position float32)) *BounceAction {
	return &BounceAction{b: b, onTick: onTick}
}

// Update advances the bounce action by dt seconds.
func (b *BounceAction) Update(dt float32) bool {
	if b.finished {
		return true
	}
	b.elapsed += dt
	done := b.elapsed >= b.b.TTotal
	t := b.elapsed
	if done {
		t = b.b.TTotal
	}
	if b.onTick != nil {
		b.onTick(b.b.PositionAt(t))
	}
	b.finished = done
	return done
}
