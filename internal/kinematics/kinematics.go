// Package kinematics implements closed-form momentum and bounce
// physics: exact initial-velocity ODE solutions (constant deceleration,
// spring-capped overshoot), not Penner easing curves, so they are
// hand-rolled here rather than expressed with github.com/tanema/gween
// (which internal/action uses for everything that is a plain value
// tween between two fixed endpoints).
package kinematics

import "math"

// Deceleration is the magnitude of deceleration applied during a
// finalize (momentum) animation, in logical units per second squared.
const Deceleration = 5000

// SpringAcceleration is the restoring acceleration used by a bounce
// segment.
const SpringAcceleration = 5000

// MinSpringCap is the floor for a bounce segment's acceleration cap.
const MinSpringCap = 25000

// SpringCapVelocityFactor scales residual velocity into the bounce's
// acceleration cap: cap = max(MinSpringCap, factor*|v|).
const SpringCapVelocityFactor = 50

// BounceCompressionDivisor is the "d/5" in the overscroll-drag
// compression formula Δ ← Δ / (1 + d/5).
const BounceCompressionDivisor = 5

// SnapThreshold is the minimum animated path length (logical units);
// anything shorter snaps immediately instead of animating.
const SnapThreshold = 2

// Finalize describes a momentum animation launched when a manual swipe
// ends with some initial velocity v0. a is the signed deceleration
// (opposite sign from v0), T is the total duration to rest, and P is
// the total signed path travelled.
type Finalize struct {
	V0 float32
	A  float32
	T  float32
	P  float32
}

// clampVelocity bounds v to [-max,max] when max > 0.
func clampVelocity(v, max float32) float32 {
	if max <= 0 {
		return v
	}
	if v > max {
		return max
	}
	if v < -max {
		return -max
	}
	return v
}

// NewFinalize computes the momentum animation for a swipe ending with
// velocity v0 (clamped to maxVelocity when it is > 0).
func NewFinalize(v0, maxVelocity float32) Finalize {
	v0 = clampVelocity(v0, maxVelocity)
	sign := float32(1)
	if v0 < 0 {
		sign = -1
	}
	a := -sign * Deceleration
	if v0 == 0 {
		return Finalize{}
	}
	t := float32(math.Abs(float64(v0 / a)))
	p := v0*t + 0.5*a*t*t
	return Finalize{V0: v0, A: a, T: t, P: p}
}

// PositionAt evaluates the finalize animation's displacement from the
// starting position at elapsed time t (clamped to [0,T]).
func (f Finalize) PositionAt(t float32) float32 {
	if t > f.T {
		t = f.T
	}
	if t < 0 {
		t = 0
	}
	return f.V0*t + 0.5*f.A*t*t
}

// VelocityAt evaluates the finalize animation's instantaneous velocity
// at elapsed time t.
func (f Finalize) VelocityAt(t float32) float32 {
	if t > f.T {
		t = f.T
	}
	if t < 0 {
		t = 0
	}
	return f.V0 + f.A*t
}

// TimeToDisplacement returns the elapsed time at which the finalize
// animation's displacement first reaches target (assumed to lie between
// 0 and f.P), solving the quadratic V0*t + 0.5*A*t^2 = target for the
// root in [0, f.T]. ok is false if no such root exists in range.
func (f Finalize) TimeToDisplacement(target float32) (t float32, ok bool) {
	if f.A == 0 {
		if f.V0 == 0 {
			return 0, target == 0
		}
		t = target / f.V0
		return t, t >= 0 && t <= f.T
	}
	// 0.5*A*t^2 + V0*t - target = 0
	a64, b64, c64 := float64(0.5*f.A), float64(f.V0), float64(-target)
	disc := b64*b64 - 4*a64*c64
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	r1 := (-b64 + sq) / (2 * a64)
	r2 := (-b64 - sq) / (2 * a64)
	best, found := math.Inf(1), false
	for _, r := range []float64{r1, r2} {
		if r >= 0 && r <= float64(f.T)+1e-6 && r < best {
			best, found = r, true
		}
	}
	if !found {
		return 0, false
	}
	return float32(best), true
}

// SpringCap computes the acceleration cap for a bounce segment given
// the residual velocity entering it.
func SpringCap(residualVelocity float32) float32 {
	mag := float32(math.Abs(float64(residualVelocity)))
	cap := SpringCapVelocityFactor * mag
	if cap < MinSpringCap {
		cap = MinSpringCap
	}
	return cap
}

// Bounce describes a spring-return-to-boundary segment: position
// interpolates from the boundary outward (signed by v) and back,
// bounded by the acceleration cap.
type Bounce struct {
	Boundary  float32
	V0        float32
	ASpring   float32
	ACap      float32
	Overshoot float32 // signed peak displacement past Boundary
	TPeak     float32 // time of peak overshoot
	TTotal    float32 // time to settle back at Boundary
}

// NewBounce computes a bounce segment for residual velocity v entering
// the boundary b (the position is assumed to start exactly at b).
func NewBounce(boundary, v float32) Bounce {
	aCap := SpringCap(v)
	aSpring := float32(SpringAcceleration)
	if v == 0 {
		return Bounce{Boundary: boundary, ASpring: aSpring, ACap: aCap}
	}
	// The mass overshoots under initial velocity v and is decelerated by
	// a restoring acceleration bounded by aCap, opposing v's sign.
	sign := float32(1)
	if v < 0 {
		sign = -1
	}
	a := -sign * minf(aSpring, aCap)
	if a == 0 {
		a = -sign * aCap
	}
	tPeak := float32(math.Abs(float64(v / a)))
	overshoot := v*tPeak + 0.5*a*tPeak*tPeak
	tTotal := 2 * tPeak
	return Bounce{
		Boundary:  boundary,
		V0:        v,
		ASpring:   aSpring,
		ACap:      aCap,
		Overshoot: overshoot,
		TPeak:     tPeak,
		TTotal:    tTotal,
	}
}

// PositionAt evaluates the bounce segment's absolute position at
// elapsed time t (clamped to [0, TTotal]); it always starts and ends at
// Boundary.
func (b Bounce) PositionAt(t float32) float32 {
	if t <= 0 {
		return b.Boundary
	}
	if t >= b.TTotal {
		return b.Boundary
	}
	if t <= b.TPeak {
		sign := float32(1)
		if b.V0 < 0 {
			sign = -1
		}
		a := -sign * minf(b.ASpring, b.ACap)
		return b.Boundary + b.V0*t + 0.5*a*t*t
	}
	// Return leg: mirror the outbound leg's quadratic shape, decaying
	// the overshoot back to zero by TTotal.
	s := t - b.TPeak
	frac := s / b.TPeak
	return b.Boundary + b.Overshoot*(1-frac*frac)
}

// Compress applies the overscroll-drag compression formula Δ ← Δ / (1
// + d/5), where d is the distance already dragged past the boundary.
func Compress(delta, distancePastBoundary float32) float32 {
	return delta / (1 + distancePastBoundary/BounceCompressionDivisor)
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
