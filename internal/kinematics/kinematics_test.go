package kinematics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMomentumWithoutOvershoot mirrors scenario 1: range 0..1000,
// size 400, position 0, swipe-end velocity 800, a = -5000.
func TestMomentumWithoutOvershoot(t *testing.T) {
	f := NewFinalize(800, 0)
	assert.InDelta(t, -5000, f.A, 1e-6)
	assert.InDelta(t, 0.16, f.T, 1e-3)
	assert.InDelta(t, 64, f.P, 1e-2)
	assert.InDelta(t, 0, f.VelocityAt(f.T), 1e-2)
}

func TestMomentumClampsToMaxVelocity(t *testing.T) {
	f := NewFinalize(5000, 1000)
	assert.InDelta(t, 1000, f.V0, 1e-6)
}

func TestMomentumWithBounceResidualVelocity(t *testing.T) {
	// Range 0..100, size 400, position 50, velocity 2000 (scenario 2).
	// Exit velocity after 50 units at a = -5000 is
	// sqrt(2000^2 - 2*5000*50) = sqrt(3.5e6) ≈ 1871.
	f := NewFinalize(2000, 0)
	tExit, ok := f.TimeToDisplacement(50) // distance from p=50 to boundary b=100
	assert.True(t, ok)
	residual := f.VelocityAt(tExit)
	assert.InDelta(t, 1871, residual, 5)
}

func TestSpringCapUsesFloorWhenVelocitySmall(t *testing.T) {
	assert.Equal(t, float32(MinSpringCap), SpringCap(10))
}

func TestSpringCapScalesWithVelocity(t *testing.T) {
	v := float32(1414)
	assert.Equal(t, SpringCapVelocityFactor*v, SpringCap(v))
}

func TestBounceSettlesAtBoundary(t *testing.T) {
	b := NewBounce(100, 1414)
	assert.InDelta(t, 100, b.PositionAt(0), 1e-6)
	assert.InDelta(t, 100, b.PositionAt(b.TTotal), 1e-2)
	assert.Greater(t, b.PositionAt(b.TPeak), float32(100), "should overshoot past the boundary at peak")
}

func TestCompressReducesDeltaPastBoundary(t *testing.T) {
	full := Compress(-10, 0)
	compressed := Compress(-10, 25)
	assert.Equal(t, float32(-10), full)
	assert.Less(t, compressed, float32(0))
	assert.Greater(t, compressed, float32(-10))
}
