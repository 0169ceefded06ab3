package physics

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint3d/glint/internal/core/observability/log"
)

func TestBodyFallsUnderGravity(t *testing.T) {
	s := New(log.NewNop(), WithGravity(0, -10))

	body := s.AddBody(cp.NewBody(1, cp.MomentForCircle(1, 0, 0.5, cp.Vector{})))
	body.SetPosition(cp.Vector{X: 0, Y: 100})
	s.AddShape(cp.NewCircle(body, 0.5, cp.Vector{}))

	for i := 0; i < 60; i++ {
		require.NoError(t, s.Update(1.0/60.0))
	}

	// after one second of free fall the body has dropped
	assert.Less(t, body.Position().Y, 100.0)
	assert.InDelta(t, -10.0, body.Velocity().Y, 0.5)
}

func TestSubstepsMatchSingleStepTotalTime(t *testing.T) {
	coarse := New(log.NewNop(), WithGravity(0, -10))
	fine := New(log.NewNop(), WithGravity(0, -10), WithSubsteps(4))

	cb := coarse.AddBody(cp.NewBody(1, cp.MomentForCircle(1, 0, 0.5, cp.Vector{})))
	fb := fine.AddBody(cp.NewBody(1, cp.MomentForCircle(1, 0, 0.5, cp.Vector{})))

	require.NoError(t, coarse.Update(0.1))
	require.NoError(t, fine.Update(0.1))

	// same simulated time, so velocities agree for a free body
	assert.InDelta(t, cb.Velocity().Y, fb.Velocity().Y, 1e-6)
}

func TestZeroDeltaIsNoOp(t *testing.T) {
	s := New(log.NewNop())
	body := s.AddBody(cp.NewBody(1, 1))
	body.SetPosition(cp.Vector{X: 0, Y: 5})

	require.NoError(t, s.Update(0))
	assert.Equal(t, 5.0, body.Position().Y)
}

func TestRemoveBodyStopsSimulatingIt(t *testing.T) {
	s := New(log.NewNop(), WithGravity(0, -10))
	body := s.AddBody(cp.NewBody(1, 1))
	body.SetPosition(cp.Vector{X: 0, Y: 5})

	s.RemoveBody(body)
	require.NoError(t, s.Update(0.5))

	assert.Equal(t, 5.0, body.Position().Y)
}

func TestSystemIdentity(t *testing.T) {
	s := New(log.NewNop())
	assert.Equal(t, "physics", s.Name())
	assert.True(t, s.Enabled())
	assert.NotNil(t, s.Space())
	assert.NotNil(t, s.StaticBody())

	x, y := s.Gravity()
	assert.Equal(t, 0.0, x)
	assert.Equal(t, DefaultGravity, y)
}
