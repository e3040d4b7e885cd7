package sensor

import (
	"math"
	"testing"

	"github.com/ByteArena/box2d"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/robot"
	"github.com/modrl/modrl/world"
)

const simStep = 0.1

func newTestGantry(sim *physics.Sim) *robot.Gantry {
	g := robot.NewGantry("g", sim, r1.Interval{Min: -1, Max: 1},
		r1.Interval{Min: -1, Max: 1}, 0.05, 0.1)
	g.Build()
	return g
}

func TestJointsNormalizedObservation(t *testing.T) {
	sim := physics.New(simStep)
	defer sim.Close()
	g := newTestGantry(sim)

	s := NewJoints(true, true, true, simStep, g)
	s.Reset()

	obs := s.Observation()
	require.Contains(t, obs, "g_joints")
	// The gantry starts at its travel center, which normalizes to zero
	assert.InDeltaSlice(t, []float64{0, 0}, obs["g_joints"], 1e-12)
}

func TestJointsVelocityEstimate(t *testing.T) {
	sim := physics.New(simStep)
	defer sim.Close()
	g := newTestGantry(sim)

	s := NewJoints(false, true, true, simStep, g)
	s.Reset()

	g.ProcessAction([]float64{1, 1})
	s.Update()

	rec := s.DataForLogging()
	v, ok := rec.Get("joint_velocities_g")
	require.True(t, ok)
	// One tick of full travel velocity, differentiated over the step
	assert.InDeltaSlice(t, []float64{1, 1}, v.([]float64), 1e-9)

	a, ok := rec.Get("joints_g")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0.1, 0.1}, a.([]float64), 1e-9)
}

func TestJointsSpaceBounds(t *testing.T) {
	sim := physics.New(simStep)
	defer sim.Close()
	g := newTestGantry(sim)

	raw := NewJoints(false, true, false, simStep, g)
	elems := raw.ObservationSpaceElement()
	require.Len(t, elems, 1)
	assert.Equal(t, "g_joints", elems[0].Key)
	assert.Equal(t, -1.0, elems[0].Space.LowerBound.AtVec(0))
	assert.Equal(t, 1.0, elems[0].Space.UpperBound.AtVec(1))

	norm := NewJoints(true, true, false, simStep, g)
	elems = norm.ObservationSpaceElement()
	assert.Equal(t, -1.0, elems[0].Space.LowerBound.AtVec(0))
	assert.Equal(t, 1.0, elems[0].Space.UpperBound.AtVec(0))
}

func TestPoseObservation(t *testing.T) {
	sim := physics.New(simStep)
	defer sim.Close()
	g := newTestGantry(sim)

	bounds := world.Bounds{
		X: r1.Interval{Min: -1, Max: 1},
		Y: r1.Interval{Min: -1, Max: 1},
	}
	s := NewPose(true, true, true, simStep, g, bounds)
	s.Reset()

	g.MoveToPositionAndOrientation(box2d.MakeB2Vec2(0.5, -0.5), math.Pi/2)
	s.Update()

	obs := s.Observation()
	require.Contains(t, obs, "g_position")
	require.Contains(t, obs, "g_rotation")
	assert.InDeltaSlice(t, []float64{0.5, -0.5}, obs["g_position"], 1e-9)
	assert.InDelta(t, 0.5, obs["g_rotation"][0], 1e-9)
}

func TestPoseVelocityEstimate(t *testing.T) {
	sim := physics.New(simStep)
	defer sim.Close()
	g := newTestGantry(sim)

	s := NewPose(false, true, true, simStep, g,
		world.Bounds{X: r1.Interval{Min: -1, Max: 1},
			Y: r1.Interval{Min: -1, Max: 1}})
	s.Reset()

	g.MoveToPosition(box2d.MakeB2Vec2(0.2, 0))
	s.Update()

	rec := s.DataForLogging()
	v, ok := rec.Get("velocity_g")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{2, 0}, v.([]float64), 1e-9)
}

func TestPoseSpaceElements(t *testing.T) {
	sim := physics.New(simStep)
	defer sim.Close()
	g := newTestGantry(sim)

	bounds := world.Bounds{
		X: r1.Interval{Min: -2, Max: 2},
		Y: r1.Interval{Min: -3, Max: 3},
	}
	s := NewPose(false, true, false, simStep, g, bounds)

	elems := s.ObservationSpaceElement()
	require.Len(t, elems, 2)
	assert.Equal(t, "g_position", elems[0].Key)
	assert.Equal(t, "g_rotation", elems[1].Key)
	assert.Equal(t, -2.0, elems[0].Space.LowerBound.AtVec(0))
	assert.Equal(t, 3.0, elems[0].Space.UpperBound.AtVec(1))
}

func TestProximityMeasuresNearestObstacle(t *testing.T) {
	sim := physics.New(simStep)
	defer sim.Close()
	g := newTestGantry(sim)

	// A wall to the right of the effector, closest edge at x = 0.5
	sim.CreateBox(physics.Static, box2d.MakeB2Vec2(0.6, 0), 0, 0.1, 0.5)

	s := NewProximity(false, true, true, simStep, g, sim, 4, 1.0)
	s.Reset()

	obs := s.Observation()
	require.Contains(t, obs, "g_proximity")
	dists := obs["g_proximity"]
	require.Len(t, dists, 4)

	// Ray 0 points along the effector heading (+x) into the wall; the
	// remaining rays hit nothing and report the full ray length
	assert.InDelta(t, 0.5, dists[0], 1e-3)
	assert.Equal(t, 1.0, dists[1])
	assert.Equal(t, 1.0, dists[2])
	assert.Equal(t, 1.0, dists[3])
}

func TestProximityExcludesOwnBodies(t *testing.T) {
	sim := physics.New(simStep)
	defer sim.Close()
	g := newTestGantry(sim)

	// Nothing but the robot itself in the scene
	s := NewProximity(true, true, false, simStep, g, sim, 8, 2.0)
	s.Reset()

	for _, d := range s.Observation()["g_proximity"] {
		assert.Equal(t, 1.0, d)
	}
}

func TestProximityNormalization(t *testing.T) {
	sim := physics.New(simStep)
	defer sim.Close()
	g := newTestGantry(sim)

	sim.CreateBox(physics.Static, box2d.MakeB2Vec2(1.1, 0), 0, 0.1, 0.5)

	s := NewProximity(true, true, false, simStep, g, sim, 4, 2.0)
	s.Reset()

	// Edge at x = 1.0 along a 2 meter ray normalizes to one half
	assert.InDelta(t, 0.5, s.Observation()["g_proximity"][0], 1e-3)
}

func TestProximityRejectsBadConfig(t *testing.T) {
	sim := physics.New(simStep)
	defer sim.Close()
	g := newTestGantry(sim)

	assert.Panics(t, func() {
		NewProximity(false, true, false, simStep, g, sim, 0, 1.0)
	})
	assert.Panics(t, func() {
		NewProximity(false, true, false, simStep, g, sim, 4, 0)
	})
}

func TestLoggingOptOutReturnsNoRecord(t *testing.T) {
	sim := physics.New(simStep)
	defer sim.Close()
	g := newTestGantry(sim)

	joints := NewJoints(false, true, false, simStep, g)
	joints.Reset()
	assert.Nil(t, joints.DataForLogging())

	prox := NewProximity(false, true, false, simStep, g, sim, 4, 1.0)
	prox.Reset()
	assert.Nil(t, prox.DataForLogging())
}
