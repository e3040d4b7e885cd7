package goal

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

// stubWorld serves fixed targets and a settable collision flag
type stubWorld struct {
	posTarget box2d.B2Vec2
	rotTarget float64
	collision bool
	workspace world.Bounds
}

func (w *stubWorld) Build() {}

func (w *stubWorld) Reset() {}

func (w *stubWorld) BuildVisualAux() {}

func (w *stubWorld) Update() {}

func (w *stubWorld) CreateEeStartingPoints() []world.EePose { return nil }

func (w *stubWorld) CreatePositionTarget() []box2d.B2Vec2 { return nil }

func (w *stubWorld) CreateRotationTarget() []float64 { return nil }

func (w *stubWorld) RegisterRobots(robots []robot.Robot) {
	for i, r := range robots {
		r.SetID(i)
	}
}

func (w *stubWorld) PerformCollisionCheck() {}

func (w *stubWorld) InCollision() bool { return w.collision }

func (w *stubWorld) PositionTarget(int) box2d.B2Vec2 { return w.posTarget }

func (w *stubWorld) RotationTarget(int) float64 { return w.rotTarget }

func (w *stubWorld) Workspace() world.Bounds { return w.workspace }

const maxSteps = 100

func newFixture(t *testing.T) (*physics.Sim, *robot.Gantry, *stubWorld) {
	t.Helper()
	sim := physics.New(0.1)
	t.Cleanup(sim.Close)

	g := robot.NewGantry("g", sim, r1.Interval{Min: -2, Max: 2},
		r1.Interval{Min: -2, Max: 2}, 0.05, 0.1)
	g.Build()

	w := &stubWorld{
		workspace: world.Bounds{
			X: r1.Interval{Min: -1, Max: 1},
			Y: r1.Interval{Min: -1, Max: 1},
		},
	}
	w.RegisterRobots([]robot.Robot{g})
	return sim, g, w
}

func TestRewardShapedByDistance(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionCollision(g, w, sim, maxSteps,
		false, false, true, false, false, false)

	w.posTarget = box2d.MakeB2Vec2(0.5, 0)
	g.MoveToPosition(box2d.MakeB2Vec2(0, 0))

	sig := goal.Reward(0)
	assert.InDelta(t, 0.5*distanceMult, sig.Reward, 1e-12)
	assert.False(t, sig.Success)
	assert.False(t, sig.Done)
	assert.False(t, sig.Timeout)
	assert.False(t, sig.OutOfBounds)
}

func TestSuccessWithinThreshold(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionCollision(g, w, sim, maxSteps,
		false, false, true, false, false, false)

	w.posTarget = box2d.MakeB2Vec2(0.05, 0)
	g.MoveToPosition(box2d.MakeB2Vec2(0, 0))

	sig := goal.Reward(3)
	assert.True(t, sig.Success)
	assert.True(t, sig.Done, "robot does not continue after success")
	assert.Equal(t, rewardSuccess, sig.Reward)
}

func TestContinueAfterSuccessKeepsEpisodeAlive(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionCollision(g, w, sim, maxSteps,
		false, false, true, false, false, true)

	w.posTarget = box2d.MakeB2Vec2(0, 0)
	g.MoveToPosition(box2d.MakeB2Vec2(0, 0))

	sig := goal.Reward(3)
	assert.True(t, sig.Success)
	assert.False(t, sig.Done)
}

func TestCollisionIsTerminalWithPenalty(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionCollision(g, w, sim, maxSteps,
		false, false, true, false, false, false)

	w.collision = true
	sig := goal.Reward(0)
	assert.Equal(t, rewardCollision, sig.Reward)
	assert.True(t, sig.Done)
	assert.False(t, sig.Success)
	assert.False(t, sig.OutOfBounds)
}

func TestLeavingWorkspaceIsTerminal(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionCollision(g, w, sim, maxSteps,
		false, false, true, false, false, false)

	// The gantry travel extends past the stub workspace
	g.MoveToPosition(box2d.MakeB2Vec2(1.5, 0))
	w.posTarget = box2d.MakeB2Vec2(-0.5, 0)

	sig := goal.Reward(0)
	assert.True(t, sig.OutOfBounds)
	assert.True(t, sig.Done)
	assert.Equal(t, rewardCollision, sig.Reward)
}

func TestTimeoutOnFinalBudgetedStep(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionCollision(g, w, sim, maxSteps,
		false, false, true, false, false, false)

	w.posTarget = box2d.MakeB2Vec2(0.9, 0.9)
	g.MoveToPosition(box2d.MakeB2Vec2(0, 0))

	sig := goal.Reward(maxSteps - 2)
	assert.False(t, sig.Timeout)

	sig = goal.Reward(maxSteps - 1)
	assert.True(t, sig.Timeout)
	assert.True(t, sig.Done)
}

func TestThresholdAdaptsToSuccessRate(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionCollision(g, w, sim, maxSteps,
		false, false, true, false, true, false)

	require.Equal(t, thresholdStart, goal.Threshold())

	goal.OnEnvReset(1.0)
	assert.InDelta(t, thresholdStart-thresholdShrink, goal.Threshold(), 1e-12)

	goal.OnEnvReset(0.0)
	assert.InDelta(t, thresholdStart-thresholdShrink+thresholdGrow,
		goal.Threshold(), 1e-12)

	// Middling performance leaves the threshold alone
	before := goal.Threshold()
	goal.OnEnvReset(0.5)
	assert.Equal(t, before, goal.Threshold())

	// The threshold never shrinks past its floor
	for i := 0; i < 100; i++ {
		goal.OnEnvReset(1.0)
	}
	assert.InDelta(t, thresholdEnd, goal.Threshold(), 1e-12)
}

func TestThresholdFrozenOutsideTraining(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionCollision(g, w, sim, maxSteps,
		false, false, true, false, false, false)

	goal.OnEnvReset(1.0)
	goal.OnEnvReset(0.0)
	assert.Equal(t, thresholdStart, goal.Threshold())
}

func TestNormalizedRewardsScaleBySuccessReward(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionCollision(g, w, sim, maxSteps,
		true, false, true, false, false, false)

	w.posTarget = box2d.MakeB2Vec2(0, 0)
	g.MoveToPosition(box2d.MakeB2Vec2(0, 0))
	assert.Equal(t, 1.0, goal.Reward(0).Reward)

	w.collision = true
	assert.Equal(t, -1.0, goal.Reward(1).Reward)
}

func TestObservationIsTargetOffset(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionCollision(g, w, sim, maxSteps,
		false, false, true, false, false, false)

	w.posTarget = box2d.MakeB2Vec2(0.5, -0.25)
	g.MoveToPosition(box2d.MakeB2Vec2(0, 0))

	obs := goal.Observation()
	require.Contains(t, obs, "g_distance")
	assert.InDeltaSlice(t, []float64{0.5, -0.25}, obs["g_distance"], 1e-9)

	elems := goal.ObservationSpaceElement()
	require.Len(t, elems, 1)
	assert.Equal(t, "g_distance", elems[0].Key)
}

func TestGoalRegistersAsRobotObjective(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionCollision(g, w, sim, maxSteps,
		false, false, true, false, false, false)

	require.NotNil(t, g.Goal())
	assert.True(t, g.Goal().NeedsAPosition())
	assert.False(t, g.Goal().NeedsARotation())
	assert.Same(t, g, goal.Robot())
}

func TestPositionRotationRequiresOrientation(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionRotation(g, w, sim, maxSteps,
		false, false, true, false, false, false)

	assert.True(t, g.Goal().NeedsARotation())

	w.posTarget = box2d.MakeB2Vec2(0, 0)
	w.rotTarget = math.Pi / 2

	// On target positionally but pointing the wrong way
	g.MoveToPositionAndOrientation(box2d.MakeB2Vec2(0, 0), 0)
	sig := goal.Reward(0)
	assert.False(t, sig.Success)
	assert.False(t, sig.Done)
	assert.Less(t, sig.Reward, 0.0)

	// Aligned within tolerance
	g.MoveToPositionAndOrientation(box2d.MakeB2Vec2(0, 0), math.Pi/2)
	sig = goal.Reward(1)
	assert.True(t, sig.Success)
	assert.True(t, sig.Done)
	assert.Equal(t, rewardSuccess, sig.Reward)
}

func TestPositionRotationObservationAddsAngle(t *testing.T) {
	sim, g, w := newFixture(t)
	goal := NewPositionRotation(g, w, sim, maxSteps,
		false, false, true, false, false, false)

	w.rotTarget = 1.0
	g.MoveToPositionAndOrientation(box2d.MakeB2Vec2(0, 0), 0.25)

	obs := goal.Observation()
	require.Contains(t, obs, "g_angle_delta")
	assert.InDelta(t, 0.75, obs["g_angle_delta"][0], 1e-9)

	elems := goal.ObservationSpaceElement()
	require.Len(t, elems, 2)
	assert.Equal(t, "g_angle_delta", elems[1].Key)
}

func TestRejectsNonPositiveStepBudget(t *testing.T) {
	sim, g, w := newFixture(t)
	assert.Panics(t, func() {
		NewPositionCollision(g, w, sim, 0, false, false, true, false, false, false)
	})
}
