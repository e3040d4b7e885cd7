package world

import (
	"testing"

	"github.com/ByteArena/box2d"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/robot"
)

// fakeObjective carries only the capability flags the world consults
type fakeObjective struct {
	position bool
	rotation bool
}

func (o fakeObjective) NeedsAPosition() bool { return o.position }

func (o fakeObjective) NeedsARotation() bool { return o.rotation }

// fakeRobot is a single-body robot for oracle tests
type fakeRobot struct {
	robot.Base
	body *box2d.B2Body
}

func newFakeRobot(name string, sim *physics.Sim,
	pos box2d.B2Vec2) *fakeRobot {
	r := &fakeRobot{Base: robot.NewBase(name, sim, pos, 0)}
	r.body = sim.CreateBox(physics.Kinematic, pos, 0, 0.1, 0.1)
	return r
}

func (r *fakeRobot) Build() {}

func (r *fakeRobot) Bodies() []*box2d.B2Body { return []*box2d.B2Body{r.body} }

func (r *fakeRobot) MoveToPosition(p box2d.B2Vec2) {
	r.body.SetTransform(p, 0)
}

func (r *fakeRobot) MoveToPositionAndOrientation(p box2d.B2Vec2, a float64) {
	r.body.SetTransform(p, a)
}

func (r *fakeRobot) ProcessAction([]float64) float64 { return 0 }

func (r *fakeRobot) ActionSpaceDims() (int, int) { return 2, 2 }

func (r *fakeRobot) EePosition() box2d.B2Vec2 { return r.body.GetPosition() }

func (r *fakeRobot) EeAngle() float64 { return r.body.GetAngle() }

func (r *fakeRobot) Joints() []float64 { return nil }

func (r *fakeRobot) JointLimits() []r1.Interval { return nil }

func testWorkspace() Bounds {
	return Bounds{
		X: r1.Interval{Min: -1, Max: 1},
		Y: r1.Interval{Min: -1, Max: 1},
	}
}

func TestRegisterRobotsAssignsIDsAndPartitions(t *testing.T) {
	sim := physics.New(0.1)
	defer sim.Close()

	r1f := newFakeRobot("a", sim, box2d.MakeB2Vec2(-0.5, 0))
	r2f := newFakeRobot("b", sim, box2d.MakeB2Vec2(0.5, 0))
	r3f := newFakeRobot("c", sim, box2d.MakeB2Vec2(0, 0.5))

	r1f.SetGoal(fakeObjective{position: true})
	r2f.SetGoal(fakeObjective{position: true, rotation: true})
	// r3f has no goal at all

	b := NewBase(sim, testWorkspace())
	b.RegisterRobots([]robot.Robot{r1f, r2f, r3f})

	assert.Equal(t, 0, r1f.ID())
	assert.Equal(t, 1, r2f.ID())
	assert.Equal(t, 2, r3f.ID())

	require.Len(t, b.Robots, 3)
	assert.Equal(t, []robot.Robot{r1f, r2f}, b.RobotsWithPosition)
	assert.Equal(t, []robot.Robot{r2f}, b.RobotsWithRotation)
}

func TestOracleDetectsRobotAgainstWorld(t *testing.T) {
	sim := physics.New(0.1)
	defer sim.Close()

	r := newFakeRobot("a", sim, box2d.MakeB2Vec2(0, 0))

	b := NewBase(sim, testWorkspace())
	b.RegisterRobots([]robot.Robot{r})
	b.Objects = append(b.Objects,
		sim.CreateBox(physics.Static, box2d.MakeB2Vec2(0.05, 0), 0, 0.1, 0.1))

	b.PerformCollisionCheck()
	assert.True(t, b.InCollision())

	// Move the robot clear of the obstacle
	r.MoveToPosition(box2d.MakeB2Vec2(0.7, 0.7))
	b.PerformCollisionCheck()
	assert.False(t, b.InCollision())
}

func TestOracleDetectsRobotAgainstRobot(t *testing.T) {
	sim := physics.New(0.1)
	defer sim.Close()

	r1f := newFakeRobot("a", sim, box2d.MakeB2Vec2(0, 0))
	r2f := newFakeRobot("b", sim, box2d.MakeB2Vec2(0.05, 0))

	b := NewBase(sim, testWorkspace())
	b.RegisterRobots([]robot.Robot{r1f, r2f})

	b.PerformCollisionCheck()
	assert.True(t, b.InCollision(), "no world objects, robots overlap")

	r2f.MoveToPosition(box2d.MakeB2Vec2(0.8, 0.8))
	b.PerformCollisionCheck()
	assert.False(t, b.InCollision())
}

func TestResetBaseClearsEpisodeState(t *testing.T) {
	sim := physics.New(0.1)
	defer sim.Close()

	b := NewBase(sim, testWorkspace())
	b.Objects = append(b.Objects,
		sim.CreateBox(physics.Static, box2d.MakeB2Vec2(0, 0), 0, 0.1, 0.1))
	b.PositionTargets = []box2d.B2Vec2{box2d.MakeB2Vec2(1, 1)}
	b.RotationTargets = []float64{1}

	b.ResetBase()
	assert.Empty(t, b.Objects)
	assert.Nil(t, b.PositionTargets)
	assert.Nil(t, b.RotationTargets)
	assert.False(t, b.InCollision())
}

func TestTargetLookupFallsBackToZero(t *testing.T) {
	sim := physics.New(0.1)
	defer sim.Close()

	b := NewBase(sim, testWorkspace())
	b.PositionTargets = []box2d.B2Vec2{box2d.MakeB2Vec2(0.5, 0.5)}

	assert.Equal(t, box2d.MakeB2Vec2(0.5, 0.5), b.PositionTarget(0))
	assert.Equal(t, box2d.MakeB2Vec2(0, 0), b.PositionTarget(3))
	assert.Equal(t, box2d.MakeB2Vec2(0, 0), b.PositionTarget(-1))
	assert.Equal(t, 0.0, b.RotationTarget(0))
}

func TestBoundsContains(t *testing.T) {
	ws := testWorkspace()
	assert.True(t, ws.Contains(box2d.MakeB2Vec2(0, 0)))
	assert.True(t, ws.Contains(box2d.MakeB2Vec2(1, -1)))
	assert.False(t, ws.Contains(box2d.MakeB2Vec2(1.01, 0)))
	assert.False(t, ws.Contains(box2d.MakeB2Vec2(0, -1.5)))
}
