// Package robot outlines the capability contract that every robot
// plugin must satisfy, together with concrete planar robots. The
// orchestrator never branches on a concrete robot type; it drives
// robots exclusively through the Robot interface.
package robot

import (
	"github.com/ByteArena/box2d"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/modrl/modrl/physics"
)

// Objective is the narrow view of a goal that a robot carries. It
// exists so robots and worlds can read a goal's capability flags
// without depending on the goal package.
type Objective interface {
	NeedsAPosition() bool
	NeedsARotation() bool
}

// Robot is the capability contract for robot plugins. A robot is
// identified by a name and an integer id assigned at registration
// time, owns exactly one goal, and exposes its action-space
// dimensionality split by control mode.
type Robot interface {
	Name() string
	ID() int
	SetID(id int)

	// Build spawns the robot into the simulation at its resting
	// configuration. It is called once per initialization attempt,
	// after the engine has been reset.
	Build()

	// Bodies returns the simulation bodies making up the robot, used
	// for collision queries
	Bodies() []*box2d.B2Body

	// MoveToPosition and MoveToPositionAndOrientation teleport the end
	// effector during episode initialization
	MoveToPosition(p box2d.B2Vec2)
	MoveToPositionAndOrientation(p box2d.B2Vec2, angle float64)

	// ProcessAction applies one control tick and returns the wall
	// clock cost of doing so, in seconds
	ProcessAction(action []float64) float64

	// ActionSpaceDims returns the action dimensionality for inverse
	// kinematics control and for joint control
	ActionSpaceDims() (ikDims, jointDims int)

	EePosition() box2d.B2Vec2
	EeAngle() float64
	Joints() []float64
	JointLimits() []r1.Interval

	SetGoal(Objective)
	Goal() Objective
}

// Base holds the fields common to every robot implementation
type Base struct {
	name         string
	id           int
	sim          *physics.Sim
	basePosition box2d.B2Vec2
	baseAngle    float64
	goal         Objective
}

// NewBase returns a Base for embedding in concrete robots
func NewBase(name string, sim *physics.Sim, basePosition box2d.B2Vec2,
	baseAngle float64) Base {
	return Base{
		name:         name,
		id:           -1,
		sim:          sim,
		basePosition: basePosition,
		baseAngle:    baseAngle,
	}
}

// Name returns the robot's name
func (b *Base) Name() string {
	return b.name
}

// ID returns the registration id of the robot, or -1 before the robot
// has been registered with a world
func (b *Base) ID() int {
	return b.id
}

// SetID sets the registration id. Called once by the world when the
// robot is registered.
func (b *Base) SetID(id int) {
	b.id = id
}

// Sim returns the simulation handle the robot was constructed with
func (b *Base) Sim() *physics.Sim {
	return b.sim
}

// BasePosition returns the fixed base position of the robot
func (b *Base) BasePosition() box2d.B2Vec2 {
	return b.basePosition
}

// BaseAngle returns the fixed base orientation of the robot
func (b *Base) BaseAngle() float64 {
	return b.baseAngle
}

// SetGoal binds the robot's goal. Each robot owns exactly one goal.
func (b *Base) SetGoal(g Objective) {
	b.goal = g
}

// Goal returns the goal bound to this robot
func (b *Base) Goal() Objective {
	return b.goal
}
