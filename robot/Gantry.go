package robot

import (
	"time"

	"github.com/ByteArena/box2d"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/utils/floatutils"
)

// GantryDims is the action dimensionality of a Gantry. The two
// prismatic axes double as the joint space, so inverse kinematics and
// joint control coincide.
const GantryDims int = 2

// Gantry is a planar gantry effector: a single body riding two
// prismatic axes. The simplest robot variant, mostly useful for
// testing worlds and goals without inverse kinematics in the loop.
type Gantry struct {
	Base

	travelX r1.Interval
	travelY r1.Interval
	halfExt float64
	vel     float64 // max travel per tick

	position box2d.B2Vec2
	angle    float64
	body     *box2d.B2Body
}

// NewGantry creates a gantry whose effector travels within the given
// x and y intervals
func NewGantry(name string, sim *physics.Sim, travelX, travelY r1.Interval,
	halfExt, vel float64) *Gantry {
	home := box2d.MakeB2Vec2((travelX.Min+travelX.Max)/2,
		(travelY.Min+travelY.Max)/2)
	return &Gantry{
		Base:     NewBase(name, sim, home, 0),
		travelX:  travelX,
		travelY:  travelY,
		halfExt:  halfExt,
		vel:      vel,
		position: home,
	}
}

// Build spawns the effector body at the travel center
func (g *Gantry) Build() {
	g.position = g.BasePosition()
	g.angle = 0
	g.body = g.Sim().CreateBox(physics.Kinematic, g.position, g.angle,
		g.halfExt, g.halfExt)
}

// Bodies returns the single effector body
func (g *Gantry) Bodies() []*box2d.B2Body {
	return []*box2d.B2Body{g.body}
}

// ActionSpaceDims returns (ik dims, joint dims); for a gantry both
// control modes drive the same two axes
func (g *Gantry) ActionSpaceDims() (int, int) {
	return GantryDims, GantryDims
}

// Joints returns the axis positions
func (g *Gantry) Joints() []float64 {
	return []float64{g.position.X, g.position.Y}
}

// JointLimits returns the travel intervals of the two axes
func (g *Gantry) JointLimits() []r1.Interval {
	return []r1.Interval{g.travelX, g.travelY}
}

// EePosition returns the effector position
func (g *Gantry) EePosition() box2d.B2Vec2 {
	return g.position
}

// EeAngle returns the effector orientation
func (g *Gantry) EeAngle() float64 {
	return floatutils.WrapAngle(g.angle)
}

// MoveToPosition teleports the effector, clipped to its travel
func (g *Gantry) MoveToPosition(p box2d.B2Vec2) {
	g.position = box2d.MakeB2Vec2(
		floatutils.ClipInterval(p.X, g.travelX),
		floatutils.ClipInterval(p.Y, g.travelY))
	g.sync()
}

// MoveToPositionAndOrientation teleports the effector and rotates it
func (g *Gantry) MoveToPositionAndOrientation(p box2d.B2Vec2, angle float64) {
	g.angle = angle
	g.MoveToPosition(p)
}

// ProcessAction displaces the effector by the scaled per-tick travel
// velocity and returns the wall clock cost in seconds
func (g *Gantry) ProcessAction(action []float64) float64 {
	start := time.Now()

	g.position = box2d.MakeB2Vec2(
		floatutils.ClipInterval(g.position.X+action[0]*g.vel, g.travelX),
		floatutils.ClipInterval(g.position.Y+action[1]*g.vel, g.travelY))
	g.sync()

	return time.Since(start).Seconds()
}

func (g *Gantry) sync() {
	if g.body != nil {
		g.body.SetTransform(g.position, g.angle)
	}
}
