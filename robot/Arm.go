package robot

import (
	"fmt"
	"math"
	"time"

	"github.com/ByteArena/box2d"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/utils/floatutils"
)

const (
	// ArmIkDims is the action dimensionality of an Arm under inverse
	// kinematics control: a planar end effector displacement
	ArmIkDims int = 2

	// ccdIterations bounds the cyclic coordinate descent passes per
	// control tick; teleports during initialization use more passes
	ccdIterations     int = 10
	teleportPasses    int = 100
	ccdTolerance          = 1e-4
	defaultLinkWidth      = 0.02
)

// Arm is a planar serial manipulator with revolute joints. Links are
// kinematic boxes; control either displaces the end effector (inverse
// kinematics mode, solved with cyclic coordinate descent) or
// increments the joint angles directly (joint mode).
type Arm struct {
	Base

	linkLengths   []float64
	linkWidth     float64
	restingAngles []float64
	jointAngles   []float64
	jointLimits   []r1.Interval

	xyVel    float64 // max end effector displacement per tick
	jointVel float64 // max joint delta per tick, radians

	controlJoints bool
	bodies        []*box2d.B2Body
}

// NewArm creates a planar arm with one revolute joint per link. The
// resting angles are the joint configuration the arm is rebuilt into
// at the start of every initialization attempt.
func NewArm(name string, sim *physics.Sim, basePosition box2d.B2Vec2,
	baseAngle float64, linkLengths, restingAngles []float64,
	jointLimits []r1.Interval, controlJoints bool,
	xyVel, jointVel float64) *Arm {
	if len(linkLengths) != len(restingAngles) ||
		len(linkLengths) != len(jointLimits) {
		panic(fmt.Sprintf("newArm: %v links need matching resting angles "+
			"(%v) and joint limits (%v)", len(linkLengths),
			len(restingAngles), len(jointLimits)))
	}

	arm := &Arm{
		Base:          NewBase(name, sim, basePosition, baseAngle),
		linkLengths:   append([]float64(nil), linkLengths...),
		linkWidth:     defaultLinkWidth,
		restingAngles: append([]float64(nil), restingAngles...),
		jointAngles:   append([]float64(nil), restingAngles...),
		jointLimits:   append([]r1.Interval(nil), jointLimits...),
		xyVel:         xyVel,
		jointVel:      jointVel,
		controlJoints: controlJoints,
	}
	return arm
}

// Build spawns the arm into the simulation at its resting
// configuration. Any bodies from a previous attempt were destroyed
// with the engine reset, so Build always creates fresh ones.
func (a *Arm) Build() {
	copy(a.jointAngles, a.restingAngles)

	a.bodies = a.bodies[:0]
	centers, angles := a.linkPoses()
	for i := range a.linkLengths {
		body := a.Sim().CreateBox(physics.Kinematic, centers[i], angles[i],
			a.linkLengths[i]/2, a.linkWidth/2)
		a.bodies = append(a.bodies, body)
	}
}

// Bodies returns the arm's link bodies
func (a *Arm) Bodies() []*box2d.B2Body {
	return a.bodies
}

// ActionSpaceDims returns (ik dims, joint dims)
func (a *Arm) ActionSpaceDims() (int, int) {
	return ArmIkDims, len(a.jointAngles)
}

// Joints returns a copy of the current joint angles
func (a *Arm) Joints() []float64 {
	return append([]float64(nil), a.jointAngles...)
}

// JointLimits returns the joint limits, one interval per joint
func (a *Arm) JointLimits() []r1.Interval {
	return append([]r1.Interval(nil), a.jointLimits...)
}

// EePosition returns the planar position of the end effector
func (a *Arm) EePosition() box2d.B2Vec2 {
	pos, _ := a.forward()
	return pos
}

// EeAngle returns the orientation of the end effector in [-π, π)
func (a *Arm) EeAngle() float64 {
	_, angle := a.forward()
	return floatutils.WrapAngle(angle)
}

// MoveToPosition teleports the end effector to p, as closely as the
// arm can reach
func (a *Arm) MoveToPosition(p box2d.B2Vec2) {
	a.solveIK(p, teleportPasses)
	a.syncBodies()
}

// MoveToPositionAndOrientation teleports the end effector to p and
// then rotates the final joint so the effector points along angle
func (a *Arm) MoveToPositionAndOrientation(p box2d.B2Vec2, angle float64) {
	a.solveIK(p, teleportPasses)

	last := len(a.jointAngles) - 1
	upstream := a.BaseAngle()
	for i := 0; i < last; i++ {
		upstream += a.jointAngles[i]
	}
	a.jointAngles[last] = floatutils.ClipInterval(
		floatutils.WrapAngle(angle-upstream), a.jointLimits[last])

	a.syncBodies()
}

// ProcessAction applies one control tick. In joint mode each action
// element scales the per-tick joint velocity; in inverse kinematics
// mode the first two elements scale the per-tick end effector
// displacement. Returns the wall clock cost in seconds.
func (a *Arm) ProcessAction(action []float64) float64 {
	start := time.Now()

	if a.controlJoints {
		for i := range a.jointAngles {
			a.jointAngles[i] = floatutils.ClipInterval(
				a.jointAngles[i]+action[i]*a.jointVel, a.jointLimits[i])
		}
	} else {
		ee := a.EePosition()
		target := box2d.MakeB2Vec2(ee.X+action[0]*a.xyVel,
			ee.Y+action[1]*a.xyVel)
		a.solveIK(target, ccdIterations)
	}
	a.syncBodies()

	return time.Since(start).Seconds()
}

// forward computes the end effector pose from the current joint
// angles
func (a *Arm) forward() (box2d.B2Vec2, float64) {
	pos := a.BasePosition()
	angle := a.BaseAngle()
	for i, l := range a.linkLengths {
		angle += a.jointAngles[i]
		pos.X += l * math.Cos(angle)
		pos.Y += l * math.Sin(angle)
	}
	return pos, angle
}

// linkPoses computes the center and orientation of every link body
func (a *Arm) linkPoses() ([]box2d.B2Vec2, []float64) {
	centers := make([]box2d.B2Vec2, len(a.linkLengths))
	angles := make([]float64, len(a.linkLengths))

	start := a.BasePosition()
	angle := a.BaseAngle()
	for i, l := range a.linkLengths {
		angle += a.jointAngles[i]
		dx, dy := math.Cos(angle), math.Sin(angle)
		centers[i] = box2d.MakeB2Vec2(start.X+dx*l/2, start.Y+dy*l/2)
		angles[i] = angle
		start.X += dx * l
		start.Y += dy * l
	}
	return centers, angles
}

// jointPosition computes the planar position of joint i
func (a *Arm) jointPosition(i int) box2d.B2Vec2 {
	pos := a.BasePosition()
	angle := a.BaseAngle()
	for j := 0; j < i; j++ {
		angle += a.jointAngles[j]
		pos.X += a.linkLengths[j] * math.Cos(angle)
		pos.Y += a.linkLengths[j] * math.Sin(angle)
	}
	return pos
}

// solveIK runs cyclic coordinate descent towards the target position,
// respecting joint limits
func (a *Arm) solveIK(target box2d.B2Vec2, passes int) {
	for pass := 0; pass < passes; pass++ {
		ee, _ := a.forward()
		if math.Hypot(ee.X-target.X, ee.Y-target.Y) < ccdTolerance {
			return
		}

		for i := len(a.jointAngles) - 1; i >= 0; i-- {
			ee, _ = a.forward()
			joint := a.jointPosition(i)

			toEe := math.Atan2(ee.Y-joint.Y, ee.X-joint.X)
			toTarget := math.Atan2(target.Y-joint.Y, target.X-joint.X)
			delta := floatutils.WrapAngle(toTarget - toEe)

			a.jointAngles[i] = floatutils.ClipInterval(
				a.jointAngles[i]+delta, a.jointLimits[i])
		}
	}
}

// syncBodies writes the current joint configuration through to the
// simulation bodies
func (a *Arm) syncBodies() {
	if len(a.bodies) == 0 {
		return
	}
	centers, angles := a.linkPoses()
	for i, body := range a.bodies {
		body.SetTransform(centers[i], angles[i])
	}
}
