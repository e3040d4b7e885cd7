package world

import (
	"github.com/ByteArena/box2d"

	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/robot"
)

// Base holds the state common to every world implementation: the
// collision set, the decorative body set, workspace boundaries,
// per-robot targets, the registered robots, and the collision flag.
// Concrete worlds embed Base and implement the generation methods.
type Base struct {
	sim       *physics.Sim
	workspace Bounds

	// Objects is the collision set: every body in it is checked
	// against every robot by the oracle. AuxObjects are decorative
	// and never checked.
	Objects    []*box2d.B2Body
	AuxObjects []*box2d.B2Body

	// Targets produced during initialization, one entry per robot,
	// indexed by robot id
	PositionTargets []box2d.B2Vec2
	RotationTargets []float64

	Robots             []robot.Robot
	RobotsWithPosition []robot.Robot
	RobotsWithRotation []robot.Robot

	collision bool
}

// NewBase returns a Base for embedding in concrete worlds
func NewBase(sim *physics.Sim, workspace Bounds) Base {
	return Base{sim: sim, workspace: workspace}
}

// Sim returns the simulation handle
func (b *Base) Sim() *physics.Sim {
	return b.sim
}

// Workspace returns the workspace boundaries
func (b *Base) Workspace() Bounds {
	return b.workspace
}

// RegisterRobots stores the ordered robot list, assigns each robot an
// id equal to its registration index, and partitions the robots by
// the target types their goals require
func (b *Base) RegisterRobots(robots []robot.Robot) {
	for i, r := range robots {
		r.SetID(i)
		b.Robots = append(b.Robots, r)
		if r.Goal() == nil {
			continue
		}
		if r.Goal().NeedsAPosition() {
			b.RobotsWithPosition = append(b.RobotsWithPosition, r)
		}
		if r.Goal().NeedsARotation() {
			b.RobotsWithRotation = append(b.RobotsWithRotation, r)
		}
	}
}

// ResetBase clears all Base-owned episode state. Concrete worlds call
// it from their Reset.
func (b *Base) ResetBase() {
	b.Objects = b.Objects[:0]
	b.AuxObjects = b.AuxObjects[:0]
	b.PositionTargets = nil
	b.RotationTargets = nil
	b.collision = false
}

// PerformCollisionCheck runs the collision oracle: one global contact
// pass, then every robot against the collision set, then every robot
// pair. Only the boolean result is retained, so the check
// short-circuits on the first contact found.
func (b *Base) PerformCollisionCheck() {
	b.sim.DetectContacts()

	col := false
out:
	for _, r := range b.Robots {
		for _, body := range r.Bodies() {
			for _, obj := range b.Objects {
				if b.sim.InContact(body, obj) {
					col = true
					break out
				}
			}
		}
	}
	if !col && len(b.Robots) > 1 {
	robots:
		for i, r := range b.Robots[:len(b.Robots)-1] {
			for _, other := range b.Robots[i+1:] {
				if b.robotsTouch(r, other) {
					col = true
					break robots
				}
			}
		}
	}
	b.collision = col
}

func (b *Base) robotsTouch(r, other robot.Robot) bool {
	for _, body := range r.Bodies() {
		for _, otherBody := range other.Bodies() {
			if b.sim.InContact(body, otherBody) {
				return true
			}
		}
	}
	return false
}

// InCollision returns the result of the most recent collision check
func (b *Base) InCollision() bool {
	return b.collision
}

// PositionTarget returns the position target for the robot with the
// given id, or a zero vector if none was created
func (b *Base) PositionTarget(robotID int) box2d.B2Vec2 {
	if robotID < 0 || robotID >= len(b.PositionTargets) {
		return box2d.MakeB2Vec2(0, 0)
	}
	return b.PositionTargets[robotID]
}

// RotationTarget returns the rotation target for the robot with the
// given id, or 0 if none was created
func (b *Base) RotationTarget(robotID int) float64 {
	if robotID < 0 || robotID >= len(b.RotationTargets) {
		return 0
	}
	return b.RotationTargets[robotID]
}
