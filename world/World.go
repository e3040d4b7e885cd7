// Package world outlines the capability contract for simulation world
// plugins and provides the Base implementation that concrete worlds
// embed. The world owns every non-robot body with physical presence,
// the workspace boundaries, and the collision oracle.
package world

import (
	"github.com/ByteArena/box2d"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/modrl/modrl/robot"
)

// EePose is an optional starting constraint for a robot's end
// effector at episode start. A nil Position means no constraint at
// all; a nil Angle with a non-nil Position constrains position only.
type EePose struct {
	Position *box2d.B2Vec2
	Angle    *float64
}

// Bounds is the rectangular workspace of a world
type Bounds struct {
	X r1.Interval
	Y r1.Interval
}

// Contains returns whether p lies inside the workspace
func (b Bounds) Contains(p box2d.B2Vec2) bool {
	return p.X >= b.X.Min && p.X <= b.X.Max &&
		p.Y >= b.Y.Min && p.Y <= b.Y.Max
}

// World is the capability contract for world plugins. A world is
// rebuilt fresh every episode: Reset clears world-owned state so that
// Build can run again. Reset must not touch the engine's own global
// reset; that is the environment's responsibility.
type World interface {
	// Build materializes all non-robot bodies. Every body with
	// physical presence must be registered into the collision set.
	Build()

	// Reset clears all world-owned state so Build can run again
	Reset()

	// BuildVisualAux adds decorative, non-collidable geometry
	BuildVisualAux()

	// Update advances any moving, non-robot bodies by one tick
	Update()

	// CreateEeStartingPoints produces one starting constraint per
	// registered robot, in registration order
	CreateEeStartingPoints() []EePose

	// CreatePositionTarget and CreateRotationTarget produce per-robot
	// target values, with empty placeholders for robots that do not
	// need that target type. The results are stored on the world for
	// goals to consult.
	CreatePositionTarget() []box2d.B2Vec2
	CreateRotationTarget() []float64

	// RegisterRobots hands the ordered robot list to the world, which
	// assigns each robot its id and partitions the robots by which
	// target types their goals require
	RegisterRobots(robots []robot.Robot)

	// PerformCollisionCheck runs the collision oracle and stores the
	// boolean result, retrievable through InCollision
	PerformCollisionCheck()
	InCollision() bool

	PositionTarget(robotID int) box2d.B2Vec2
	RotationTarget(robotID int) float64
	Workspace() Bounds
}
