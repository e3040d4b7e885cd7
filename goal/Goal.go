// Package goal outlines the capability contract for goal plugins and
// provides concrete goals for planar reaching tasks. A goal is bound
// to exactly one robot and judges that robot every step, producing a
// reward together with the success and termination signals the
// environment aggregates.
package goal

import (
	"github.com/modrl/modrl/envlog"
	"github.com/modrl/modrl/robot"
	"github.com/modrl/modrl/spaces"
	"github.com/modrl/modrl/world"
)

// Signal is a goal's per-step verdict on its robot
type Signal struct {
	Reward      float64
	Success     bool
	Done        bool
	Timeout     bool
	OutOfBounds bool
}

// Goal is the capability contract for goal plugins
type Goal interface {
	// OnEnvReset is called once per episode after the world and robots
	// are set up. The rolling success rate lets the goal adapt its
	// difficulty; the returned metric is the goal's current difficulty
	// measure.
	OnEnvReset(successRate float64) float64

	// Reward judges the bound robot at the given step
	Reward(step int) Signal

	// Observation returns the goal's named slice of the observation
	// mapping
	Observation() spaces.Sample

	// ObservationSpaceElement returns the named space descriptors the
	// goal contributes to the observation space
	ObservationSpaceElement() []spaces.Named

	// DataForLogging returns the goal's named slice of the logging
	// record; empty if the goal has not opted into logging
	DataForLogging() envlog.Record

	// BuildVisualAux adds decorative geometry marking the goal, for
	// display mode only
	BuildVisualAux()

	AddToObservationSpace() bool
	AddToLogging() bool

	// Capability flags consulted by the world when partitioning robots
	// by required target types
	NeedsAPosition() bool
	NeedsARotation() bool

	// ContinueAfterSuccess reports whether the bound robot keeps
	// acting after this goal succeeds
	ContinueAfterSuccess() bool

	// Robot returns the robot this goal is bound to
	Robot() robot.Robot
}

// Base holds the fields common to every goal implementation
type Base struct {
	robot                 robot.Robot
	world                 world.World
	normalizeRewards      bool
	normalizeObservations bool
	addToObservationSpace bool
	addToLogging          bool
	train                 bool
	continueAfterSuccess  bool
}

// NewBase returns a Base for embedding in concrete goals
func NewBase(r robot.Robot, w world.World, normalizeRewards,
	normalizeObservations, addToObservationSpace, addToLogging, train,
	continueAfterSuccess bool) Base {
	return Base{
		robot:                 r,
		world:                 w,
		normalizeRewards:      normalizeRewards,
		normalizeObservations: normalizeObservations,
		addToObservationSpace: addToObservationSpace,
		addToLogging:          addToLogging,
		train:                 train,
		continueAfterSuccess:  continueAfterSuccess,
	}
}

// Robot returns the robot the goal is bound to
func (b *Base) Robot() robot.Robot {
	return b.robot
}

// World returns the world the goal consults for targets and collisions
func (b *Base) World() world.World {
	return b.world
}

// NormalizeRewards returns whether the goal scales its reward into a
// fixed range
func (b *Base) NormalizeRewards() bool {
	return b.normalizeRewards
}

// NormalizeObservations returns whether the goal normalizes its
// observation slice
func (b *Base) NormalizeObservations() bool {
	return b.normalizeObservations
}

// AddToObservationSpace returns whether the goal contributes to the
// observation space
func (b *Base) AddToObservationSpace() bool {
	return b.addToObservationSpace
}

// AddToLogging returns whether the goal contributes to the logging
// record
func (b *Base) AddToLogging() bool {
	return b.addToLogging
}

// Train returns whether the environment runs in training mode, which
// gates difficulty adaptation
func (b *Base) Train() bool {
	return b.train
}

// ContinueAfterSuccess reports whether the bound robot keeps acting
// after this goal succeeds
func (b *Base) ContinueAfterSuccess() bool {
	return b.continueAfterSuccess
}
