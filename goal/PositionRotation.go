package goal

import (
	"fmt"
	"math"

	"github.com/modrl/modrl/envlog"
	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/robot"
	"github.com/modrl/modrl/spaces"
	"github.com/modrl/modrl/utils/floatutils"
	"github.com/modrl/modrl/world"
)

const (
	// angleThreshold is the orientation tolerance for success, radians.
	// Unlike the distance threshold it does not adapt.
	angleThreshold = 0.1
	angleMult      = -0.01
)

// PositionRotation extends PositionCollision with an orientation
// requirement: success demands both that the effector reaches the
// position target and that it points along the world's rotation
// target.
type PositionRotation struct {
	PositionCollision

	angleDelta float64
}

// NewPositionRotation creates a position-and-orientation goal for r
func NewPositionRotation(r robot.Robot, w world.World, sim *physics.Sim,
	maxSteps int, normalizeRewards, normalizeObservations,
	addToObservationSpace, addToLogging, train,
	continueAfterSuccess bool) *PositionRotation {
	g := &PositionRotation{
		PositionCollision: *NewPositionCollision(r, w, sim, maxSteps,
			normalizeRewards, normalizeObservations, addToObservationSpace,
			addToLogging, train, continueAfterSuccess),
	}
	// Rebind: the embedded constructor registered its own value
	r.SetGoal(g)
	return g
}

// NeedsARotation reports that the bound robot requires a rotation
// target
func (g *PositionRotation) NeedsARotation() bool {
	return true
}

// targetAngleDelta measures the wrapped offset between the effector
// orientation and the rotation target
func (g *PositionRotation) targetAngleDelta() float64 {
	target := g.World().RotationTarget(g.Robot().ID())
	return floatutils.WrapAngle(target - g.Robot().EeAngle())
}

// Reward judges position and orientation together. The positional
// verdict is computed first; a positional success only stands if the
// orientation is also within tolerance, otherwise the step earns the
// distance and angle shaping rewards instead.
func (g *PositionRotation) Reward(step int) Signal {
	g.angleDelta = g.targetAngleDelta()
	sig := g.PositionCollision.Reward(step)

	if sig.Success && math.Abs(g.angleDelta) > angleThreshold {
		sig.Success = false
		sig.Done = false
		if step >= g.maxSteps-1 {
			sig.Timeout = true
			sig.Done = true
		}
		shaped := g.distance*distanceMult + math.Abs(g.angleDelta)*angleMult
		if g.NormalizeRewards() {
			shaped /= rewardSuccess
		}
		sig.Reward = shaped
		g.success = false
	}
	return sig
}

func (g *PositionRotation) angleKey() string {
	return fmt.Sprintf("%s_angle_delta", g.Robot().Name())
}

// Observation adds the wrapped orientation offset to the positional
// observation
func (g *PositionRotation) Observation() spaces.Sample {
	obs := g.PositionCollision.Observation()
	delta := g.targetAngleDelta()
	if g.NormalizeObservations() {
		delta /= math.Pi
	}
	obs[g.angleKey()] = []float64{delta}
	return obs
}

// ObservationSpaceElement adds the orientation offset box
func (g *PositionRotation) ObservationSpaceElement() []spaces.Named {
	elems := g.PositionCollision.ObservationSpaceElement()
	if g.NormalizeObservations() {
		return append(elems,
			spaces.Named{Key: g.angleKey(), Space: spaces.NewUniformBox(1, -1, 1)})
	}
	return append(elems, spaces.Named{Key: g.angleKey(),
		Space: spaces.NewUniformBox(1, -math.Pi, math.Pi)})
}

// DataForLogging adds the orientation offset to the positional record
func (g *PositionRotation) DataForLogging() envlog.Record {
	rec := g.PositionCollision.DataForLogging()
	if rec == nil {
		return nil
	}
	return append(rec, envlog.Field{
		Key:   fmt.Sprintf("angle_delta_%s", g.Robot().Name()),
		Value: g.angleDelta,
	})
}
