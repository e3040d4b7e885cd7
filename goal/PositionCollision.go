package goal

import (
	"fmt"
	"math"

	"github.com/modrl/modrl/envlog"
	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/robot"
	"github.com/modrl/modrl/spaces"
	"github.com/modrl/modrl/world"
)

const (
	rewardSuccess   = 10.0
	rewardCollision = -10.0
	distanceMult    = -0.01

	// Distance threshold curriculum. The threshold shrinks while the
	// agent does well and relaxes while it struggles, between the start
	// and end bounds.
	thresholdStart  = 0.2
	thresholdEnd    = 0.01
	thresholdShrink = 0.01
	thresholdGrow   = 0.001

	shrinkAbove = 0.8
	growBelow   = 0.2
)

// PositionCollision rewards a robot for bringing its end effector
// within a distance threshold of the world's position target, and
// terminates the episode on collision or when the effector leaves the
// workspace. In training mode the threshold adapts to the rolling
// success rate at every episode start.
type PositionCollision struct {
	Base

	sim       *physics.Sim
	maxSteps  int
	threshold float64

	distance float64
	success  bool
}

// NewPositionCollision creates a position goal for r and registers it
// as r's objective. The episode times out at maxSteps steps. Panics if
// maxSteps is not positive.
func NewPositionCollision(r robot.Robot, w world.World, sim *physics.Sim,
	maxSteps int, normalizeRewards, normalizeObservations,
	addToObservationSpace, addToLogging, train,
	continueAfterSuccess bool) *PositionCollision {
	if maxSteps <= 0 {
		panic(fmt.Sprintf("newpositioncollision: maxSteps must be "+
			"positive, got %v", maxSteps))
	}
	g := &PositionCollision{
		Base: NewBase(r, w, normalizeRewards, normalizeObservations,
			addToObservationSpace, addToLogging, train,
			continueAfterSuccess),
		sim:       sim,
		maxSteps:  maxSteps,
		threshold: thresholdStart,
	}
	r.SetGoal(g)
	return g
}

// NeedsAPosition reports that the bound robot requires a position
// target
func (g *PositionCollision) NeedsAPosition() bool {
	return true
}

// NeedsARotation reports that the bound robot requires no rotation
// target
func (g *PositionCollision) NeedsARotation() bool {
	return false
}

// Threshold returns the current success distance threshold
func (g *PositionCollision) Threshold() float64 {
	return g.threshold
}

// OnEnvReset adapts the distance threshold to the rolling success
// rate and returns it as the goal's difficulty metric. Adaptation only
// happens in training mode.
func (g *PositionCollision) OnEnvReset(successRate float64) float64 {
	if g.Train() {
		if successRate > shrinkAbove {
			g.threshold = math.Max(g.threshold-thresholdShrink, thresholdEnd)
		} else if successRate < growBelow {
			g.threshold = math.Min(g.threshold+thresholdGrow, thresholdStart)
		}
	}
	g.distance = g.targetDistance()
	g.success = false
	return g.threshold
}

// targetDistance measures the effector's distance to the position
// target
func (g *PositionCollision) targetDistance() float64 {
	ee := g.Robot().EePosition()
	target := g.World().PositionTarget(g.Robot().ID())
	return math.Hypot(ee.X-target.X, ee.Y-target.Y)
}

// Reward judges the bound robot. Collision and leaving the workspace
// are terminal with a penalty; reaching the target is terminal only if
// the robot does not continue after success. The episode times out once
// the step limit is reached.
func (g *PositionCollision) Reward(step int) Signal {
	g.distance = g.targetDistance()

	var sig Signal
	switch {
	case g.World().InCollision():
		sig.Reward = rewardCollision
		sig.Done = true
	case !g.World().Workspace().Contains(g.Robot().EePosition()):
		sig.Reward = rewardCollision
		sig.OutOfBounds = true
		sig.Done = true
	case g.distance <= g.threshold:
		sig.Reward = rewardSuccess
		sig.Success = true
		sig.Done = !g.ContinueAfterSuccess()
	default:
		sig.Reward = g.distance * distanceMult
	}

	if step >= g.maxSteps-1 && !sig.Done {
		sig.Timeout = true
		sig.Done = true
	}

	if g.NormalizeRewards() {
		sig.Reward /= rewardSuccess
	}
	g.success = sig.Success
	return sig
}

func (g *PositionCollision) key() string {
	return fmt.Sprintf("%s_distance", g.Robot().Name())
}

// Observation returns the planar offset from the effector to the
// position target, normalized by the workspace extents when
// normalization is on
func (g *PositionCollision) Observation() spaces.Sample {
	ee := g.Robot().EePosition()
	target := g.World().PositionTarget(g.Robot().ID())
	delta := []float64{target.X - ee.X, target.Y - ee.Y}

	if g.NormalizeObservations() {
		ws := g.World().Workspace()
		delta[0] /= ws.X.Max - ws.X.Min
		delta[1] /= ws.Y.Max - ws.Y.Min
	}
	return spaces.Sample{g.key(): delta}
}

// ObservationSpaceElement contributes one box holding the target
// offset
func (g *PositionCollision) ObservationSpaceElement() []spaces.Named {
	if g.NormalizeObservations() {
		return []spaces.Named{
			{Key: g.key(), Space: spaces.NewUniformBox(2, -1, 1)},
		}
	}
	ws := g.World().Workspace()
	spanX := ws.X.Max - ws.X.Min
	spanY := ws.Y.Max - ws.Y.Min
	box, err := spaces.NewBox([]float64{-spanX, -spanY},
		[]float64{spanX, spanY})
	if err != nil {
		panic(err)
	}
	return []spaces.Named{{Key: g.key(), Space: box}}
}

// DataForLogging returns the current distance and threshold
func (g *PositionCollision) DataForLogging() envlog.Record {
	if !g.AddToLogging() {
		return nil
	}
	name := g.Robot().Name()
	return envlog.Record{
		{Key: fmt.Sprintf("distance_%s", name), Value: g.distance},
		{Key: fmt.Sprintf("threshold_%s", name), Value: g.threshold},
		{Key: fmt.Sprintf("goal_reached_%s", name), Value: g.success},
	}
}

// BuildVisualAux marks the position target with a circle of the
// current threshold radius
func (g *PositionCollision) BuildVisualAux() {
	target := g.World().PositionTarget(g.Robot().ID())
	g.sim.CreateVisualCircle(target, g.threshold)
}
