// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"github.com/modrl/modrl/spaces"
)

// StepType denotes the type of step that a TimeStep can be, either a first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep in an environment,
// including the aggregated termination signals of all goals.
type TimeStep struct {
	stepType    StepType
	Reward      float64
	Observation spaces.Sample
	Number      int

	Success     bool
	Timeout     bool
	OutOfBounds bool
	Collision   bool
}

// New creates and returns a new TimeStep
func New(t StepType, reward float64, obs spaces.Sample, number int) TimeStep {
	return TimeStep{stepType: t, Reward: reward, Observation: obs,
		Number: number}
}

// First returns whether a TimeStep is the first in an environment
func (t TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t TimeStep) Last() bool {
	return t.stepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, t.Reward, t.Number)
}
