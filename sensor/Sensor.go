// Package sensor outlines the capability contract for sensor plugins
// and provides concrete sensors for planar robots. Each sensor is
// bound to exactly one robot at construction, may keep state across
// steps, and is reset once per episode.
package sensor

import (
	"github.com/modrl/modrl/envlog"
	"github.com/modrl/modrl/robot"
	"github.com/modrl/modrl/spaces"
)

// Sensor is the capability contract for sensor plugins
type Sensor interface {
	// Reset clears sensor state at episode start
	Reset()

	// Update is called once per step, after actions are applied
	Update()

	// Observation returns the sensor's named slice of the
	// observation mapping
	Observation() spaces.Sample

	// ObservationSpaceElement returns the named space descriptors the
	// sensor contributes to the observation space
	ObservationSpaceElement() []spaces.Named

	// DataForLogging returns the sensor's named slice of the logging
	// record; empty if the sensor has not opted into logging
	DataForLogging() envlog.Record

	AddToObservationSpace() bool
	AddToLogging() bool
}

// Base holds the fields common to every sensor implementation
type Base struct {
	normalize             bool
	addToObservationSpace bool
	addToLogging          bool
	simStep               float64
	robot                 robot.Robot
}

// NewBase returns a Base for embedding in concrete sensors
func NewBase(normalize, addToObservationSpace, addToLogging bool,
	simStep float64, r robot.Robot) Base {
	return Base{
		normalize:             normalize,
		addToObservationSpace: addToObservationSpace,
		addToLogging:          addToLogging,
		simStep:               simStep,
		robot:                 r,
	}
}

// Normalize returns whether the sensor normalizes its output
func (b *Base) Normalize() bool {
	return b.normalize
}

// AddToObservationSpace returns whether the sensor contributes to the
// observation space
func (b *Base) AddToObservationSpace() bool {
	return b.addToObservationSpace
}

// AddToLogging returns whether the sensor contributes to the logging
// record
func (b *Base) AddToLogging() bool {
	return b.addToLogging
}

// SimStep returns the simulated seconds per step, used for velocity
// estimates
func (b *Base) SimStep() float64 {
	return b.simStep
}

// Robot returns the robot the sensor is bound to
func (b *Base) Robot() robot.Robot {
	return b.robot
}
