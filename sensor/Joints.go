package sensor

import (
	"fmt"

	"github.com/modrl/modrl/envlog"
	"github.com/modrl/modrl/robot"
	"github.com/modrl/modrl/spaces"
	"github.com/modrl/modrl/utils/floatutils"
)

// Joints reads a robot's joint configuration and estimates joint
// velocities by finite differences across steps
type Joints struct {
	Base

	angles     []float64
	velocities []float64
	prevAngles []float64
}

// NewJoints creates a joint sensor bound to r
func NewJoints(normalize, addToObservationSpace, addToLogging bool,
	simStep float64, r robot.Robot) *Joints {
	n := len(r.Joints())
	return &Joints{
		Base:       NewBase(normalize, addToObservationSpace, addToLogging, simStep, r),
		angles:     make([]float64, n),
		velocities: make([]float64, n),
		prevAngles: make([]float64, n),
	}
}

// Reset seeds the velocity estimate with the robot's starting
// configuration
func (s *Joints) Reset() {
	copy(s.prevAngles, s.Robot().Joints())
	copy(s.angles, s.prevAngles)
	for i := range s.velocities {
		s.velocities[i] = 0
	}
}

// Update reads the current joint angles and differentiates them
// against the previous step
func (s *Joints) Update() {
	copy(s.angles, s.Robot().Joints())
	for i := range s.angles {
		s.velocities[i] = (s.angles[i] - s.prevAngles[i]) / s.SimStep()
	}
	copy(s.prevAngles, s.angles)
}

func (s *Joints) key() string {
	return fmt.Sprintf("%s_joints", s.Robot().Name())
}

// Observation returns the joint angles, normalized to [-1, 1] by the
// joint limits when normalization is on
func (s *Joints) Observation() spaces.Sample {
	out := make([]float64, len(s.angles))
	if s.Normalize() {
		limits := s.Robot().JointLimits()
		for i, a := range s.angles {
			out[i] = floatutils.Normalize(a, limits[i])
		}
	} else {
		copy(out, s.angles)
	}
	return spaces.Sample{s.key(): out}
}

// ObservationSpaceElement contributes one box bounded by the joint
// limits, or [-1, 1] when normalizing
func (s *Joints) ObservationSpaceElement() []spaces.Named {
	n := len(s.angles)
	if s.Normalize() {
		return []spaces.Named{{Key: s.key(), Space: spaces.NewUniformBox(n, -1, 1)}}
	}

	limits := s.Robot().JointLimits()
	low := make([]float64, n)
	high := make([]float64, n)
	for i, iv := range limits {
		low[i] = iv.Min
		high[i] = iv.Max
	}
	box, err := spaces.NewBox(low, high)
	if err != nil {
		panic(err)
	}
	return []spaces.Named{{Key: s.key(), Space: box}}
}

// DataForLogging returns the raw joint angles and velocity estimates
func (s *Joints) DataForLogging() envlog.Record {
	if !s.AddToLogging() {
		return nil
	}
	name := s.Robot().Name()
	return envlog.Record{
		{Key: fmt.Sprintf("joints_%s", name),
			Value: append([]float64(nil), s.angles...)},
		{Key: fmt.Sprintf("joint_velocities_%s", name),
			Value: append([]float64(nil), s.velocities...)},
	}
}
