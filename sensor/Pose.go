package sensor

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"

	"github.com/modrl/modrl/envlog"
	"github.com/modrl/modrl/robot"
	"github.com/modrl/modrl/spaces"
	"github.com/modrl/modrl/utils/floatutils"
	"github.com/modrl/modrl/world"
)

// Pose reads a robot's end effector position and orientation and
// estimates the effector's planar velocity across steps
type Pose struct {
	Base

	bounds world.Bounds

	position box2d.B2Vec2
	angle    float64
	velocity box2d.B2Vec2
	prevPos  box2d.B2Vec2
}

// NewPose creates a pose sensor bound to r. The workspace bounds are
// used to normalize positions.
func NewPose(normalize, addToObservationSpace, addToLogging bool,
	simStep float64, r robot.Robot, bounds world.Bounds) *Pose {
	return &Pose{
		Base:   NewBase(normalize, addToObservationSpace, addToLogging, simStep, r),
		bounds: bounds,
	}
}

// Reset seeds the velocity estimate with the starting pose
func (s *Pose) Reset() {
	s.position = s.Robot().EePosition()
	s.angle = s.Robot().EeAngle()
	s.prevPos = s.position
	s.velocity = box2d.MakeB2Vec2(0, 0)
}

// Update reads the current effector pose and differentiates the
// position against the previous step
func (s *Pose) Update() {
	s.position = s.Robot().EePosition()
	s.angle = s.Robot().EeAngle()
	s.velocity = box2d.MakeB2Vec2(
		(s.position.X-s.prevPos.X)/s.SimStep(),
		(s.position.Y-s.prevPos.Y)/s.SimStep())
	s.prevPos = s.position
}

func (s *Pose) positionKey() string {
	return fmt.Sprintf("%s_position", s.Robot().Name())
}

func (s *Pose) rotationKey() string {
	return fmt.Sprintf("%s_rotation", s.Robot().Name())
}

// Observation returns the effector position and orientation.
// Normalization maps positions into [-1, 1] over the workspace and
// angles over [-π, π].
func (s *Pose) Observation() spaces.Sample {
	pos := []float64{s.position.X, s.position.Y}
	rot := []float64{s.angle}
	if s.Normalize() {
		pos[0] = floatutils.Normalize(pos[0], s.bounds.X)
		pos[1] = floatutils.Normalize(pos[1], s.bounds.Y)
		rot[0] = s.angle / math.Pi
	}
	return spaces.Sample{
		s.positionKey(): pos,
		s.rotationKey(): rot,
	}
}

// ObservationSpaceElement contributes a position box and a rotation
// box
func (s *Pose) ObservationSpaceElement() []spaces.Named {
	if s.Normalize() {
		return []spaces.Named{
			{Key: s.positionKey(), Space: spaces.NewUniformBox(2, -1, 1)},
			{Key: s.rotationKey(), Space: spaces.NewUniformBox(1, -1, 1)},
		}
	}
	posBox, err := spaces.NewBox(
		[]float64{s.bounds.X.Min, s.bounds.Y.Min},
		[]float64{s.bounds.X.Max, s.bounds.Y.Max})
	if err != nil {
		panic(err)
	}
	return []spaces.Named{
		{Key: s.positionKey(), Space: posBox},
		{Key: s.rotationKey(), Space: spaces.NewUniformBox(1, -math.Pi, math.Pi)},
	}
}

// DataForLogging returns the raw pose and velocity estimate
func (s *Pose) DataForLogging() envlog.Record {
	if !s.AddToLogging() {
		return nil
	}
	name := s.Robot().Name()
	return envlog.Record{
		{Key: fmt.Sprintf("position_%s", name),
			Value: []float64{s.position.X, s.position.Y}},
		{Key: fmt.Sprintf("rotation_%s", name),
			Value: []float64{s.angle}},
		{Key: fmt.Sprintf("velocity_%s", name),
			Value: []float64{s.velocity.X, s.velocity.Y}},
	}
}
