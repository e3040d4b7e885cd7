package sensor

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"

	"github.com/modrl/modrl/envlog"
	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/robot"
	"github.com/modrl/modrl/spaces"
)

// Proximity casts a fan of rays out from a robot's end effector and
// reports the distance to the nearest obstacle along each ray. The
// robot's own bodies are excluded from the casts.
type Proximity struct {
	Base

	sim       *physics.Sim
	numRays   int
	rayLength float64

	distances []float64
}

// NewProximity creates a proximity sensor casting numRays rays of
// rayLength meters, evenly spread over the full circle around the end
// effector. Panics if numRays or rayLength is not positive.
func NewProximity(normalize, addToObservationSpace, addToLogging bool,
	simStep float64, r robot.Robot, sim *physics.Sim, numRays int,
	rayLength float64) *Proximity {
	if numRays <= 0 {
		panic(fmt.Sprintf("newproximity: numRays must be positive, got %v",
			numRays))
	}
	if rayLength <= 0 {
		panic(fmt.Sprintf("newproximity: rayLength must be positive, got %v",
			rayLength))
	}
	return &Proximity{
		Base:      NewBase(normalize, addToObservationSpace, addToLogging, simStep, r),
		sim:       sim,
		numRays:   numRays,
		rayLength: rayLength,
		distances: make([]float64, numRays),
	}
}

// Reset casts the fan once so the first observation is valid
func (s *Proximity) Reset() {
	s.Update()
}

// Update casts the ray fan from the current effector pose. Rays that
// hit nothing report the full ray length.
func (s *Proximity) Update() {
	origin := s.Robot().EePosition()
	exclude := s.Robot().Bodies()

	for i := 0; i < s.numRays; i++ {
		theta := s.Robot().EeAngle() + 2*math.Pi*float64(i)/float64(s.numRays)
		end := box2d.MakeB2Vec2(
			origin.X+s.rayLength*math.Cos(theta),
			origin.Y+s.rayLength*math.Sin(theta))

		fraction, hit := s.sim.RayCast(origin, end, exclude...)
		if !hit {
			fraction = 1.0
		}
		s.distances[i] = fraction * s.rayLength
	}
}

func (s *Proximity) key() string {
	return fmt.Sprintf("%s_proximity", s.Robot().Name())
}

// Observation returns the per-ray distances, scaled to [0, 1] by the
// ray length when normalization is on
func (s *Proximity) Observation() spaces.Sample {
	out := make([]float64, s.numRays)
	if s.Normalize() {
		for i, d := range s.distances {
			out[i] = d / s.rayLength
		}
	} else {
		copy(out, s.distances)
	}
	return spaces.Sample{s.key(): out}
}

// ObservationSpaceElement contributes one box of per-ray distances
func (s *Proximity) ObservationSpaceElement() []spaces.Named {
	if s.Normalize() {
		return []spaces.Named{
			{Key: s.key(), Space: spaces.NewUniformBox(s.numRays, 0, 1)},
		}
	}
	return []spaces.Named{
		{Key: s.key(), Space: spaces.NewUniformBox(s.numRays, 0, s.rayLength)},
	}
}

// DataForLogging returns the raw per-ray distances
func (s *Proximity) DataForLogging() envlog.Record {
	if !s.AddToLogging() {
		return nil
	}
	return envlog.Record{
		{Key: fmt.Sprintf("proximity_%s", s.Robot().Name()),
			Value: append([]float64(nil), s.distances...)},
	}
}
