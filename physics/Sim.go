// Package physics owns the simulation engine handle. It wraps the
// Box2D world in a single explicitly owned resource that is created
// with the environment and torn down with it, and exposes the small
// set of capabilities the rest of the system needs: advancing
// simulated time, pairwise contact queries, ray casts, and body
// creation.
package physics

import (
	"github.com/ByteArena/box2d"
)

const (
	velocityIterations int = 6
	positionIterations int = 2
)

// Sim is the owned handle to the underlying physics engine. All body
// creation and queries go through it; no other component talks to the
// engine directly. Sim is not safe for concurrent use, matching the
// single-threaded execution model of the environment.
type Sim struct {
	world    box2d.B2World
	timeStep float64
}

// New creates a new simulation handle advancing by timeStep seconds
// per tick. The workspace is a top-down plane, so the world carries no
// gravity.
func New(timeStep float64) *Sim {
	return &Sim{
		world:    box2d.MakeB2World(box2d.MakeB2Vec2(0, 0)),
		timeStep: timeStep,
	}
}

// TimeStep returns the simulated seconds that pass per call to Advance
func (s *Sim) TimeStep() float64 {
	return s.timeStep
}

// Advance moves the simulation forward by one tick. Kinematic bodies
// integrate their velocities; nothing else moves on its own since the
// world has no gravity and no dynamic bodies.
func (s *Sim) Advance() {
	s.world.Step(s.timeStep, velocityIterations, positionIterations)
}

// Reset destroys every body in the simulation, returning the engine to
// an empty state so an episode can be rebuilt from scratch
func (s *Sim) Reset() {
	for b := s.world.GetBodyList(); b != nil; {
		next := b.GetNext()
		s.world.DestroyBody(b)
		b = next
	}
}

// Close tears the simulation down. After Close the handle must not be
// used.
func (s *Sim) Close() {
	s.Reset()
}

// DetectContacts runs the engine's global contact pass so that
// subsequent pairwise queries see current body transforms
func (s *Sim) DetectContacts() {
	s.world.Step(0, velocityIterations, positionIterations)
}

// InContact reports whether any fixture of a overlaps any fixture of
// b. Visual-only fixtures are skipped on both sides.
func (s *Sim) InContact(a, b *box2d.B2Body) bool {
	for fa := a.GetFixtureList(); fa != nil; fa = fa.M_next {
		if fa.M_isSensor {
			continue
		}
		for fb := b.GetFixtureList(); fb != nil; fb = fb.M_next {
			if fb.M_isSensor {
				continue
			}
			if box2d.B2TestOverlapShapes(fa.M_shape, 0, fb.M_shape, 0,
				a.M_xf, b.M_xf) {
				return true
			}
		}
	}
	return false
}

// RayCast casts a ray from p1 to p2 and returns the fraction along the
// ray of the closest non-sensor hit, and whether anything was hit.
// Bodies in the exclude list are ignored, which lets a robot cast rays
// past its own links.
func (s *Sim) RayCast(p1, p2 box2d.B2Vec2, exclude ...*box2d.B2Body) (float64, bool) {
	fraction := 1.0
	hit := false

	callback := func(fixture *box2d.B2Fixture, point box2d.B2Vec2,
		normal box2d.B2Vec2, f float64) float64 {
		if fixture.M_isSensor {
			return -1
		}
		for _, b := range exclude {
			if fixture.M_body == b {
				return -1
			}
		}
		hit = true
		fraction = f
		return f // clip the ray, box2d keeps reporting closer hits
	}
	s.world.RayCast(callback, p1, p2)

	return fraction, hit
}
