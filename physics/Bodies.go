package physics

import "github.com/ByteArena/box2d"

// Kind selects the engine body type for created bodies. Static bodies
// never move, kinematic bodies move by their velocity but ignore
// forces. The environment uses no dynamic bodies.
type Kind int

const (
	Static Kind = iota
	Kinematic
)

func (k Kind) bodyType() uint8 {
	if k == Kinematic {
		return box2d.B2BodyType.B2_kinematicBody
	}
	return box2d.B2BodyType.B2_staticBody
}

// CreateBox creates a rectangular body with half-extents hx, hy at the
// given position and angle
func (s *Sim) CreateBox(kind Kind, position box2d.B2Vec2, angle,
	hx, hy float64) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = kind.bodyType()
	def.Position = position
	def.Angle = angle

	body := s.world.CreateBody(&def)
	shape := box2d.MakeB2PolygonShape()
	shape.SetAsBox(hx, hy)
	body.CreateFixture(&shape, 1.0)

	return body
}

// CreateCircle creates a circular body with the given radius
func (s *Sim) CreateCircle(kind Kind, position box2d.B2Vec2,
	radius float64) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = kind.bodyType()
	def.Position = position

	body := s.world.CreateBody(&def)
	shape := box2d.MakeB2CircleShape()
	shape.M_radius = radius
	body.CreateFixture(&shape, 1.0)

	return body
}

// CreateVisualBox creates a rectangle that never takes part in
// contact detection or queries. Used for decorative geometry like
// workspace boundary markers.
func (s *Sim) CreateVisualBox(position box2d.B2Vec2, angle,
	hx, hy float64) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_staticBody
	def.Position = position
	def.Angle = angle

	body := s.world.CreateBody(&def)
	shape := box2d.MakeB2PolygonShape()
	shape.SetAsBox(hx, hy)

	fd := box2d.MakeB2FixtureDef()
	fd.Shape = &shape
	fd.IsSensor = true
	body.CreateFixtureFromDef(&fd)

	return body
}

// CreateVisualCircle creates a circle that never takes part in
// contact detection or queries
func (s *Sim) CreateVisualCircle(position box2d.B2Vec2,
	radius float64) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_staticBody
	def.Position = position

	body := s.world.CreateBody(&def)
	shape := box2d.MakeB2CircleShape()
	shape.M_radius = radius

	fd := box2d.MakeB2FixtureDef()
	fd.Shape = &shape
	fd.IsSensor = true
	body.CreateFixtureFromDef(&fd)

	return body
}

// DestroyBody removes a body from the simulation
func (s *Sim) DestroyBody(b *box2d.B2Body) {
	s.world.DestroyBody(b)
}

// Bodies calls fn for every body currently in the simulation
func (s *Sim) Bodies(fn func(*box2d.B2Body)) {
	for b := s.world.GetBodyList(); b != nil; b = b.GetNext() {
		fn(b)
	}
}
