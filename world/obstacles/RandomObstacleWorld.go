// Package obstacles implements a world of randomly placed static and
// moving obstacles. Obstacle counts, sizes, and velocities are
// sampled fresh every episode, so each reset produces a new obstacle
// course.
package obstacles

import (
	"math"

	"github.com/ByteArena/box2d"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/world"
)

const (
	// margin keeps sampled positions away from the workspace edge
	margin float64 = 0.05

	// placement retries when sampling targets with clearance
	placementTries int = 100
)

type movingObstacle struct {
	body       *box2d.B2Body
	origin     box2d.B2Vec2
	velocity   box2d.B2Vec2
	trajLength float64
}

// obstaclePlan is an obstacle sampled during Reset but not yet
// materialized. Target placement reads the planned poses, since the
// collision set is only populated by Build.
type obstaclePlan struct {
	kind   physics.Kind
	pos    box2d.B2Vec2
	isBox  bool
	hx, hy float64
	angle  float64
	radius float64
}

// RandomObstacleWorld scatters static boxes and spheres plus a number
// of oscillating moving obstacles through the workspace
type RandomObstacleWorld struct {
	world.Base

	numStatic    int
	numMoving    int
	boxHalfExt   r1.Interval
	sphereRadius r1.Interval
	velocities   r1.Interval
	trajLengths  r1.Interval

	rng     distuv.Uniform
	planned []obstaclePlan
	moving  []movingObstacle

	// starting points of the current attempt, kept for target
	// clearance checks
	startingPoints []world.EePose
}

// New creates a RandomObstacleWorld. The intervals bound the sampled
// obstacle half-extents, sphere radii, moving obstacle speeds
// (distance per tick) and oscillation trajectory lengths.
func New(sim *physics.Sim, workspace world.Bounds, numStatic, numMoving int,
	boxHalfExt, sphereRadius, velocities, trajLengths r1.Interval,
	seed uint64) *RandomObstacleWorld {
	return &RandomObstacleWorld{
		Base:         world.NewBase(sim, workspace),
		numStatic:    numStatic,
		numMoving:    numMoving,
		boxHalfExt:   boxHalfExt,
		sphereRadius: sphereRadius,
		velocities:   velocities,
		trajLengths:  trajLengths,
		rng:          distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(seed)},
	}
}

// Reset clears the world's episode state and samples the episode's
// obstacle layout. The obstacles are planned here so that target
// placement, which runs before Build, can keep clearance from them.
func (w *RandomObstacleWorld) Reset() {
	w.ResetBase()
	w.moving = w.moving[:0]
	w.startingPoints = nil

	w.planned = w.planned[:0]
	for i := 0; i < w.numStatic; i++ {
		w.planned = append(w.planned, w.planObstacle(physics.Static))
	}
	for i := 0; i < w.numMoving; i++ {
		w.planned = append(w.planned, w.planObstacle(physics.Kinematic))
	}
}

// Build materializes the obstacles planned during Reset. Every body is
// added to the collision set.
func (w *RandomObstacleWorld) Build() {
	for _, p := range w.planned {
		var body *box2d.B2Body
		if p.isBox {
			body = w.Sim().CreateBox(p.kind, p.pos, p.angle, p.hx, p.hy)
		} else {
			body = w.Sim().CreateCircle(p.kind, p.pos, p.radius)
		}
		w.Objects = append(w.Objects, body)

		if p.kind == physics.Kinematic {
			angle := w.sample(r1.Interval{Min: -math.Pi, Max: math.Pi})
			speed := w.sample(w.velocities) / w.Sim().TimeStep()
			vel := box2d.MakeB2Vec2(speed*math.Cos(angle), speed*math.Sin(angle))
			body.SetLinearVelocity(vel)

			w.moving = append(w.moving, movingObstacle{
				body:       body,
				origin:     body.GetPosition(),
				velocity:   vel,
				trajLength: w.sample(w.trajLengths),
			})
		}
	}
}

func (w *RandomObstacleWorld) planObstacle(kind physics.Kind) obstaclePlan {
	p := obstaclePlan{kind: kind, pos: w.samplePosition()}
	if w.rng.Rand() < 0.5 {
		p.isBox = true
		p.hx = w.sample(w.boxHalfExt)
		p.hy = w.sample(w.boxHalfExt)
		p.angle = w.sample(r1.Interval{Min: -math.Pi, Max: math.Pi})
	} else {
		p.radius = w.sample(w.sphereRadius)
	}
	return p
}

// Update reverses a moving obstacle's velocity whenever it strays
// beyond its trajectory length from its origin
func (w *RandomObstacleWorld) Update() {
	for i := range w.moving {
		m := &w.moving[i]
		pos := m.body.GetPosition()
		dx, dy := pos.X-m.origin.X, pos.Y-m.origin.Y
		if math.Hypot(dx, dy) >= m.trajLength {
			m.velocity = box2d.MakeB2Vec2(-m.velocity.X, -m.velocity.Y)
			m.body.SetLinearVelocity(m.velocity)
		}
	}
}

// CreateEeStartingPoints samples a starting position inside the
// workspace for every robot. Robots whose goals need a rotation also
// receive a starting orientation.
func (w *RandomObstacleWorld) CreateEeStartingPoints() []world.EePose {
	needsRotation := make(map[int]bool, len(w.RobotsWithRotation))
	for _, r := range w.RobotsWithRotation {
		needsRotation[r.ID()] = true
	}

	points := make([]world.EePose, len(w.Robots))
	for i, r := range w.Robots {
		pos := w.samplePosition()
		points[i].Position = &pos
		if needsRotation[r.ID()] {
			angle := w.sample(r1.Interval{Min: -math.Pi, Max: math.Pi})
			points[i].Angle = &angle
		}
	}
	w.startingPoints = points
	return points
}

// CreatePositionTarget samples a position target for every robot
// whose goal needs one, keeping clearance from obstacles and distance
// from the robot's starting point. Robots without a position goal get
// a zero placeholder.
func (w *RandomObstacleWorld) CreatePositionTarget() []box2d.B2Vec2 {
	targets := make([]box2d.B2Vec2, len(w.Robots))
	minDist := 0.25 * w.workspaceDiag()

	for _, r := range w.RobotsWithPosition {
		var best box2d.B2Vec2
		for try := 0; try < placementTries; try++ {
			best = w.samplePosition()
			if w.obstacleClearance(best) < 2*w.boxHalfExt.Max {
				continue
			}
			if start := w.startingPoint(r.ID()); start != nil {
				if math.Hypot(best.X-start.X, best.Y-start.Y) < minDist {
					continue
				}
			}
			break
		}
		targets[r.ID()] = best
	}
	w.PositionTargets = targets
	return targets
}

// CreateRotationTarget samples a rotation target for every robot
// whose goal needs one; all others get a zero placeholder
func (w *RandomObstacleWorld) CreateRotationTarget() []float64 {
	targets := make([]float64, len(w.Robots))
	for _, r := range w.RobotsWithRotation {
		targets[r.ID()] = w.sample(r1.Interval{Min: -math.Pi, Max: math.Pi})
	}
	w.RotationTargets = targets
	return targets
}

// BuildVisualAux marks the workspace boundary with thin decorative
// boxes
func (w *RandomObstacleWorld) BuildVisualAux() {
	ws := w.Workspace()
	cx := (ws.X.Min + ws.X.Max) / 2
	cy := (ws.Y.Min + ws.Y.Max) / 2
	hx := (ws.X.Max - ws.X.Min) / 2
	hy := (ws.Y.Max - ws.Y.Min) / 2
	const thickness = 0.005

	sides := []struct {
		pos    box2d.B2Vec2
		hx, hy float64
	}{
		{box2d.MakeB2Vec2(cx, ws.Y.Min), hx, thickness},
		{box2d.MakeB2Vec2(cx, ws.Y.Max), hx, thickness},
		{box2d.MakeB2Vec2(ws.X.Min, cy), thickness, hy},
		{box2d.MakeB2Vec2(ws.X.Max, cy), thickness, hy},
	}
	for _, s := range sides {
		aux := w.Sim().CreateVisualBox(s.pos, 0, s.hx, s.hy)
		w.AuxObjects = append(w.AuxObjects, aux)
	}
}

func (w *RandomObstacleWorld) sample(iv r1.Interval) float64 {
	return iv.Min + w.rng.Rand()*(iv.Max-iv.Min)
}

func (w *RandomObstacleWorld) samplePosition() box2d.B2Vec2 {
	ws := w.Workspace()
	x := w.sample(r1.Interval{Min: ws.X.Min + margin, Max: ws.X.Max - margin})
	y := w.sample(r1.Interval{Min: ws.Y.Min + margin, Max: ws.Y.Max - margin})
	return box2d.MakeB2Vec2(x, y)
}

func (w *RandomObstacleWorld) workspaceDiag() float64 {
	ws := w.Workspace()
	return math.Hypot(ws.X.Max-ws.X.Min, ws.Y.Max-ws.Y.Min)
}

func (w *RandomObstacleWorld) obstacleClearance(p box2d.B2Vec2) float64 {
	clearance := math.Inf(1)
	for i := range w.planned {
		pos := w.planned[i].pos
		if d := math.Hypot(p.X-pos.X, p.Y-pos.Y); d < clearance {
			clearance = d
		}
	}
	return clearance
}

func (w *RandomObstacleWorld) startingPoint(robotID int) *box2d.B2Vec2 {
	if robotID < 0 || robotID >= len(w.startingPoints) {
		return nil
	}
	return w.startingPoints[robotID].Position
}
