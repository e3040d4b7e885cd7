// Package noisefield implements a world whose obstacles form a pillar
// field derived from thresholded simplex noise. The field is
// re-seeded every episode by shifting the noise sample offset, so
// episodes see different but spatially coherent obstacle layouts.
package noisefield

import (
	"math"

	"github.com/ByteArena/box2d"
	opensimplex "github.com/ojrac/opensimplex-go"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/world"
)

const (
	// noiseFrequency scales workspace coordinates into noise space
	noiseFrequency float64 = 4.0

	placementTries int = 100
)

// NoiseFieldWorld grows static circular pillars wherever the noise
// field exceeds a threshold; the remaining cells are free space used
// for starting points and targets
type NoiseFieldWorld struct {
	world.Base

	cellSize     float64
	threshold    float64
	pillarRadius r1.Interval

	noise opensimplex.Noise
	rng   distuv.Uniform

	offsetX, offsetY float64
	pillars          []pillar
	freeCells        []box2d.B2Vec2

	startingPoints []world.EePose
}

type pillar struct {
	pos    box2d.B2Vec2
	radius float64
}

// New creates a NoiseFieldWorld. Cells whose normalized noise value
// exceeds threshold become pillars with radii interpolated over
// pillarRadius by how far the value exceeds the threshold.
func New(sim *physics.Sim, workspace world.Bounds, cellSize, threshold float64,
	pillarRadius r1.Interval, seed int64) *NoiseFieldWorld {
	return &NoiseFieldWorld{
		Base:         world.NewBase(sim, workspace),
		cellSize:     cellSize,
		threshold:    threshold,
		pillarRadius: pillarRadius,
		noise:        opensimplex.NewNormalized(seed),
		rng: distuv.Uniform{Min: 0, Max: 1,
			Src: rand.NewSource(uint64(seed))},
	}
}

// Reset clears the episode state, shifts the noise offset, and scans
// the workspace grid into pillar and free cells. The scan happens
// here rather than in Build because starting points and targets are
// produced before the world is materialized.
func (w *NoiseFieldWorld) Reset() {
	w.ResetBase()
	w.pillars = w.pillars[:0]
	w.freeCells = w.freeCells[:0]
	w.startingPoints = nil
	w.offsetX = w.rng.Rand() * 1000
	w.offsetY = w.rng.Rand() * 1000

	ws := w.Workspace()
	for x := ws.X.Min + w.cellSize/2; x < ws.X.Max; x += w.cellSize {
		for y := ws.Y.Min + w.cellSize/2; y < ws.Y.Max; y += w.cellSize {
			v := w.noise.Eval2((x+w.offsetX)*noiseFrequency,
				(y+w.offsetY)*noiseFrequency)
			pos := box2d.MakeB2Vec2(x, y)
			if v <= w.threshold {
				w.freeCells = append(w.freeCells, pos)
				continue
			}

			t := (v - w.threshold) / (1 - w.threshold)
			radius := w.pillarRadius.Min +
				t*(w.pillarRadius.Max-w.pillarRadius.Min)
			w.pillars = append(w.pillars, pillar{pos: pos, radius: radius})
		}
	}
}

// Build materializes the pillars scanned during Reset into the
// collision set
func (w *NoiseFieldWorld) Build() {
	for _, p := range w.pillars {
		body := w.Sim().CreateCircle(physics.Static, p.pos, p.radius)
		w.Objects = append(w.Objects, body)
	}
}

// Update is a no-op, the pillar field is static within an episode
func (w *NoiseFieldWorld) Update() {}

// CreateEeStartingPoints places every robot in a random free cell.
// Robots whose goals need a rotation also receive an orientation.
func (w *NoiseFieldWorld) CreateEeStartingPoints() []world.EePose {
	needsRotation := make(map[int]bool, len(w.RobotsWithRotation))
	for _, r := range w.RobotsWithRotation {
		needsRotation[r.ID()] = true
	}

	points := make([]world.EePose, len(w.Robots))
	for i, r := range w.Robots {
		pos := w.randomFreeCell()
		points[i].Position = &pos
		if needsRotation[r.ID()] {
			angle := -math.Pi + 2*math.Pi*w.rng.Rand()
			points[i].Angle = &angle
		}
	}
	w.startingPoints = points
	return points
}

// CreatePositionTarget picks, for every robot needing one, a free
// cell at least a quarter of the workspace diagonal away from the
// robot's starting cell
func (w *NoiseFieldWorld) CreatePositionTarget() []box2d.B2Vec2 {
	ws := w.Workspace()
	minDist := 0.25 * math.Hypot(ws.X.Max-ws.X.Min, ws.Y.Max-ws.Y.Min)

	targets := make([]box2d.B2Vec2, len(w.Robots))
	for _, r := range w.RobotsWithPosition {
		var best box2d.B2Vec2
		for try := 0; try < placementTries; try++ {
			best = w.randomFreeCell()
			start := w.startingPoint(r.ID())
			if start == nil ||
				math.Hypot(best.X-start.X, best.Y-start.Y) >= minDist {
				break
			}
		}
		targets[r.ID()] = best
	}
	w.PositionTargets = targets
	return targets
}

// CreateRotationTarget samples a rotation target for robots needing
// one
func (w *NoiseFieldWorld) CreateRotationTarget() []float64 {
	targets := make([]float64, len(w.Robots))
	for _, r := range w.RobotsWithRotation {
		targets[r.ID()] = -math.Pi + 2*math.Pi*w.rng.Rand()
	}
	w.RotationTargets = targets
	return targets
}

// BuildVisualAux marks free cells with small decorative circles so a
// rendered frame shows the walkable space
func (w *NoiseFieldWorld) BuildVisualAux() {
	for _, cell := range w.freeCells {
		aux := w.Sim().CreateVisualCircle(cell, w.cellSize/20)
		w.AuxObjects = append(w.AuxObjects, aux)
	}
}

func (w *NoiseFieldWorld) randomFreeCell() box2d.B2Vec2 {
	if len(w.freeCells) == 0 {
		// Fully occluded field; fall back to the workspace center and
		// let the initialization retry loop reject the attempt
		ws := w.Workspace()
		return box2d.MakeB2Vec2((ws.X.Min+ws.X.Max)/2, (ws.Y.Min+ws.Y.Max)/2)
	}
	idx := int(w.rng.Rand() * float64(len(w.freeCells)))
	if idx >= len(w.freeCells) {
		idx = len(w.freeCells) - 1
	}
	return w.freeCells[idx]
}

func (w *NoiseFieldWorld) startingPoint(robotID int) *box2d.B2Vec2 {
	if robotID < 0 || robotID >= len(w.startingPoints) {
		return nil
	}
	return w.startingPoints[robotID].Position
}
