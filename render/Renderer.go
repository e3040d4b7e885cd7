// Package render draws top-down frames of the simulation as PNG
// images. Rendering is purely observational: suspending it never
// changes environment semantics, it only skips the drawing work.
package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"

	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/world"
)

const (
	// ViewportW and ViewportH are the frame dimensions in pixels
	ViewportW = 600
	ViewportH = 600
)

var (
	backgroundShade = color.RGBA{R: 24, G: 24, B: 32, A: 255}
	solidShade      = color.RGBA{R: 214, G: 214, B: 224, A: 255}
	auxShade        = color.RGBA{R: 90, G: 160, B: 90, A: 255}
)

// Renderer captures the current state of a simulation as one PNG per
// step. Solid fixtures draw filled; visual-only fixtures draw in the
// auxiliary shade so targets and markers stand apart from obstacles.
type Renderer struct {
	sim    *physics.Sim
	bounds world.Bounds
	outDir string

	suspended bool
	frame     int
}

// New creates a renderer drawing the given workspace into outDir,
// creating the directory if needed
func New(sim *physics.Sim, bounds world.Bounds, outDir string) (*Renderer, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("render: create output dir: %w", err)
	}
	return &Renderer{sim: sim, bounds: bounds, outDir: outDir}, nil
}

// Suspend disables frame capture until Resume. Used during episode
// initialization, where intermediate attempts carry no meaning.
func (r *Renderer) Suspend() {
	r.suspended = true
}

// Resume re-enables frame capture
func (r *Renderer) Resume() {
	r.suspended = false
}

// worldToPixel maps a workspace coordinate to the frame, flipping the
// y axis so the workspace reads the right way up
func (r *Renderer) worldToPixel(v box2d.B2Vec2) (float64, float64) {
	scaleX := ViewportW / (r.bounds.X.Max - r.bounds.X.Min)
	scaleY := ViewportH / (r.bounds.Y.Max - r.bounds.Y.Min)
	px := (v.X - r.bounds.X.Min) * scaleX
	py := ViewportH - (v.Y-r.bounds.Y.Min)*scaleY
	return px, py
}

// Capture draws one frame of the current simulation state and writes
// it as a PNG named by a monotone frame index. A suspended renderer
// does nothing.
func (r *Renderer) Capture(_ int) error {
	if r.suspended {
		return nil
	}

	dc := gg.NewContext(ViewportW, ViewportH)
	dc.SetColor(backgroundShade)
	dc.Clear()

	r.sim.Bodies(func(body *box2d.B2Body) {
		for fix := body.GetFixtureList(); fix != nil; fix = fix.M_next {
			shade := solidShade
			if fix.M_isSensor {
				shade = auxShade
			}

			switch shape := fix.M_shape.(type) {
			case *box2d.B2PolygonShape:
				dc.ClearPath()
				for i := 0; i < shape.M_count; i++ {
					vertex := box2d.B2TransformVec2Mul(body.M_xf,
						shape.M_vertices[i])
					dc.LineTo(r.worldToPixel(vertex))
				}
				first := box2d.B2TransformVec2Mul(body.M_xf,
					shape.M_vertices[0])
				dc.LineTo(r.worldToPixel(first))
				dc.SetColor(shade)
				dc.Fill()
			case *box2d.B2CircleShape:
				center := box2d.B2TransformVec2Mul(body.M_xf, shape.M_p)
				px, py := r.worldToPixel(center)
				radius := shape.M_radius * ViewportW /
					(r.bounds.X.Max - r.bounds.X.Min)
				dc.ClearPath()
				dc.DrawCircle(px, py, radius)
				dc.SetColor(shade)
				dc.Fill()
			}
		}
	})

	r.frame++
	name := filepath.Join(r.outDir, fmt.Sprintf("frame%06d.png", r.frame))
	if err := dc.SavePNG(name); err != nil {
		return fmt.Errorf("render: save frame %v: %w", r.frame, err)
	}
	return nil
}
