package viz

import (
	"fmt"
	"math"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
)

const (
	DefaultFOV   = 90.0
	DefaultSizeK = 250.0
)

// Viewport is the pixel size of the drawing surface.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Projected is a point mapped to screen space.
type Projected struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Depth float64 `json:"-"`
}

// Pixel reports whether the point is small enough to be drawn as a single
// pixel rather than a filled circle of radius Size.
func (p Projected) Pixel() bool { return p.Size <= 1 }

// View holds the two change-of-basis rotations for one camera placement.
// Build it once per frame and reuse it for every point.
type View struct {
	Camera dynamo.Point3
	R1, R2 dynamo.Basis
}

// NewView builds the rotations that turn the camera→target line into the
// forward (+y) axis. R1 levels the horizontal heading, R2 takes out the
// pitch. A camera directly above or below the target has no horizontal
// heading and is rejected.
func NewView(cam, center dynamo.Point3) (View, error) {
	h, err := dynamo.P3(cam.Y-center.Y, center.X-cam.X, 0).Normalize()
	if err != nil {
		return View{}, fmt.Errorf("camera heading: %w", err)
	}
	r1 := dynamo.Basis{B1: h, B2: h.Cross(dynamo.UnitZ), B3: dynamo.UnitZ}

	f, err := center.Sub(cam).Transform(r1).Normalize()
	if err != nil {
		return View{}, fmt.Errorf("camera pitch: %w", err)
	}
	r2 := dynamo.Basis{B1: dynamo.UnitX, B2: f, B3: f.Cross(dynamo.UnitX)}

	return View{Camera: cam, R1: r1, R2: r2}, nil
}

// ToView returns p in camera-relative view coordinates; y is forward.
func (v View) ToView(p dynamo.Point3) dynamo.Point3 {
	return p.Sub(v.Camera).Transform(v.R1).Transform(v.R2)
}

// Projector maps view-space points onto a viewport.
type Projector struct {
	Viewport Viewport
	FOV      float64
	SizeK    float64
	focus    float64
}

func NewProjector(vp Viewport, fov, sizeK float64) *Projector {
	if fov <= 0 {
		fov = DefaultFOV
	}
	if sizeK <= 0 {
		sizeK = DefaultSizeK
	}
	return &Projector{
		Viewport: vp,
		FOV:      fov,
		SizeK:    sizeK,
		focus:    math.Tan(math.Pi * (0.5 - fov/360)),
	}
}

// Project converts a world point into screen coordinates and apparent size.
// The second result is false when the point is behind the camera plane.
func (pr *Projector) Project(v View, p dynamo.Point3) (Projected, bool) {
	q := v.ToView(p)
	if q.Y < 0 {
		return Projected{}, false
	}

	d := p.Distance(v.Camera)
	if d == 0 {
		return Projected{}, false
	}

	scale := -pr.focus / d
	w, h := pr.Viewport.Width, pr.Viewport.Height

	return Projected{
		X:     w - (q.X*scale+0.5)*h - (w-h)/2,
		Y:     h - (q.Z*scale+0.5)*h,
		Size:  pr.SizeK / d,
		Depth: q.Y,
	}, true
}

// InBounds reports whether the projected center lies on the viewport.
func (pr *Projector) InBounds(p Projected) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < pr.Viewport.Width && p.Y < pr.Viewport.Height
}
