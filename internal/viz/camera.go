package viz

import (
	"fmt"
	"math"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
)

const (
	DefaultPPR       = 500.0 // pixels of mouse travel per radian
	DefaultZoomRate  = 50.0
	MinOrbitRadius   = 5.0
	MaxElevationTilt = 10.0 // |dz| / horizontal distance
)

// Camera is an orbit camera looking at a fixed target.
type Camera struct {
	Position dynamo.Point3
	Target   dynamo.Point3
	PPR      float64
}

func NewCamera(position, target dynamo.Point3) *Camera {
	return &Camera{Position: position, Target: target, PPR: DefaultPPR}
}

func (c *Camera) Distance() float64 { return c.Position.Distance(c.Target) }

// View builds the projection rotations for the current placement.
func (c *Camera) View() (View, error) { return NewView(c.Position, c.Target) }

// Orbit applies a mouse drag. On error the camera is left untouched.
func (c *Camera) Orbit(dx, dy float64) error {
	p, err := Orbit(c.Position, c.Target, dx, dy, c.PPR)
	if err != nil {
		return err
	}
	c.Position = p
	return nil
}

func (c *Camera) ZoomIn(rate, dt float64) {
	c.Position = ZoomIn(c.Position, c.Target, rate, dt)
}

func (c *Camera) ZoomOut(rate, dt float64) {
	c.Position = ZoomOut(c.Position, c.Target, rate, dt)
}

// Orbit moves cam on the sphere around center. Horizontal motion spins the
// camera about the vertical axis through center by dx/ppr radians; vertical
// motion tilts it towards or away from the pole by dy/ppr radians. A tilt
// that would bring the camera steeper than MaxElevationTilt is dropped.
func Orbit(cam, center dynamo.Point3, dx, dy, ppr float64) (dynamo.Point3, error) {
	if ppr <= 0 {
		return cam, fmt.Errorf("orbit: ppr=%g: %w", ppr, dynamo.ErrParameterBounds)
	}

	if dx != 0 {
		cam = center.Add(cam.Sub(center).Transform(dynamo.RotationZ(dx / ppr)))
	}
	if dy == 0 {
		return cam, nil
	}

	v1 := center.Sub(cam)
	radius := v1.Magnitude()
	u1, err := v1.Normalize()
	if err != nil {
		return cam, fmt.Errorf("orbit: camera on target: %w", err)
	}
	u2, err := dynamo.P3(center.Y-cam.Y, cam.X-center.X, 0).Normalize()
	if err != nil {
		return cam, fmt.Errorf("orbit: camera above target: %w", err)
	}

	moved := cam.Add(u2.Cross(u1).Scale(dy / ppr * radius))
	offset, err := moved.Sub(center).Normalize()
	if err != nil {
		return cam, fmt.Errorf("orbit: %w", err)
	}
	result := center.Add(offset.Scale(radius))

	horizontal := math.Hypot(result.X-center.X, result.Y-center.Y)
	if horizontal == 0 || math.Abs(result.Z-center.Z)/horizontal >= MaxElevationTilt {
		return cam, nil
	}
	return result, nil
}

// ZoomIn pulls cam towards center by a factor dist/(dist + rate*dt). It does
// nothing once the camera is within MinOrbitRadius and never overshoots it.
func ZoomIn(cam, center dynamo.Point3, rate, dt float64) dynamo.Point3 {
	offset := cam.Sub(center)
	dist := offset.Magnitude()
	step := rate * dt
	if dist <= MinOrbitRadius || step <= 0 {
		return cam
	}

	factor := dist / (dist + step)
	if dist*factor < MinOrbitRadius {
		factor = MinOrbitRadius / dist
	}
	return center.Add(offset.Scale(factor))
}

// ZoomOut pushes cam away from center by a factor dist/(dist - rate*dt). A
// step at least as large as the current distance is ignored.
func ZoomOut(cam, center dynamo.Point3, rate, dt float64) dynamo.Point3 {
	offset := cam.Sub(center)
	dist := offset.Magnitude()
	step := rate * dt
	if dist == 0 || step <= 0 || step >= dist {
		return cam
	}
	return center.Add(offset.Scale(dist / (dist - step)))
}
