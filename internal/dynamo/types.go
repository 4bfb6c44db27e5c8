package dynamo

import (
	"fmt"
	"math"
)

// Point3 is a point or free vector in 3D space.
type Point3 struct {
	X, Y, Z float64
}

// P3 is shorthand for Point3{x, y, z}.
func P3(x, y, z float64) Point3 { return Point3{x, y, z} }

func (p Point3) Add(o Point3) Point3       { return Point3{p.X + o.X, p.Y + o.Y, p.Z + o.Z} }
func (p Point3) Sub(o Point3) Point3       { return Point3{p.X - o.X, p.Y - o.Y, p.Z - o.Z} }
func (p Point3) Scale(k float64) Point3    { return Point3{p.X * k, p.Y * k, p.Z * k} }
func (p Point3) Dot(o Point3) float64      { return p.X*o.X + p.Y*o.Y + p.Z*o.Z }
func (p Point3) Magnitude() float64        { return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z) }
func (p Point3) Distance(o Point3) float64 { return p.Sub(o).Magnitude() }

// Div divides every component by k. Division by zero follows IEEE rules;
// use DivChecked where k can legitimately be zero.
func (p Point3) Div(k float64) Point3 { return Point3{p.X / k, p.Y / k, p.Z / k} }

// DivChecked is Div that refuses k == 0.
func (p Point3) DivChecked(k float64) (Point3, error) {
	if k == 0 {
		return Point3{}, fmt.Errorf("divide %v by zero: %w", p, ErrDegenerateVector)
	}
	return p.Div(k), nil
}

// Cross returns the right-handed cross product p × o.
func (p Point3) Cross(o Point3) Point3 {
	return Point3{
		p.Y*o.Z - o.Y*p.Z,
		p.Z*o.X - o.Z*p.X,
		p.X*o.Y - o.X*p.Y,
	}
}

// Normalize returns the unit vector along p.
func (p Point3) Normalize() (Point3, error) {
	q, err := p.DivChecked(p.Magnitude())
	if err != nil {
		return Point3{}, fmt.Errorf("normalize: %w", err)
	}
	return q, nil
}

// Transform maps p through the basis: b.B1*p.X + b.B2*p.Y + b.B3*p.Z.
func (p Point3) Transform(b Basis) Point3 {
	return b.B1.Scale(p.X).Add(b.B2.Scale(p.Y)).Add(b.B3.Scale(p.Z))
}

// IsValid reports whether all coordinates are finite.
func (p Point3) IsValid() bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Point3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// Basis holds the columns of a linear change-of-basis map. The vectors do
// not have to be orthonormal for Transform to be defined.
type Basis struct {
	B1, B2, B3 Point3
}

var (
	UnitX = Point3{1, 0, 0}
	UnitY = Point3{0, 1, 0}
	UnitZ = Point3{0, 0, 1}

	Identity = Basis{UnitX, UnitY, UnitZ}
)

// RotationZ is the rotation by angle a about the vertical axis.
func RotationZ(a float64) Basis {
	s, c := math.Sincos(a)
	return Basis{
		Point3{c, s, 0},
		Point3{-s, c, 0},
		UnitZ,
	}
}
