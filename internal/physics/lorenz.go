package physics

import (
	"fmt"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
)

// Classic coefficients.
const (
	DefaultSigma = 10.0
	DefaultR     = 28.0
	DefaultB     = 8.0 / 3.0
)

// Params are the three Lorenz coefficients.
type Params struct {
	Sigma float64 `yaml:"sigma" json:"sigma"`
	R     float64 `yaml:"r" json:"r"`
	B     float64 `yaml:"b" json:"b"`
}

func DefaultParams() Params { return Params{DefaultSigma, DefaultR, DefaultB} }

// Derive calculates the Lorenz attractor derivatives at p.
func (l Params) Derive(p dynamo.Point3) dynamo.Point3 {
	return dynamo.Point3{
		X: l.Sigma * (p.Y - p.X),
		Y: p.X*(l.R-p.Z) - p.Y,
		Z: p.X*p.Y - l.B*p.Z,
	}
}

func (l Params) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.Sigma, "r": l.R, "b": l.B}
}

// SetParam updates one coefficient by name.
func (l *Params) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.Sigma = v
	case "r", "rho":
		l.R = v
	case "b", "beta":
		l.B = v
	default:
		return fmt.Errorf("unknown lorenz parameter %q", n)
	}
	return nil
}

// Range is a closed interval of admissible values.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Bounds are the admissible coefficient ranges, matching the slider ranges.
type Bounds struct {
	Sigma Range `yaml:"sigma"`
	R     Range `yaml:"r"`
	B     Range `yaml:"b"`
}

func DefaultBounds() Bounds {
	return Bounds{
		Sigma: Range{1, 25},
		R:     Range{1, 100},
		B:     Range{0, 5},
	}
}

// Validate checks the coefficients against bounds. Sliders clamp on their
// own; this is for callers setting parameters directly.
func (l Params) Validate(b Bounds) error {
	check := func(name string, v float64, r Range) error {
		if !r.Contains(v) {
			return fmt.Errorf("%s=%g outside [%g, %g]: %w", name, v, r.Min, r.Max, dynamo.ErrParameterBounds)
		}
		return nil
	}
	if err := check("sigma", l.Sigma, b.Sigma); err != nil {
		return err
	}
	if err := check("r", l.R, b.R); err != nil {
		return err
	}
	return check("b", l.B, b.B)
}
