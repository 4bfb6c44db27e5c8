package integrators

import (
	"math"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/physics"
)

// RK4 is the classic fourth-order Runge-Kutta step. It is used as the
// accuracy reference for the interactive stepper.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(p dynamo.Point3, dt float64, prm physics.Params) dynamo.Point3 {
	k1 := prm.Derive(p)
	k2 := prm.Derive(p.Add(k1.Scale(dt * 0.5)))
	k3 := prm.Derive(p.Add(k2.Scale(dt * 0.5)))
	k4 := prm.Derive(p.Add(k3.Scale(dt)))

	sum := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4)
	return p.Add(sum.Scale(dt / 6.0))
}

// Integrate covers duration with ceil(duration/h) equal steps of s.
func Integrate(s Stepper, p dynamo.Point3, prm physics.Params, duration, h float64) dynamo.Point3 {
	if duration <= 0 || h <= 0 {
		return p
	}
	n := int(math.Ceil(duration / h))
	step := duration / float64(n)
	for i := 0; i < n; i++ {
		p = s.Step(p, step, prm)
	}
	return p
}
