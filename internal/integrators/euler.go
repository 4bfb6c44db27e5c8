package integrators

import (
	"math"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/physics"
)

// Stepper advances one point of the attractor by dt.
type Stepper interface {
	Step(p dynamo.Point3, dt float64, prm physics.Params) dynamo.Point3
}

// Euler is the plain explicit Euler step.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(p dynamo.Point3, dt float64, prm physics.Params) dynamo.Point3 {
	return p.Add(prm.Derive(p).Scale(dt))
}

// DefaultMaxDisplacement is the displacement per step above which Adaptive
// subdivides.
const DefaultMaxDisplacement = 0.5

// Adaptive is explicit Euler with displacement-driven substepping: when a
// full step would move the point by c*MaxDisplacement with c > 1, the step
// is redone from the start as c Euler steps of dt/c.
type Adaptive struct {
	MaxDisplacement float64
}

func NewAdaptive() *Adaptive {
	return &Adaptive{MaxDisplacement: DefaultMaxDisplacement}
}

func (a *Adaptive) Step(p dynamo.Point3, dt float64, prm physics.Params) dynamo.Point3 {
	result, _ := a.StepCount(p, dt, prm)
	return result
}

// StepCount is Step that also reports how many Euler substeps were taken.
func (a *Adaptive) StepCount(p dynamo.Point3, dt float64, prm physics.Params) (dynamo.Point3, int) {
	naive := p.Add(prm.Derive(p).Scale(dt))

	c := int(math.Floor(naive.Distance(p) / a.MaxDisplacement))
	if c <= 1 {
		return naive, 1
	}

	h := dt / float64(c)
	result := p
	for i := 0; i < c; i++ {
		result = result.Add(prm.Derive(result).Scale(h))
	}
	return result, c
}
