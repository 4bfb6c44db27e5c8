package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/integrators"
	"github.com/san-kum/lorenzcloud/internal/physics"
)

// parallelChunk is the smallest slice of points handed to one worker.
const parallelChunk = 256

// Grid describes the initial cube of particles: Size points per axis, each
// coordinate index*Spacing + Offset.
type Grid struct {
	Size    int
	Spacing float64
	Offset  float64
}

func DefaultGrid() Grid {
	return Grid{Size: 10, Spacing: 1e-4, Offset: 0.001}
}

func (g Grid) Count() int { return g.Size * g.Size * g.Size }

// Fill writes the grid into dst, which must hold Count points. x varies
// fastest.
func (g Grid) Fill(dst []dynamo.Point3) {
	n := 0
	for z := 0; z < g.Size; z++ {
		for y := 0; y < g.Size; y++ {
			for x := 0; x < g.Size; x++ {
				dst[n] = dynamo.P3(
					float64(x)*g.Spacing+g.Offset,
					float64(y)*g.Spacing+g.Offset,
					float64(z)*g.Spacing+g.Offset,
				)
				n++
			}
		}
	}
}

// Observer is notified after every advanced frame of a headless run.
type Observer interface {
	OnFrame(s *Simulation) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s *Simulation) error

func (f ObserverFunc) OnFrame(s *Simulation) error { return f(s) }

// Simulation is the particle cloud. The Points buffer is allocated once and
// mutated in place for the lifetime of the simulation.
type Simulation struct {
	Points []dynamo.Point3
	Params physics.Params
	Speed  float64
	// Delta is the duration of the previous frame in seconds.
	Delta float64
	Time  float64
	Frame int

	grid         Grid
	initialDelta float64
	stepper      integrators.Stepper
	parallel     bool
}

type Option func(*Simulation)

func WithStepper(st integrators.Stepper) Option {
	return func(s *Simulation) { s.stepper = st }
}

func WithParallel(on bool) Option {
	return func(s *Simulation) { s.parallel = on }
}

func NewSimulation(grid Grid, params physics.Params, speed, initialDelta float64, opts ...Option) (*Simulation, error) {
	if grid.Size <= 0 {
		return nil, fmt.Errorf("grid size %d: %w", grid.Size, dynamo.ErrParameterBounds)
	}
	s := &Simulation{
		Points:       make([]dynamo.Point3, grid.Count()),
		Params:       params,
		Speed:        speed,
		grid:         grid,
		initialDelta: initialDelta,
		stepper:      integrators.NewAdaptive(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reinitialize()
	return s, nil
}

// Reinitialize restores the grid positions, the initial frame delta and the
// clock. Parameters and speed are left alone.
func (s *Simulation) Reinitialize() {
	s.grid.Fill(s.Points)
	s.Delta = s.initialDelta
	s.Time = 0
	s.Frame = 0
}

// Advance integrates every point by delta scaled by Speed.
func (s *Simulation) Advance(delta float64) {
	dt := delta * s.Speed
	prm := s.Params
	step := func(start, end int) {
		for i := start; i < end; i++ {
			s.Points[i] = s.stepper.Step(s.Points[i], dt, prm)
		}
	}
	if s.parallel {
		dynamo.ParallelFor(len(s.Points), parallelChunk, step)
	} else {
		step(0, len(s.Points))
	}
	s.Time += dt
	s.Frame++
}

// Invalid returns the index of the first point with a NaN or Inf
// coordinate, or -1.
func (s *Simulation) Invalid() int {
	for i, p := range s.Points {
		if !p.IsValid() {
			return i
		}
	}
	return -1
}

// Run advances frames times at a fixed delta, calling obs after each frame.
// It stops early on cancellation, an observer error or a diverged point.
func (s *Simulation) Run(ctx context.Context, frames int, delta float64, obs Observer) error {
	if frames < 0 || delta <= 0 {
		return fmt.Errorf("run: frames=%d delta=%g: %w", frames, delta, dynamo.ErrParameterBounds)
	}
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.Advance(delta)
		s.Delta = delta

		if idx := s.Invalid(); idx >= 0 {
			return &dynamo.SimulationError{Frame: s.Frame, Time: s.Time, Point: idx, Wrapped: dynamo.ErrInvalidState}
		}
		if obs != nil {
			if err := obs.OnFrame(s); err != nil {
				return err
			}
		}
	}
	return nil
}
