package sim

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/integrators"
	"github.com/san-kum/lorenzcloud/internal/physics"
)

type nanStepper struct{}

func (nanStepper) Step(p dynamo.Point3, dt float64, prm physics.Params) dynamo.Point3 {
	return dynamo.P3(math.NaN(), p.Y, p.Z)
}

var _ = Describe("Simulation", func() {
	var s *Simulation

	BeforeEach(func() {
		var err error
		s, err = NewSimulation(DefaultGrid(), physics.DefaultParams(), 1, 0.001)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts on the grid", func() {
		Expect(s.Points).To(HaveLen(1000))
		Expect(s.Points[0]).To(Equal(dynamo.P3(0.001, 0.001, 0.001)))
		Expect(s.Points[1].X).To(BeNumerically("~", 0.0011, 1e-12))
		Expect(s.Points[1].Z).To(Equal(0.001))
		Expect(s.Points[100].Z).To(BeNumerically("~", 0.0011, 1e-12))
		Expect(s.Points[999].Y).To(BeNumerically("~", 0.0019, 1e-12))
		Expect(s.Delta).To(Equal(0.001))
	})

	It("rejects an empty grid", func() {
		_, err := NewSimulation(Grid{}, physics.DefaultParams(), 1, 0.001)
		Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
	})

	It("advances every point with the stepper", func() {
		before := append([]dynamo.Point3(nil), s.Points...)
		s.Advance(0.01)

		st := integrators.NewAdaptive()
		for i := range before {
			Expect(s.Points[i]).To(Equal(st.Step(before[i], 0.01, s.Params)))
		}
		Expect(s.Frame).To(Equal(1))
		Expect(s.Time).To(BeNumerically("~", 0.01, 1e-15))
	})

	It("scales the step by speed", func() {
		s.Speed = 0
		before := append([]dynamo.Point3(nil), s.Points...)
		s.Advance(0.05)
		Expect(s.Points).To(Equal(before))
	})

	It("gives the same result in parallel", func() {
		par, err := NewSimulation(DefaultGrid(), physics.DefaultParams(), 1, 0.001, WithParallel(true))
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 20; i++ {
			s.Advance(0.016)
			par.Advance(0.016)
		}
		Expect(par.Points).To(Equal(s.Points))
	})

	It("reinitializes in place", func() {
		buf := &s.Points[0]
		s.Advance(0.5)
		s.Delta = 0.3
		s.Reinitialize()

		fresh, _ := NewSimulation(DefaultGrid(), physics.DefaultParams(), 1, 0.001)
		Expect(&s.Points[0]).To(BeIdenticalTo(buf))
		Expect(s.Points).To(Equal(fresh.Points))
		Expect(s.Delta).To(Equal(0.001))
		Expect(s.Frame).To(BeZero())
	})

	Describe("Run", func() {
		It("calls the observer once per frame", func() {
			calls := 0
			err := s.Run(context.Background(), 25, 0.01, ObserverFunc(func(*Simulation) error {
				calls++
				return nil
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal(25))
			Expect(s.Frame).To(Equal(25))
		})

		It("stops on cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := s.Run(ctx, 10, 0.01, nil)
			Expect(err).To(MatchError(context.Canceled))
			Expect(s.Frame).To(BeZero())
		})

		It("propagates observer errors", func() {
			boom := errors.New("boom")
			err := s.Run(context.Background(), 10, 0.01, ObserverFunc(func(*Simulation) error { return boom }))
			Expect(err).To(MatchError(boom))
			Expect(s.Frame).To(Equal(1))
		})

		It("reports diverged points", func() {
			bad, _ := NewSimulation(DefaultGrid(), physics.DefaultParams(), 1, 0.001, WithStepper(nanStepper{}))
			err := bad.Run(context.Background(), 3, 0.01, nil)

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Frame).To(Equal(1))
			Expect(simErr.Point).To(Equal(0))
			Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())
		})

		It("rejects a non-positive delta", func() {
			Expect(s.Run(context.Background(), 1, 0, nil)).To(MatchError(dynamo.ErrParameterBounds))
		})
	})
})

var _ = Describe("FPSCounter", func() {
	It("reports frames of the last full second", func() {
		var c FPSCounter
		Expect(c.Tick(0.25)).To(Equal(0))
		Expect(c.Tick(0.25)).To(Equal(0))
		Expect(c.Tick(0.25)).To(Equal(0))
		Expect(c.Tick(0.25)).To(Equal(4))
		Expect(c.Tick(0.5)).To(Equal(4))
		Expect(c.Tick(0.5)).To(Equal(2))

		c.Reset()
		Expect(c.FPS()).To(BeZero())
	})
})
