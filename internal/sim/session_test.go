package sim

import (
	"errors"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lorenzcloud/internal/config"
	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/physics"
	"github.com/san-kum/lorenzcloud/internal/slider"
	"github.com/san-kum/lorenzcloud/internal/viz"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var _ = Describe("Session", func() {
	var (
		cfg *config.Config
		s   *Session
	)

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		var err error
		s, err = NewSession(cfg, quiet)
		Expect(err).NotTo(HaveOccurred())
	})

	It("lays out the sliders from the configuration", func() {
		sigma := s.Sliders[SliderSigma]
		Expect(sigma.P1).To(Equal(slider.Point{X: 50, Y: 1030}))
		Expect(sigma.P2).To(Equal(slider.Point{X: 50, Y: 680}))
		Expect(sigma.Value).To(Equal(10.0))
		Expect(sigma.Thumb().Y).To(BeNumerically("~", 898.75, 1e-9))

		Expect(s.Sliders[SliderSpeed].Value).To(Equal(1.0))
		Expect(s.Alpha()).To(Equal(100.0))
		Expect(s.Focus()).To(Equal(-1))
	})

	It("scales the layout down on short viewports", func() {
		cfg.Viewport = config.ViewportConfig{Width: 900, Height: 450}
		small, err := NewSession(cfg, quiet)
		Expect(err).NotTo(HaveOccurred())
		Expect(small.Sliders[SliderR].P1).To(Equal(slider.Point{X: 75, Y: 425}))
		Expect(small.Sliders[SliderR].ThumbRadius).To(Equal(20.0))
	})

	It("keeps slider values across a resize", func() {
		s.Sliders[SliderAlpha].SetValue(30)
		s.Sliders[SliderR].SetValue(50)

		Expect(s.Resize(viz.Viewport{Width: 160, Height: 90})).To(Succeed())
		Expect(s.Projector.Viewport.Height).To(Equal(90.0))
		Expect(s.Alpha()).To(Equal(30.0))
		Expect(s.Sliders[SliderR].Value).To(Equal(50.0))
		Expect(s.Sliders[SliderSigma].P1).To(Equal(slider.Point{X: 5, Y: 85}))
	})

	It("rejects a camera straight above its target", func() {
		cfg.Camera.Position = config.Vec3{-1, 0, 90}
		_, err := NewSession(cfg, quiet)
		Expect(errors.Is(err, dynamo.ErrDegenerateVector)).To(BeTrue())
	})

	It("projects the whole cloud from the default camera", func() {
		f, err := s.Step(Input{Delta: 0.016})
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Points).To(HaveLen(1000))
		Expect(f.Culled).To(BeZero())
		Expect(f.Sliders).To(HaveLen(5))
		Expect(f.Labels[SliderSpeed].Text).To(Equal("speed 100%"))
		Expect(f.Labels[SliderSigma]).To(Equal(Caption{
			Name:   "sigma",
			Text:   "sigma 10.00",
			Anchor: s.Sliders[SliderSigma].P2,
		}))
		Expect(s.Sim.Delta).To(Equal(0.016))
	})

	It("cycles the display mode", func() {
		modes := []DisplayMode{}
		for i := 0; i < 3; i++ {
			f, err := s.Step(Input{CycleDisplay: true})
			Expect(err).NotTo(HaveOccurred())
			modes = append(modes, f.Mode)
		}
		Expect(modes).To(Equal([]DisplayMode{FPSOnly, Hidden, ShowAll}))
	})

	It("hides overlays outside ShowAll", func() {
		f, _ := s.Step(Input{CycleDisplay: true})
		Expect(f.Sliders).To(BeEmpty())
		Expect(f.Labels).To(BeEmpty())
		Expect(f.Points).NotTo(BeEmpty())
	})

	Describe("pointer", func() {
		It("drags the slider under the cursor for the whole press", func() {
			cam := s.Camera.Position
			thumb := s.Sliders[SliderSigma].Thumb()

			_, err := s.Step(Input{Primary: true, Cursor: thumb})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Focus()).To(Equal(SliderSigma))

			_, err = s.Step(Input{Primary: true, Cursor: slider.Point{X: 400, Y: 600}, MouseDX: 300, MouseDY: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Sim.Params.Sigma).To(Equal(25.0))
			Expect(s.Camera.Position).To(Equal(cam))

			s.Step(Input{})
			Expect(s.Focus()).To(Equal(-1))
		})

		It("orbits the camera when the press misses every thumb", func() {
			cam := s.Camera.Position
			dist := s.Camera.Distance()

			_, err := s.Step(Input{Primary: true, Cursor: slider.Point{X: 960, Y: 540}, MouseDX: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Focus()).To(Equal(-1))
			Expect(s.Camera.Position).NotTo(Equal(cam))
			Expect(s.Camera.Distance()).To(BeNumerically("~", dist, 1e-9))
			Expect(s.Sim.Params).To(Equal(physics.DefaultParams()))
		})

		It("ignores motion without the button", func() {
			cam := s.Camera.Position
			s.Step(Input{MouseDX: 100, MouseDY: 40})
			Expect(s.Camera.Position).To(Equal(cam))
		})
	})

	It("zooms while the key is held", func() {
		dist := s.Camera.Distance()
		s.Step(Input{ZoomIn: true, Delta: 0.1})
		closer := s.Camera.Distance()
		Expect(closer).To(BeNumerically("<", dist))

		s.Step(Input{ZoomOut: true, Delta: 0.1})
		Expect(s.Camera.Distance()).To(BeNumerically(">", closer))
	})

	It("resets the cloud and coefficients", func() {
		s.Sliders[SliderSigma].SetValue(3)
		s.Sliders[SliderSpeed].SetValue(2.5)
		s.Sliders[SliderAlpha].SetValue(40)
		for i := 0; i < 10; i++ {
			s.Step(Input{Delta: 0.02})
		}

		s.Reset()

		fresh, _ := NewSession(config.DefaultConfig(), quiet)
		Expect(s.Sim.Points).To(Equal(fresh.Sim.Points))
		Expect(s.Sim.Params).To(Equal(physics.DefaultParams()))
		Expect(s.Sim.Speed).To(Equal(1.0))
		Expect(s.Sim.Delta).To(Equal(0.02))
		Expect(s.Sim.Frame).To(BeZero())
		Expect(s.Sliders[SliderSigma].Value).To(Equal(10.0))
		Expect(s.Sliders[SliderSpeed].Value).To(Equal(1.0))
		Expect(s.Alpha()).To(Equal(40.0))
	})

	It("integrates the reset frame with the measured delta", func() {
		for i := 0; i < 3; i++ {
			s.Step(Input{Delta: 0.02})
		}
		_, err := s.Step(Input{Reset: true, Delta: 0.02})
		Expect(err).NotTo(HaveOccurred())

		fresh, _ := NewSession(config.DefaultConfig(), quiet)
		fresh.Sim.Advance(0.02)
		Expect(s.Sim.Points).To(Equal(fresh.Sim.Points))
		Expect(s.Sim.Frame).To(Equal(1))
	})

	It("matches the serial result when parallel", func() {
		cfg.Simulation.Parallel = true
		par, err := NewSession(cfg, quiet)
		Expect(err).NotTo(HaveOccurred())
		serial, _ := NewSession(config.DefaultConfig(), quiet)

		for i := 0; i < 5; i++ {
			in := Input{Delta: 0.016}
			_, err := par.Step(in)
			Expect(err).NotTo(HaveOccurred())
			serial.Step(in)
		}
		Expect(par.Sim.Points).To(Equal(serial.Sim.Points))
	})
})

var _ = DescribeTable("FormatLabel",
	func(idx int, v float64, want string) {
		Expect(FormatLabel(idx, v)).To(Equal(want))
	},
	Entry("sigma", SliderSigma, 10.0, "sigma 10.00"),
	Entry("r", SliderR, 28.0, "r 28.00"),
	Entry("b", SliderB, 8.0/3.0, "b 2.67"),
	Entry("speed", SliderSpeed, 0.5, "speed 50%"),
	Entry("alpha", SliderAlpha, 99.6, "alpha 99"),
)
