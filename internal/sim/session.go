package sim

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/lorenzcloud/internal/config"
	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/integrators"
	"github.com/san-kum/lorenzcloud/internal/physics"
	"github.com/san-kum/lorenzcloud/internal/slider"
	"github.com/san-kum/lorenzcloud/internal/viz"
)

// Slider indices in Session.Sliders.
const (
	SliderSigma = iota
	SliderR
	SliderB
	SliderSpeed
	SliderAlpha
	numSliders
)

// DisplayMode selects which overlays a renderer draws.
type DisplayMode int

const (
	ShowAll DisplayMode = iota
	FPSOnly
	Hidden
)

func (m DisplayMode) Next() DisplayMode { return (m + 1) % 3 }

func (m DisplayMode) String() string {
	switch m {
	case ShowAll:
		return "all"
	case FPSOnly:
		return "fps"
	case Hidden:
		return "hidden"
	}
	return fmt.Sprintf("DisplayMode(%d)", int(m))
}

// Input is one frame worth of decoded user input.
type Input struct {
	MouseDX, MouseDY float64
	Cursor           slider.Point
	Primary          bool // primary button held
	ZoomIn, ZoomOut  bool // zoom keys held
	Reset            bool
	CycleDisplay     bool
	// Delta is the wall time of this frame in seconds.
	Delta float64
}

// Caption is the text drawn beside a slider.
type Caption struct {
	Name   string       `json:"name"`
	Text   string       `json:"text"`
	Anchor slider.Point `json:"anchor"`
}

// SliderView is the drawable state of one slider.
type SliderView struct {
	Name        string       `json:"name"`
	Full        slider.Quad  `json:"full"`
	Empty       slider.Quad  `json:"empty"`
	Thumb       slider.Point `json:"thumb"`
	TrackRadius float64      `json:"track_radius"`
	ThumbRadius float64      `json:"thumb_radius"`
	Value       float64      `json:"value"`
	Focused     bool         `json:"focused"`
}

// Frame is everything a renderer needs for one frame. It is owned by the
// Session and overwritten by the next Step.
type Frame struct {
	Index    int             `json:"index"`
	Viewport viz.Viewport    `json:"viewport"`
	Points   []viz.Projected `json:"points"`
	Culled   int             `json:"culled"`
	Sliders  []SliderView    `json:"sliders,omitempty"`
	Labels   []Caption       `json:"labels,omitempty"`
	Mode     DisplayMode     `json:"mode"`
	FPS      int             `json:"fps"`
	Alpha    float64         `json:"alpha"`
	Params   physics.Params  `json:"params"`
	Camera   dynamo.Point3   `json:"camera"`
}

// Session wires the simulation, camera, projector and sliders into one
// frame loop. It is not safe for concurrent use.
type Session struct {
	Sim       *Simulation
	Camera    *viz.Camera
	Projector *viz.Projector
	Sliders   [numSliders]*slider.Slider
	Mode      DisplayMode
	FPS       FPSCounter

	cfg      *config.Config
	zoomRate float64
	focus    int
	pressed  bool
	parallel bool

	projected []viz.Projected
	visible   []bool
	frame     Frame
	logger    *slog.Logger
}

func NewSession(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	stepper, err := integrators.Get(cfg.Simulation.Integrator)
	if err != nil {
		return nil, err
	}
	if a, ok := stepper.(*integrators.Adaptive); ok {
		a.MaxDisplacement = cfg.Simulation.MaxDisplacement
	}

	simCfg := cfg.Simulation
	grid := Grid{Size: simCfg.Grid, Spacing: simCfg.Spacing, Offset: simCfg.Offset}
	simulation, err := NewSimulation(grid, simCfg.Params, simCfg.Speed, simCfg.InitialDelta,
		WithStepper(stepper), WithParallel(simCfg.Parallel))
	if err != nil {
		return nil, err
	}

	cam := viz.NewCamera(cfg.Camera.Position.Point(), cfg.Camera.Target.Point())
	cam.PPR = cfg.Camera.PPR
	if _, err := cam.View(); err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}

	vp := viz.Viewport{Width: float64(cfg.Viewport.Width), Height: float64(cfg.Viewport.Height)}
	s := &Session{
		Sim:       simulation,
		Camera:    cam,
		Projector: viz.NewProjector(vp, cfg.Projection.FOV, cfg.Projection.SizeK),
		cfg:       cfg,
		zoomRate:  cfg.Camera.ZoomRate,
		focus:     -1,
		parallel:  simCfg.Parallel,
		projected: make([]viz.Projected, len(simulation.Points)),
		visible:   make([]bool, len(simulation.Points)),
		logger:    logger.With("component", "session"),
	}
	if err := s.layoutSliders(vp); err != nil {
		return nil, err
	}
	return s, nil
}

// layoutSliders places the parameter sliders along the left edge, speed
// along the bottom and trail alpha along the top, all shrunk for viewports
// shorter than 900 pixels unless a scale is configured.
func (s *Session) layoutSliders(vp viz.Viewport) error {
	sc := s.cfg.Sliders
	u := sc.Scale
	if u <= 0 {
		u = math.Min(1, vp.Height/900)
	}
	w, h := vp.Width, vp.Height
	tr, th := sc.TrackRadius*u, sc.ThumbRadius*u

	type track struct {
		name   string
		p1, p2 slider.Point
		rng    physics.Range
		value  float64
	}
	prm := s.Sim.Params
	tracks := [numSliders]track{
		{"sigma", slider.Point{X: 50 * u, Y: h - 50*u}, slider.Point{X: 50 * u, Y: h - 400*u}, sc.Bounds.Sigma, prm.Sigma},
		{"r", slider.Point{X: 150 * u, Y: h - 50*u}, slider.Point{X: 150 * u, Y: h - 400*u}, sc.Bounds.R, prm.R},
		{"b", slider.Point{X: 250 * u, Y: h - 50*u}, slider.Point{X: 250 * u, Y: h - 400*u}, sc.Bounds.B, prm.B},
		{"speed", slider.Point{X: w - 50*u, Y: h - 50*u}, slider.Point{X: w - 600*u, Y: h - 50*u}, sc.Speed, s.Sim.Speed},
		{"alpha", slider.Point{X: w - 50*u, Y: 50 * u}, slider.Point{X: w - 600*u, Y: 50 * u}, sc.Alpha, s.cfg.Render.Alpha},
	}
	for i, sp := range tracks {
		sl, err := slider.New(sp.name, sp.p1, sp.p2, sp.rng.Min, sp.rng.Max, sp.value, tr, th)
		if err != nil {
			return err
		}
		s.Sliders[i] = sl
	}
	return nil
}

// Resize moves the projection and the slider layout onto a new viewport.
// Slider values survive the move.
func (s *Session) Resize(vp viz.Viewport) error {
	var values [numSliders]float64
	for i, sl := range s.Sliders {
		values[i] = sl.Value
	}
	if err := s.layoutSliders(vp); err != nil {
		return err
	}
	for i, sl := range s.Sliders {
		sl.SetValue(values[i])
	}
	s.Projector.Viewport = vp
	s.focus = -1
	return nil
}

// Alpha is the trail fade in [0, 100]. Each frame keeps 1-alpha/255 of the last.
func (s *Session) Alpha() float64 { return s.Sliders[SliderAlpha].Value }

// Focus returns the index of the slider being dragged, or -1.
func (s *Session) Focus() int { return s.focus }

// Reset restores the initial cloud, default coefficients and unit speed.
// Camera, alpha and the measured frame delta are kept.
func (s *Session) Reset() {
	measured := s.Sim.Delta
	s.Sim.Reinitialize()
	s.Sim.Delta = measured
	s.Sim.Params = physics.DefaultParams()
	s.Sim.Speed = 1
	s.Sliders[SliderSigma].SetValue(s.Sim.Params.Sigma)
	s.Sliders[SliderR].SetValue(s.Sim.Params.R)
	s.Sliders[SliderB].SetValue(s.Sim.Params.B)
	s.Sliders[SliderSpeed].SetValue(s.Sim.Speed)
	s.logger.Debug("reset")
}

func (s *Session) handlePointer(in Input) {
	if !in.Primary {
		s.pressed = false
		s.focus = -1
		return
	}
	if !s.pressed {
		s.pressed = true
		s.focus = -1
		for i, sl := range s.Sliders {
			if sl.IsOverThumb(in.Cursor) {
				s.focus = i
				break
			}
		}
	}

	if s.focus >= 0 {
		s.Sliders[s.focus].Drag(in.Cursor)
		return
	}
	if in.MouseDX == 0 && in.MouseDY == 0 {
		return
	}
	if err := s.Camera.Orbit(in.MouseDX, in.MouseDY); err != nil {
		s.logger.Warn("orbit rejected", "error", err)
	}
}

func (s *Session) syncParams() {
	s.Sim.Params = physics.Params{
		Sigma: s.Sliders[SliderSigma].Value,
		R:     s.Sliders[SliderR].Value,
		B:     s.Sliders[SliderB].Value,
	}
	s.Sim.Speed = s.Sliders[SliderSpeed].Value
}

// Step runs one frame: input, camera, sliders, integration, projection.
// The returned frame is reused by the next call.
func (s *Session) Step(in Input) (*Frame, error) {
	if in.CycleDisplay {
		s.Mode = s.Mode.Next()
	}
	if in.Reset {
		s.Reset()
	}

	s.handlePointer(in)
	if in.ZoomIn {
		s.Camera.ZoomIn(s.zoomRate, s.Sim.Delta)
	}
	if in.ZoomOut {
		s.Camera.ZoomOut(s.zoomRate, s.Sim.Delta)
	}
	s.syncParams()

	s.Sim.Advance(s.Sim.Delta)
	if err := s.project(); err != nil {
		return nil, err
	}

	s.FPS.Tick(in.Delta)
	if in.Delta > 0 {
		s.Sim.Delta = in.Delta
	}
	return s.buildFrame(), nil
}

func (s *Session) project() error {
	view, err := s.Camera.View()
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}
	pts := s.Sim.Points
	work := func(start, end int) {
		for i := start; i < end; i++ {
			s.projected[i], s.visible[i] = s.Projector.Project(view, pts[i])
		}
	}
	if s.parallel {
		dynamo.ParallelFor(len(pts), parallelChunk, work)
	} else {
		work(0, len(pts))
	}
	return nil
}

func (s *Session) buildFrame() *Frame {
	f := &s.frame
	f.Index = s.Sim.Frame
	f.Viewport = s.Projector.Viewport
	f.Mode = s.Mode
	f.FPS = s.FPS.FPS()
	f.Alpha = s.Alpha()
	f.Params = s.Sim.Params
	f.Camera = s.Camera.Position

	f.Points = f.Points[:0]
	f.Culled = 0
	for i, ok := range s.visible {
		if ok {
			f.Points = append(f.Points, s.projected[i])
		} else {
			f.Culled++
		}
	}

	f.Sliders = f.Sliders[:0]
	f.Labels = f.Labels[:0]
	if s.Mode != ShowAll {
		return f
	}
	for i, sl := range s.Sliders {
		full, empty := sl.Track()
		f.Sliders = append(f.Sliders, SliderView{
			Name:        sl.Name,
			Full:        full,
			Empty:       empty,
			Thumb:       sl.Thumb(),
			TrackRadius: sl.TrackRadius,
			ThumbRadius: sl.ThumbRadius,
			Value:       sl.Value,
			Focused:     i == s.focus,
		})
		f.Labels = append(f.Labels, Caption{Name: sl.Name, Text: FormatLabel(i, sl.Value), Anchor: sl.P2})
	}
	return f
}

// FormatLabel renders a slider value for overlays. Speed and alpha are
// truncated, coefficients keep two decimals.
func FormatLabel(idx int, v float64) string {
	switch idx {
	case SliderSpeed:
		return fmt.Sprintf("speed %d%%", int(v*100))
	case SliderAlpha:
		return fmt.Sprintf("alpha %d", int(v))
	case SliderSigma:
		return fmt.Sprintf("sigma %.2f", v)
	case SliderR:
		return fmt.Sprintf("r %.2f", v)
	case SliderB:
		return fmt.Sprintf("b %.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
