package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/physics"
)

const (
	DefaultWidth        = 1920
	DefaultHeight       = 1080
	DefaultPPR          = 500.0
	DefaultZoomRate     = 50.0
	DefaultFOV          = 90.0
	DefaultSizeK        = 250.0
	DefaultGrid         = 10
	DefaultSpacing      = 1e-4
	DefaultOffset       = 0.001
	DefaultInitialDelta = 0.001
	DefaultSpeed        = 1.0
	DefaultAlpha        = 100.0
	DefaultTrackRadius  = 25.0
	DefaultThumbRadius  = 40.0
	DefaultFPS          = 60
)

type Config struct {
	Viewport   ViewportConfig   `yaml:"viewport"`
	Camera     CameraConfig     `yaml:"camera"`
	Projection ProjectionConfig `yaml:"projection"`
	Simulation SimulationConfig `yaml:"simulation"`
	Sliders    SliderConfig     `yaml:"sliders"`
	Render     RenderConfig     `yaml:"render"`
}

type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type CameraConfig struct {
	Position Vec3    `yaml:"position"`
	Target   Vec3    `yaml:"target"`
	PPR      float64 `yaml:"ppr"`
	ZoomRate float64 `yaml:"zoom_rate"`
}

type ProjectionConfig struct {
	FOV   float64 `yaml:"fov"`
	SizeK float64 `yaml:"size_k"`
}

type SimulationConfig struct {
	Grid            int            `yaml:"grid"`
	Spacing         float64        `yaml:"spacing"`
	Offset          float64        `yaml:"offset"`
	InitialDelta    float64        `yaml:"initial_delta"`
	Params          physics.Params `yaml:"params"`
	Speed           float64        `yaml:"speed"`
	Integrator      string         `yaml:"integrator"`
	MaxDisplacement float64        `yaml:"max_displacement"`
	Parallel        bool           `yaml:"parallel"`
}

type SliderConfig struct {
	Bounds      physics.Bounds `yaml:"bounds"`
	Speed       physics.Range  `yaml:"speed"`
	Alpha       physics.Range  `yaml:"alpha"`
	TrackRadius float64        `yaml:"track_radius"`
	ThumbRadius float64        `yaml:"thumb_radius"`
	// Scale shrinks the layout for small surfaces; 0 picks it from the
	// viewport height.
	Scale float64 `yaml:"scale"`
}

type RenderConfig struct {
	Alpha float64 `yaml:"alpha"`
	Theme string  `yaml:"theme"`
	FPS   int     `yaml:"fps"`
}

// Vec3 is a yaml-friendly [x, y, z] triple.
type Vec3 [3]float64

func (v Vec3) Point() dynamo.Point3 { return dynamo.P3(v[0], v[1], v[2]) }

func DefaultConfig() *Config {
	return &Config{
		Viewport: ViewportConfig{Width: DefaultWidth, Height: DefaultHeight},
		Camera: CameraConfig{
			Position: Vec3{-1, -70, 25},
			Target:   Vec3{-1, 0, 25},
			PPR:      DefaultPPR,
			ZoomRate: DefaultZoomRate,
		},
		Projection: ProjectionConfig{FOV: DefaultFOV, SizeK: DefaultSizeK},
		Simulation: SimulationConfig{
			Grid:            DefaultGrid,
			Spacing:         DefaultSpacing,
			Offset:          DefaultOffset,
			InitialDelta:    DefaultInitialDelta,
			Params:          physics.DefaultParams(),
			Speed:           DefaultSpeed,
			Integrator:      "adaptive",
			MaxDisplacement: 0.5,
		},
		Sliders: SliderConfig{
			Bounds:      physics.DefaultBounds(),
			Speed:       physics.Range{Min: 0, Max: 3},
			Alpha:       physics.Range{Min: 0, Max: 100},
			TrackRadius: DefaultTrackRadius,
			ThumbRadius: DefaultThumbRadius,
		},
		Render: RenderConfig{Alpha: DefaultAlpha, Theme: "minimal", FPS: DefaultFPS},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations the core would refuse later on.
func (c *Config) Validate() error {
	switch {
	case c.Viewport.Width <= 0 || c.Viewport.Height <= 0:
		return fmt.Errorf("viewport %dx%d must be positive", c.Viewport.Width, c.Viewport.Height)
	case c.Camera.PPR <= 0:
		return fmt.Errorf("camera.ppr=%g must be positive: %w", c.Camera.PPR, dynamo.ErrParameterBounds)
	case c.Camera.Position.Point().Distance(c.Camera.Target.Point()) == 0:
		return fmt.Errorf("camera sits on its target: %w", dynamo.ErrDegenerateVector)
	case c.Projection.FOV <= 0 || c.Projection.FOV >= 180:
		return fmt.Errorf("projection.fov=%g outside (0, 180): %w", c.Projection.FOV, dynamo.ErrParameterBounds)
	case c.Simulation.Grid <= 0:
		return fmt.Errorf("simulation.grid=%d must be positive", c.Simulation.Grid)
	case c.Simulation.MaxDisplacement <= 0:
		return fmt.Errorf("simulation.max_displacement must be positive: %w", dynamo.ErrParameterBounds)
	case !c.Sliders.Speed.Contains(c.Simulation.Speed):
		return fmt.Errorf("simulation.speed=%g outside slider range: %w", c.Simulation.Speed, dynamo.ErrParameterBounds)
	case !c.Sliders.Alpha.Contains(c.Render.Alpha):
		return fmt.Errorf("render.alpha=%g outside slider range: %w", c.Render.Alpha, dynamo.ErrParameterBounds)
	}
	return c.Simulation.Params.Validate(c.Sliders.Bounds)
}

// PointCount is the number of particles in the initial grid.
func (c *Config) PointCount() int {
	g := c.Simulation.Grid
	return g * g * g
}
