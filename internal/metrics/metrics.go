package metrics

import (
	"math"

	"github.com/san-kum/lorenzcloud/internal/sim"
)

// Metric accumulates one number over the frames of a run.
type Metric interface {
	Name() string
	Observe(s *sim.Simulation)
	Value() float64
	Reset()
}

// Collector feeds every frame to its metrics. It satisfies sim.Observer.
type Collector struct {
	metrics []Metric
}

func NewCollector(ms ...Metric) *Collector {
	return &Collector{metrics: ms}
}

// Default is the set recorded for headless runs.
func Default() *Collector {
	return NewCollector(NewMaxRadius(), NewMeanRadius(), NewMeanZ(), NewContainment(100))
}

func (c *Collector) OnFrame(s *sim.Simulation) error {
	for _, m := range c.metrics {
		m.Observe(s)
	}
	return nil
}

func (c *Collector) Values() map[string]float64 {
	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (c *Collector) Reset() {
	for _, m := range c.metrics {
		m.Reset()
	}
}

// MaxRadius is the largest distance from the origin any point reached.
type MaxRadius struct {
	max float64
}

func NewMaxRadius() *MaxRadius { return &MaxRadius{} }

func (m *MaxRadius) Name() string { return "max_radius" }

func (m *MaxRadius) Observe(s *sim.Simulation) {
	for _, p := range s.Points {
		m.max = math.Max(m.max, p.Magnitude())
	}
}

func (m *MaxRadius) Value() float64 { return m.max }
func (m *MaxRadius) Reset()         { m.max = 0 }

// MeanRadius is the mean distance from the origin in the latest frame.
type MeanRadius struct {
	mean float64
}

func NewMeanRadius() *MeanRadius { return &MeanRadius{} }

func (m *MeanRadius) Name() string { return "mean_radius" }

func (m *MeanRadius) Observe(s *sim.Simulation) {
	if len(s.Points) == 0 {
		return
	}
	var sum float64
	for _, p := range s.Points {
		sum += p.Magnitude()
	}
	m.mean = sum / float64(len(s.Points))
}

func (m *MeanRadius) Value() float64 { return m.mean }
func (m *MeanRadius) Reset()         { m.mean = 0 }

// MeanZ is the mean height of the cloud in the latest frame. On the
// classic attractor it settles near r-1.
type MeanZ struct {
	mean float64
}

func NewMeanZ() *MeanZ { return &MeanZ{} }

func (m *MeanZ) Name() string { return "mean_z" }

func (m *MeanZ) Observe(s *sim.Simulation) {
	if len(s.Points) == 0 {
		return
	}
	var sum float64
	for _, p := range s.Points {
		sum += p.Z
	}
	m.mean = sum / float64(len(s.Points))
}

func (m *MeanZ) Value() float64 { return m.mean }
func (m *MeanZ) Reset()         { m.mean = 0 }

// Containment is the fraction of frames in which every point stayed within
// radius of the origin.
type Containment struct {
	radius     float64
	violations int
	samples    int
}

func NewContainment(radius float64) *Containment {
	return &Containment{radius: radius}
}

func (c *Containment) Name() string { return "containment" }

func (c *Containment) Observe(s *sim.Simulation) {
	c.samples++
	for _, p := range s.Points {
		if p.Magnitude() > c.radius {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}
