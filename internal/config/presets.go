package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/lorenzcloud/internal/physics"
)

type Preset struct {
	Description string
	Params      physics.Params
	Speed       float64
}

var Presets = map[string]Preset{
	"classic": {
		Description: "butterfly attractor",
		Params:      physics.Params{Sigma: 10, R: 28, B: 8.0 / 3.0},
		Speed:       1,
	},
	"transient": {
		Description: "transient chaos settling onto a fixed point",
		Params:      physics.Params{Sigma: 10, R: 22, B: 8.0 / 3.0},
		Speed:       1,
	},
	"stable": {
		Description: "two stable fixed points",
		Params:      physics.Params{Sigma: 10, R: 10, B: 8.0 / 3.0},
		Speed:       1,
	},
	"high-r": {
		Description: "large r, fast wide orbits",
		Params:      physics.Params{Sigma: 10, R: 99.96, B: 8.0 / 3.0},
		Speed:       0.5,
	},
	"slow": {
		Description: "classic coefficients in slow motion",
		Params:      physics.Params{Sigma: 10, R: 28, B: 8.0 / 3.0},
		Speed:       0.25,
	},
}

func GetPreset(name string) (Preset, bool) {
	p, ok := Presets[name]
	return p, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset overwrites the simulation parameters and speed.
func (c *Config) ApplyPreset(name string) error {
	p, ok := GetPreset(name)
	if !ok {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, ListPresets())
	}
	c.Simulation.Params = p.Params
	c.Simulation.Speed = p.Speed
	return nil
}
