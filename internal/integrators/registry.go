package integrators

import (
	"fmt"
	"sort"
)

var registry = map[string]func() Stepper{
	"euler":    func() Stepper { return NewEuler() },
	"adaptive": func() Stepper { return NewAdaptive() },
	"rk4":      func() Stepper { return NewRK4() },
}

// Get returns a fresh stepper by name.
func Get(name string) (Stepper, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
