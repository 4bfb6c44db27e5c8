package physics

import (
	"errors"
	"testing"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
)

func TestDeriveOriginIsEquilibrium(t *testing.T) {
	for _, p := range []Params{DefaultParams(), {1, 1, 0}, {25, 100, 5}, {-3, 0.5, 7}} {
		if d := p.Derive(dynamo.P3(0, 0, 0)); d != (dynamo.Point3{}) {
			t.Errorf("params %+v: derivative at origin = %v, want zero", p, d)
		}
	}
}

func TestDerive(t *testing.T) {
	d := DefaultParams().Derive(dynamo.P3(1, 1, 1))
	if d.X != 0 || d.Y != 26 {
		t.Errorf("unexpected derivative %v", d)
	}
	b := DefaultParams().B
	if want := 1 - b; d.Z != want {
		t.Errorf("dz = %v, want %v", d.Z, want)
	}
}

func TestSetParam(t *testing.T) {
	p := DefaultParams()
	if err := p.SetParam("rho", 99); err != nil {
		t.Fatal(err)
	}
	if err := p.SetParam("sigma", 3); err != nil {
		t.Fatal(err)
	}
	if p.R != 99 || p.Sigma != 3 {
		t.Errorf("SetParam did not apply: %+v", p)
	}
	if err := p.SetParam("gamma", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if got := p.GetParams()["r"]; got != 99 {
		t.Errorf("GetParams r = %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		p     Params
		valid bool
	}{
		{"defaults", DefaultParams(), true},
		{"lower edge", Params{1, 1, 0}, true},
		{"upper edge", Params{25, 100, 5}, true},
		{"sigma low", Params{0.5, 28, 1}, false},
		{"r high", Params{10, 101, 1}, false},
		{"b negative", Params{10, 28, -0.1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate(DefaultBounds())
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}
