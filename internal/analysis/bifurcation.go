package analysis

import (
	"math"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/integrators"
	"github.com/san-kum/lorenzcloud/internal/physics"
	"github.com/san-kum/lorenzcloud/internal/viz"
)

// BifurcationPoint holds the distinct z maxima seen for one parameter value
type BifurcationPoint struct {
	Param  float64
	Values []float64
}

// BifurcationDiagram sweeps one coefficient and records the local maxima of
// z along the trajectory (the Lorenz map). A single value means a periodic
// orbit, none means the flow settled on a fixed point, a smear means chaos.
//
// Parameters:
// - st: stepper to integrate with
// - base: coefficients the sweep starts from
// - paramName: sigma, r or b
// - paramMin, paramMax, paramSteps: the sweep
// - x0: initial point for every run
// - dt, transient, record: timing in seconds
func BifurcationDiagram(
	st integrators.Stepper,
	base physics.Params,
	paramName string,
	paramMin, paramMax float64,
	paramSteps int,
	x0 dynamo.Point3,
	dt, transient, record float64,
) ([]BifurcationPoint, error) {
	if paramSteps <= 1 {
		paramSteps = 2 // Prevent division by zero
	}
	paramStep := (paramMax - paramMin) / float64(paramSteps-1)
	results := make([]BifurcationPoint, 0, paramSteps)

	for i := 0; i < paramSteps; i++ {
		prm := base
		param := paramMin + float64(i)*paramStep
		if err := prm.SetParam(paramName, param); err != nil {
			return nil, err
		}

		x := x0
		for j := 0; j < stepsFor(transient, dt); j++ {
			x = st.Step(x, dt, prm)
		}

		values := make([]float64, 0, 16)
		seen := make(map[int]bool)
		prev2, prev := x, x
		for j := 0; j < stepsFor(record, dt); j++ {
			x = st.Step(x, dt, prm)
			if j >= 2 && prev.Z > prev2.Z && prev.Z >= x.Z {
				// Quantize to find distinct values
				key := int(math.Round(prev.Z * 1000))
				if !seen[key] {
					seen[key] = true
					values = append(values, prev.Z)
				}
			}
			prev2, prev = prev, x
		}

		results = append(results, BifurcationPoint{Param: param, Values: values})
	}

	return results, nil
}

// BifurcationToASCII plots the diagram on a Braille canvas of width x height
// cells, parameter across and z up.
func BifurcationToASCII(data []BifurcationPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, p := range data {
		for _, v := range p.Values {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if math.IsInf(minVal, 1) {
		return "" // No values to plot
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := viz.NewCanvas(width, height)
	w, h := canvas.Dots()
	for i, p := range data {
		col := i * w / len(data)
		for _, v := range p.Values {
			row := h - 1 - int((v-minVal)/(maxVal-minVal)*float64(h-1))
			canvas.Set(col, row)
		}
	}
	return canvas.String()
}
