package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/physics"
)

type ExportData struct {
	ID         string             `json:"id"`
	Params     physics.Params     `json:"params"`
	Speed      float64            `json:"speed"`
	Delta      float64            `json:"delta"`
	Integrator string             `json:"integrator"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	States     [][3]float64       `json:"states"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// ExportJSON writes a run's metadata and tracked path as indented JSON.
func ExportJSON(w io.Writer, meta *RunMetadata, states []dynamo.Point3, times []float64) error {
	data := ExportData{
		ID:         meta.ID,
		Params:     meta.Params,
		Speed:      meta.Speed,
		Delta:      meta.Delta,
		Integrator: meta.Integrator,
		Steps:      len(times),
		Times:      times,
		States:     make([][3]float64, len(states)),
		Metrics:    meta.Metrics,
	}
	for i, p := range states {
		data.States[i] = [3]float64{p.X, p.Y, p.Z}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes the tracked path as time,x,y,z rows.
func ExportCSV(w io.Writer, states []dynamo.Point3, times []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "x", "y", "z"}); err != nil {
		return err
	}
	for i, p := range states {
		if err := cw.Write(append([]string{formatFloat(times[i])}, pointRow(p)...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
