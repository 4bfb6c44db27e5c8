package storage

import (
	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/sim"
)

// Recorder samples one point of a running simulation. It satisfies
// sim.Observer.
type Recorder struct {
	Tracked int
	// Every keeps one sample per Every frames; 0 or 1 keeps all.
	Every int

	rec Recording
}

func NewRecorder(tracked, every int) *Recorder {
	return &Recorder{Tracked: tracked, Every: every}
}

// Start records the initial position at t=0.
func (r *Recorder) Start(s *sim.Simulation) {
	r.rec = Recording{}
	r.sample(s)
}

func (r *Recorder) OnFrame(s *sim.Simulation) error {
	if r.Every <= 1 || s.Frame%r.Every == 0 {
		r.sample(s)
	}
	return nil
}

func (r *Recorder) sample(s *sim.Simulation) {
	if r.Tracked < 0 || r.Tracked >= len(s.Points) {
		return
	}
	r.rec.Times = append(r.rec.Times, s.Time)
	r.rec.Tracked = append(r.rec.Tracked, s.Points[r.Tracked])
}

// Finish snapshots the cloud and returns the recording.
func (r *Recorder) Finish(s *sim.Simulation) *Recording {
	r.rec.Cloud = append([]dynamo.Point3(nil), s.Points...)
	return &r.rec
}
