package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/physics"
	"github.com/san-kum/lorenzcloud/internal/sim"
)

func sampleRecording() *Recording {
	return &Recording{
		Times:   []float64{0, 0.01},
		Tracked: []dynamo.Point3{{X: 1, Y: 2, Z: 3}, {X: 1.5, Y: 2.5, Z: 3.5}},
		Cloud:   []dynamo.Point3{{X: 4, Y: 5, Z: 6}},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{
		Params:     physics.DefaultParams(),
		Speed:      1,
		Delta:      0.01,
		Frames:     1,
		Points:     1,
		Integrator: "adaptive",
		Metrics:    map[string]float64{"max_radius": 42},
	}
	runID, err := st.Save(meta, sampleRecording())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := uuid.Parse(runID); err != nil {
		t.Errorf("run id %q is not a uuid: %v", runID, err)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Params != meta.Params || loaded.Integrator != "adaptive" {
		t.Errorf("metadata mismatch: %+v", loaded)
	}
	if loaded.Metrics["max_radius"] != 42 {
		t.Errorf("expected metric 42, got %v", loaded.Metrics["max_radius"])
	}
	if loaded.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 2 || len(times) != 2 {
		t.Fatalf("expected 2 samples, got %d/%d", len(states), len(times))
	}
	if states[1] != (dynamo.Point3{X: 1.5, Y: 2.5, Z: 3.5}) || times[1] != 0.01 {
		t.Errorf("unexpected sample %v at %v", states[1], times[1])
	}

	cloud, err := st.LoadCloud(runID)
	if err != nil {
		t.Fatalf("load cloud failed: %v", err)
	}
	if len(cloud) != 1 || cloud[0] != (dynamo.Point3{X: 4, Y: 5, Z: 6}) {
		t.Errorf("unexpected cloud %v", cloud)
	}

	size, err := st.Size(runID)
	if err != nil || size == 0 {
		t.Errorf("expected non-zero size, got %d (%v)", size, err)
	}
}

func TestStoreListAndResolve(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v (%v)", runs, err)
	}

	now := time.Now()
	_, err = st.Save(RunMetadata{ID: "aaa111", Timestamp: now.Add(-time.Hour)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = st.Save(RunMetadata{ID: "aab222", Timestamp: now}, nil)
	if err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "aab222" {
		t.Errorf("expected newest first, got %+v", runs)
	}

	if id, err := st.Resolve("aaa"); err != nil || id != "aaa111" {
		t.Errorf("resolve aaa: %q %v", id, err)
	}
	if _, err := st.Resolve("aa"); err == nil {
		t.Error("expected ambiguous prefix error")
	}
	if _, err := st.Resolve("zzz"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.Load("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestExport(t *testing.T) {
	rec := sampleRecording()
	meta := &RunMetadata{ID: "run", Params: physics.DefaultParams(), Integrator: "adaptive"}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, meta, rec.Tracked, rec.Times); err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.Steps != 2 || data.States[0] != [3]float64{1, 2, 3} {
		t.Errorf("unexpected export %+v", data)
	}

	buf.Reset()
	if err := ExportCSV(&buf, rec.Tracked, rec.Times); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "time,x,y,z" || lines[1] != "0.000000,1.000000,2.000000,3.000000" {
		t.Errorf("unexpected csv:\n%s", buf.String())
	}
}

func TestRecorder(t *testing.T) {
	s, err := sim.NewSimulation(sim.DefaultGrid(), physics.DefaultParams(), 1, 0.001)
	if err != nil {
		t.Fatal(err)
	}

	r := NewRecorder(0, 5)
	r.Start(s)
	if err := s.Run(context.Background(), 20, 0.01, r); err != nil {
		t.Fatal(err)
	}
	rec := r.Finish(s)

	if len(rec.Tracked) != 5 {
		t.Errorf("expected 5 samples, got %d", len(rec.Tracked))
	}
	if rec.Times[0] != 0 || rec.Tracked[0] != (dynamo.Point3{X: 0.001, Y: 0.001, Z: 0.001}) {
		t.Errorf("first sample should be the initial point, got %v at %v", rec.Tracked[0], rec.Times[0])
	}
	if len(rec.Cloud) != 1000 || rec.Cloud[0] != s.Points[0] {
		t.Error("cloud snapshot mismatch")
	}
}
