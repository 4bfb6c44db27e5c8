package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/physics"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	cloudFile    = "cloud.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Params     physics.Params     `json:"params"`
	Speed      float64            `json:"speed"`
	Delta      float64            `json:"delta"`
	Frames     int                `json:"frames"`
	Points     int                `json:"points"`
	Tracked    int                `json:"tracked"`
	Integrator string             `json:"integrator"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Recording is what a headless run leaves behind: the path of the tracked
// point and the final cloud.
type Recording struct {
	Times   []float64
	Tracked []dynamo.Point3
	Cloud   []dynamo.Point3
}

// Save writes a run under a fresh uuid unless meta already carries an ID.
func (s *Store) Save(meta RunMetadata, rec *Recording) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if rec == nil {
		return meta.ID, nil
	}
	if err := writeCSV(filepath.Join(runDir, statesFile), []string{"time", "x", "y", "z"}, len(rec.Tracked), func(i int) []string {
		return append([]string{formatFloat(rec.Times[i])}, pointRow(rec.Tracked[i])...)
	}); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, cloudFile), []string{"index", "x", "y", "z"}, len(rec.Cloud), func(i int) []string {
		return append([]string{strconv.Itoa(i)}, pointRow(rec.Cloud[i])...)
	}); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func pointRow(p dynamo.Point3) []string {
	return []string{formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z)}
}

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

// Resolve expands a unique prefix of a run ID.
func (s *Store) Resolve(prefix string) (string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			if entry.Name() == prefix {
				return prefix, nil
			}
			matches = append(matches, entry.Name())
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s: %w", prefix, ErrRunNotFound)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("prefix %s is ambiguous (%d runs)", prefix, len(matches))
}

// Size is the total size of a run's files in bytes.
func (s *Store) Size(runID string) (int64, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, runID))
	if err != nil {
		return 0, err
	}
	var total int64
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// LoadStates reads the tracked point's path.
func (s *Store) LoadStates(runID string) ([]dynamo.Point3, []float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, nil, err
	}

	times := make([]float64, 0, len(records))
	states := make([]dynamo.Point3, 0, len(records))
	for _, record := range records {
		vals, err := parseRow(record)
		if err != nil {
			return nil, nil, err
		}
		times = append(times, vals[0])
		states = append(states, dynamo.P3(vals[1], vals[2], vals[3]))
	}
	return states, times, nil
}

// LoadCloud reads the final positions of every point.
func (s *Store) LoadCloud(runID string) ([]dynamo.Point3, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, cloudFile))
	if err != nil {
		return nil, err
	}
	cloud := make([]dynamo.Point3, 0, len(records))
	for _, record := range records {
		vals, err := parseRow(record)
		if err != nil {
			return nil, err
		}
		cloud = append(cloud, dynamo.P3(vals[1], vals[2], vals[3]))
	}
	return cloud, nil
}

// readCSV returns the data rows, header excluded.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 4

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func parseRow(record []string) ([4]float64, error) {
	var vals [4]float64
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return vals, err
		}
		vals[i] = v
	}
	return vals, nil
}
