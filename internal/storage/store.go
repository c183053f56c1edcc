package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/ccmd/internal/export"
	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/sim"
	"github.com/san-kum/ccmd/internal/stats"
)

const metadataFile = "metadata.json"

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir returns the directory of a run.
func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// Create allocates a new run directory named by a random UUID.
func (s *Store) Create() (string, error) {
	runID := uuid.NewString()
	if err := os.MkdirAll(s.Dir(runID), 0755); err != nil {
		return "", err
	}
	return runID, nil
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Label       string             `json:"label,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        uint64             `json:"seed"`
	Dt          float64            `json:"dt"`
	RespaSteps  int                `json:"respa_steps"`
	CoolSteps   int                `json:"cool_steps"`
	HistSteps   int                `json:"hist_steps"`
	Integrator  string             `json:"integrator"`
	Trap        string             `json:"trap"`
	LengthScale float64            `json:"length_scale"`
	TimeScale   float64            `json:"time_scale"`
	Species     map[string]int     `json:"species"`
	Steps       int                `json:"steps"`
	MeanKinetic float64            `json:"mean_kinetic"`
	MeanTotal   float64            `json:"mean_total"`
	EnergyDrift float64            `json:"energy_drift"`
	AspectRatio float64            `json:"aspect_ratio"`
	Swaps       int                `json:"swaps"`
	Elapsed     float64            `json:"elapsed_seconds"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// Record is everything written for a finished run. Cloud, Histogram and
// Positions are optional. Optics is only read when Positions is set.
type Record struct {
	Meta      RunMetadata
	Result    *sim.Result
	Cloud     *ions.Cloud
	Histogram *stats.EnergyHistogram
	Positions *stats.PositionHistogram
	Optics    export.Microscope
}

// Save writes the metadata, the energy windows, the per-species statistics
// the energy histograms and the microscope images of a run created with
// Create.
func (s *Store) Save(runID string, rec Record) error {
	dir := s.Dir(runID)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	meta := rec.Meta
	meta.ID = runID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if r := rec.Result; r != nil {
		meta.Steps = r.Steps
		meta.MeanKinetic = r.MeanKinetic
		meta.MeanTotal = r.MeanTotal
		meta.EnergyDrift = r.EnergyDrift
		meta.AspectRatio = r.AspectRatio
		meta.Swaps = r.Swaps
		meta.Elapsed = r.Elapsed.Seconds()
		meta.Metrics = r.Metrics
	}
	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return err
	}

	if rec.Result != nil {
		if err := writeEnergy(filepath.Join(dir, energyFile), rec.Result); err != nil {
			return err
		}
	}
	if rec.Cloud != nil {
		if err := writeStats(dir, rec.Cloud); err != nil {
			return err
		}
	}
	if rec.Histogram != nil {
		if err := writeHistograms(dir, rec.Histogram); err != nil {
			return err
		}
	}
	if rec.Positions != nil {
		if err := writeImages(dir, rec.Positions, rec.Optics); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns the metadata of every stored run, newest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}
