package storage

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/ccmd/internal/export"
	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/metrics"
	"github.com/san-kum/ccmd/internal/sim"
	"github.com/san-kum/ccmd/internal/stats"
)

const (
	energyFile      = "energy.csv"
	statsSuffix     = "_stats.dat"
	histogramPrefix = "ionEnergy_"
	imagePrefix     = "image_"
)

const statsHeader = "#<KE_x>\tvar(KE_x)\t<KE_y>\tvar(KE_y)\t<KE_z>\tvar(KE_z)\t" +
	"<pos_x>\tvar(pos_x)\t<pos_y>\tvar(pos_y)\t<pos_z>\tvar(pos_z)\n"

// EnergyRow is one window of the kinetic energy series.
type EnergyRow struct {
	Phase    string  `json:"phase"`
	Window   int     `json:"window"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
}

func newTabWriter(f *os.File) *csv.Writer {
	w := csv.NewWriter(f)
	w.Comma = '\t'
	return w
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func writeEnergy(path string, r *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := newTabWriter(f)
	if err := w.Write([]string{"phase", "window", "mean", "variance"}); err != nil {
		return err
	}
	write := func(phase string, windows []metrics.Window) error {
		for i, win := range windows {
			row := []string{phase, strconv.Itoa(i), formatFloat(win.Mean), formatFloat(win.Variance)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write(sim.PhaseCool, r.Cooling); err != nil {
		return err
	}
	if err := write(sim.PhaseHist, r.Windows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// LoadEnergy reads the energy windows of a run.
func (s *Store) LoadEnergy(runID string) ([]EnergyRow, error) {
	f, err := os.Open(filepath.Join(s.Dir(runID), energyFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = 4

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []EnergyRow{}, nil
	}

	rows := make([]EnergyRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		window, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("run %s: window index %q: %w", runID, rec[1], err)
		}
		mean, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s: mean %q: %w", runID, rec[2], err)
		}
		variance, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s: variance %q: %w", runID, rec[3], err)
		}
		rows = append(rows, EnergyRow{Phase: rec[0], Window: window, Mean: mean, Variance: variance})
	}
	return rows, nil
}

// writeStats writes one <species>_stats.dat file per species with a row per
// ion: kinetic energy per axis and position per axis, each as mean and
// variance.
func writeStats(dir string, c *ions.Cloud) error {
	rows := make(map[string][]string)
	var order []string
	for _, ion := range c.Ions() {
		name := ion.Name()
		if _, ok := rows[name]; !ok {
			order = append(order, name)
		}
		half := ion.Mass() / 2
		pos, vel := ion.PositionStats(), ion.VelocityStats()
		vm, vv := vel.Mean(), vel.Variance()
		pm, pv := pos.Mean(), pos.Variance()
		fields := []float64{
			half * (vv.X + vm.X*vm.X), half * vv.X,
			half * (vv.Y + vm.Y*vm.Y), half * vv.Y,
			half * (vv.Z + vm.Z*vm.Z), half * vv.Z,
			pm.X, pv.X, pm.Y, pv.Y, pm.Z, pv.Z,
		}
		line := ""
		for i, v := range fields {
			if i > 0 {
				line += "\t"
			}
			line += formatFloat(v)
		}
		rows[name] = append(rows[name], line)
	}

	for _, name := range order {
		if err := writeLines(filepath.Join(dir, name+statsSuffix), statsHeader, rows[name]); err != nil {
			return err
		}
	}
	return nil
}

func writeLines(path, header string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(header); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := w.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeHistograms(dir string, h *stats.EnergyHistogram) error {
	for _, name := range h.Species() {
		f, err := os.Create(filepath.Join(dir, histogramPrefix+name+".csv"))
		if err != nil {
			return err
		}
		w := newTabWriter(f)
		err = w.Write([]string{"energy", "count"})
		for _, b := range h.Bins(name) {
			if err != nil {
				break
			}
			err = w.Write([]string{formatFloat(b.Lower), strconv.Itoa(b.Count)})
		}
		w.Flush()
		if err == nil {
			err = w.Error()
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// writeImages renders one microscope image per recorded species.
func writeImages(dir string, h *stats.PositionHistogram, optics export.Microscope) error {
	for _, name := range h.Species() {
		f, err := os.Create(filepath.Join(dir, imagePrefix+name+".png"))
		if err != nil {
			return err
		}
		err = export.MicroscopePNG(f, h, name, optics)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
