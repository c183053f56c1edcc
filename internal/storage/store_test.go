package storage

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/ccmd/internal/export"
	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/metrics"
	"github.com/san-kum/ccmd/internal/sim"
	"github.com/san-kum/ccmd/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Steps:       30,
		MeanKinetic: 1.25,
		MeanTotal:   4.5,
		EnergyDrift: 1e-5,
		AspectRatio: 2.5,
		Swaps:       2,
		Elapsed:     1500 * time.Millisecond,
		Cooling:     []metrics.Window{{Mean: 3, Variance: 0.5, Samples: 10}, {Mean: 2, Variance: 0.25, Samples: 10}},
		Windows:     []metrics.Window{{Mean: 1.25, Variance: 0.125, Samples: 10}},
		Metrics:     map[string]float64{"mean_kinetic": 1.25},
	}
}

func sampleCloud(t *testing.T) *ions.Cloud {
	t.Helper()
	ca := &ions.IonType{Name: "Ca", Mass: 40, Charge: 1, Direction: 1}
	xe := &ions.IonType{Name: "Xe", Mass: 131, Charge: 1, Direction: 1}
	c, err := ions.NewCloud([]ions.Population{{Type: ca, Count: 2}, {Type: xe, Count: 1}})
	require.NoError(t, err)
	for i := 0; i < c.Len(); i++ {
		require.NoError(t, c.SetVelocity(i, r3.Vec{X: 1}))
	}
	c.UpdateStats()
	c.UpdateStats()
	return c
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.Create()
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	hist := stats.NewEnergyHistogram(0.5)
	hist.RecordEnergy("Ca", 0.2)
	hist.RecordEnergy("Ca", 1.1)

	err = st.Save(runID, Record{
		Meta:      RunMetadata{Label: "test", Seed: 42, Dt: 0.01, Integrator: "respa", Species: map[string]int{"Ca": 2, "Xe": 1}},
		Result:    sampleResult(),
		Cloud:     sampleCloud(t),
		Histogram: hist,
	})
	require.NoError(t, err)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, "test", meta.Label)
	assert.Equal(t, uint64(42), meta.Seed)
	assert.Equal(t, 30, meta.Steps)
	assert.Equal(t, 2, meta.Swaps)
	assert.Equal(t, 2.5, meta.AspectRatio)
	assert.InDelta(t, 1.5, meta.Elapsed, 1e-9)
	assert.Equal(t, 1.25, meta.Metrics["mean_kinetic"])
	assert.False(t, meta.Timestamp.IsZero())

	energy, err := st.LoadEnergy(runID)
	require.NoError(t, err)
	assert.Equal(t, []EnergyRow{
		{Phase: sim.PhaseCool, Window: 0, Mean: 3, Variance: 0.5},
		{Phase: sim.PhaseCool, Window: 1, Mean: 2, Variance: 0.25},
		{Phase: sim.PhaseHist, Window: 0, Mean: 1.25, Variance: 0.125},
	}, energy)

	data, err := os.ReadFile(filepath.Join(st.Dir(runID), "Ca_stats.dat"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "#<KE_x>"))
	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 12)
	assert.Equal(t, "20", fields[0])
	assert.Equal(t, "0", fields[1])

	_, err = os.Stat(filepath.Join(st.Dir(runID), "Xe_stats.dat"))
	assert.NoError(t, err)

	data, err = os.ReadFile(filepath.Join(st.Dir(runID), "ionEnergy_Ca.csv"))
	require.NoError(t, err)
	assert.Equal(t, "energy\tcount\n0\t1\n1\t1\n", string(data))
}

func TestStoreSaveImages(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	runID, err := st.Create()
	require.NoError(t, err)

	positions := stats.NewPositionHistogram(0.5)
	positions.Record("Ca", r3.Vec{Z: 1})
	positions.Record("Xe", r3.Vec{Z: -1})
	optics := export.Microscope{Rows: 16, Cols: 32, W0: 1, Z0: 10}

	require.NoError(t, st.Save(runID, Record{Result: sampleResult(), Positions: positions, Optics: optics}))

	for _, name := range []string{"Ca", "Xe"} {
		f, err := os.Open(filepath.Join(st.Dir(runID), "image_"+name+".png"))
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, 32, img.Bounds().Dx())
		assert.Equal(t, 16, img.Bounds().Dy())
	}
}

func TestStoreSaveUnknownRun(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	assert.Error(t, st.Save("missing", Record{}))
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, st.Init())
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	for _, ts := range []time.Time{older, newer} {
		id, err := st.Create()
		require.NoError(t, err)
		require.NoError(t, st.Save(id, Record{Meta: RunMetadata{Timestamp: ts}}))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "junk"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].Timestamp.Equal(newer))
	assert.True(t, runs[1].Timestamp.Equal(older))
}

func TestStoreExport(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	id, err := st.Create()
	require.NoError(t, err)
	require.NoError(t, st.Save(id, Record{Meta: RunMetadata{Label: "export"}, Result: sampleResult()}))

	var buf bytes.Buffer
	require.NoError(t, st.Export(&buf, id))

	var got ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "export", got.Label)
	assert.Len(t, got.Energy, 3)
}

func TestLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Load("nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = st.LoadEnergy("nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
