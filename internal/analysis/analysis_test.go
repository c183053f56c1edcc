package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/ccmd/internal/sim"
)

func TestPowerSpectrumPeaks(t *testing.T) {
	const (
		n  = 1024
		dt = 0.05
	)
	// Frequencies chosen on exact bins: ω = 2π·k/(n·dt).
	w1 := 2 * math.Pi * 40 / (n * dt)
	w2 := 2 * math.Pi * 100 / (n * dt)
	samples := make([]float64, n)
	for i := range samples {
		tt := float64(i) * dt
		samples[i] = 5 + 2*math.Sin(w1*tt) + 0.5*math.Cos(w2*tt)
	}

	omega, power := PowerSpectrum(samples, dt)
	if len(omega) != n/2+1 || len(power) != n/2+1 {
		t.Fatalf("expected %d bins, got %d and %d", n/2+1, len(omega), len(power))
	}
	if power[0] > 1e-20 {
		t.Errorf("expected mean removed, got dc power %g", power[0])
	}

	peaks := Peaks(omega, power, 2)
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d", len(peaks))
	}
	if math.Abs(peaks[0].Omega-w1) > 1e-9 {
		t.Errorf("expected strongest peak at %g, got %g", w1, peaks[0].Omega)
	}
	if math.Abs(peaks[1].Omega-w2) > 1e-9 {
		t.Errorf("expected second peak at %g, got %g", w2, peaks[1].Omega)
	}
	if peaks[0].Power <= peaks[1].Power {
		t.Error("expected peaks ordered by power")
	}
}

func TestPowerSpectrumShortInput(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		dt      float64
	}{
		{"empty", nil, 0.1},
		{"single", []float64{1}, 0.1},
		{"zero dt", []float64{1, 2, 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			omega, power := PowerSpectrum(tt.samples, tt.dt)
			if omega != nil || power != nil {
				t.Error("expected no spectrum")
			}
		})
	}
}

func TestKineticTrace(t *testing.T) {
	tr := NewKineticTrace(sim.PhaseHist, 3)
	tr.OnStep(sim.Progress{Phase: sim.PhaseCool, Kinetic: 9})
	for i := 0; i < 5; i++ {
		tr.OnStep(sim.Progress{Phase: sim.PhaseHist, Kinetic: float64(i)})
	}
	got := tr.Samples()
	if len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Errorf("unexpected samples %v", got)
	}
}
