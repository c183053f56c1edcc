package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/ccmd/internal/analysis"
	"github.com/san-kum/ccmd/internal/export"
	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/tui"
)

const (
	svgWidth  = 800
	svgHeight = 400
)

// writeArtifacts stores the crystal image and the kinetic energy spectrum
// next to the run data.
func writeArtifacts(runDir string, cloud *ions.Cloud, samples []float64, dt float64) error {
	f, err := os.Create(filepath.Join(runDir, "crystal.svg"))
	if err != nil {
		return err
	}
	if err := export.CrystalSVG(f, cloud, svgWidth, svgHeight, 0); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	omega, power := analysis.PowerSpectrum(samples, dt)
	if omega == nil {
		return nil
	}
	f, err = os.Create(filepath.Join(runDir, "spectrum.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	w.Write([]string{"omega", "power"})
	for i := range omega {
		w.Write([]string{
			strconv.FormatFloat(omega[i], 'g', 8, 64),
			strconv.FormatFloat(power[i], 'g', 8, 64),
		})
	}
	w.Flush()
	return w.Error()
}

func printSpectrum(samples []float64, dt float64) {
	omega, power := analysis.PowerSpectrum(samples, dt)
	peaks := analysis.Peaks(omega, power, 5)
	if len(peaks) == 0 {
		fmt.Println("not enough samples for a spectrum")
		return
	}
	fmt.Println()
	fmt.Println(tui.Title("kinetic energy spectrum"))
	for _, p := range peaks {
		fmt.Println(tui.Label(fmt.Sprintf("ω=%-9.4g", p.Omega), fmt.Sprintf("%.4g", p.Power)))
	}
}
