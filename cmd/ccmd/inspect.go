package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/san-kum/ccmd/internal/coulomb"
	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/metrics"
	"github.com/san-kum/ccmd/internal/sim"
	"github.com/san-kum/ccmd/internal/storage"
	"github.com/san-kum/ccmd/internal/tui"
	"github.com/spf13/cobra"
)

func parseCount(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid ion count %q", arg)
	}
	return n, nil
}

func printLattice(cmd *cobra.Command, args []string) error {
	n, err := parseCount(args[0])
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tX\tY\tZ")
	for i, r := range ions.Lattice(n) {
		fmt.Fprintf(w, "%d\t%g\t%g\t%g\n", i, r.X, r.Y, r.Z)
	}
	return w.Flush()
}

func benchCoulomb(cmd *cobra.Command, args []string) error {
	if benchIters < 1 {
		return fmt.Errorf("--iters must be at least 1, got %d", benchIters)
	}
	n := 512
	if len(args) == 1 {
		var err error
		if n, err = parseCount(args[0]); err != nil {
			return err
		}
	}
	typ := &ions.IonType{Name: "Ca+", Formula: "Ca", Mass: 40, Charge: 1, Direction: 1}
	cloud, err := ions.NewCloud([]ions.Population{{Type: typ, Count: n}})
	if err != nil {
		return err
	}

	measure := func(workers int) (time.Duration, int, error) {
		e := coulomb.New(cloud, 1, coulomb.WithWorkers(workers))
		defer e.Close()
		start := time.Now()
		for i := 0; i < benchIters; i++ {
			if err := e.Update(); err != nil {
				return 0, 0, err
			}
		}
		return time.Since(start) / time.Duration(benchIters), e.Workers(), nil
	}

	serial, _, err := measure(1)
	if err != nil {
		return err
	}
	parallel, workers, err := measure(threads)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %d ions, %d updates each\n\n", n, benchIters)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tWORKERS\tPER UPDATE\tPAIRS/SEC")
	pairs := float64(n) * float64(n-1) / 2
	for _, row := range []struct {
		mode    string
		workers int
		d       time.Duration
	}{{"serial", 1, serial}, {"parallel", workers, parallel}} {
		rate := 0.0
		if row.d > 0 {
			rate = pairs / row.d.Seconds()
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%.3g\n", row.mode, row.workers, row.d, rate)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if parallel > 0 {
		fmt.Printf("\nspeedup: %.2fx\n", float64(serial)/float64(parallel))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tTIME\tIONS\tSTEPS\tTRAP\t<KE>")
	for _, run := range runs {
		n := 0
		for _, c := range run.Species {
			n += c
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%.4g\n",
			run.ID,
			run.Label,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			n,
			run.Steps,
			run.Trap,
			run.MeanKinetic,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if jsonOut {
		return st.Export(os.Stdout, args[0])
	}

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Println(tui.Title("run " + meta.ID))
	fmt.Println(tui.Label("label      ", meta.Label))
	fmt.Println(tui.Label("time       ", meta.Timestamp.Format(time.RFC3339)))
	fmt.Println(tui.Label("trap       ", meta.Trap))
	fmt.Println(tui.Label("integrator ", fmt.Sprintf("%s (dt=%g, respa=%d)", meta.Integrator, meta.Dt, meta.RespaSteps)))
	fmt.Println(tui.Label("steps      ", fmt.Sprintf("%d cool + %d hist, %d taken", meta.CoolSteps, meta.HistSteps, meta.Steps)))
	fmt.Println(tui.Label("scales     ", fmt.Sprintf("length %.4g m, time %.4g s", meta.LengthScale, meta.TimeScale)))
	fmt.Println(tui.Label("<KE>       ", fmt.Sprintf("%.6g", meta.MeanKinetic)))
	fmt.Println(tui.Label("<E>        ", fmt.Sprintf("%.6g", meta.MeanTotal)))
	fmt.Println(tui.Label("seed       ", fmt.Sprintf("%d", meta.Seed)))
	for name, n := range meta.Species {
		fmt.Println(tui.Label(fmt.Sprintf("%-11s", name), fmt.Sprintf("%d ions", n)))
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadEnergy(args[0])
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	var cooling, hist []metrics.Window
	for _, r := range rows {
		w := metrics.Window{Mean: r.Mean, Variance: r.Variance}
		if r.Phase == sim.PhaseHist {
			hist = append(hist, w)
		} else {
			cooling = append(cooling, w)
		}
	}
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("windows: %d cooling, %d histogram\n", len(cooling), len(hist))
	plotWindows(cooling, hist)
	return nil
}
