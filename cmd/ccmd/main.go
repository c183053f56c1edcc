package main

import (
	"fmt"
	"os"

	"github.com/san-kum/ccmd/internal/config"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	seed       uint64
	threads    int
	live       bool
	plot       bool
	spectrum   bool
	makeImage  bool
	verbose    bool
	ensemble   int
	benchIters int
	jsonOut    bool
)

// main registers the ccmd commands and exits with status 1 when one fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "ccmd",
		Short:         "coulomb crystal molecular dynamics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ccmd", "run store directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "cool an ion cloud and collect statistics",
		Long: "Loads trap.yaml, trap.yml or trap.info from dir (or --config / --preset),\n" +
			"cools the cloud, acquires histogram data and stores the results.",
		Args: cobra.MaximumNArgs(1),
		RunE: runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file (yaml or info)")
	runCmd.Flags().StringVar(&preset, "preset", "", "start from a preset configuration")
	runCmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "random seed for heating")
	runCmd.Flags().IntVar(&threads, "threads", 0, "coulomb workers (0 = all CPUs)")
	runCmd.Flags().BoolVar(&live, "live", false, "show live progress")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the energy series when done")
	runCmd.Flags().BoolVar(&spectrum, "spectrum", false, "print the strongest kinetic energy spectrum peaks")
	runCmd.Flags().BoolVar(&makeImage, "image", false, "render a microscope image of each species")
	runCmd.Flags().IntVar(&ensemble, "ensemble", 1, "independent runs with consecutive seeds")

	latticeCmd := &cobra.Command{
		Use:   "lattice [n]",
		Short: "print the initial lattice sites",
		Args:  cobra.ExactArgs(1),
		RunE:  printLattice,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [n]",
		Short: "time serial and parallel coulomb updates",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchCoulomb,
	}
	benchCmd.Flags().IntVar(&benchIters, "iters", 20, "updates per measurement")
	benchCmd.Flags().IntVar(&threads, "threads", 0, "coulomb workers (0 = all CPUs)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&jsonOut, "json", false, "print metadata and energy windows as JSON")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the kinetic energy windows of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				n := 0
				for _, s := range p.Species {
					n += s.Number
				}
				fmt.Printf("  %-12s %s trap, %d ions\n", name, p.Trap.Waveform, n)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, latticeCmd, benchCmd, listCmd, showCmd, plotCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
