package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ccmd/internal/analysis"
	"github.com/san-kum/ccmd/internal/config"
	"github.com/san-kum/ccmd/internal/dynamo"
	"github.com/san-kum/ccmd/internal/export"
	"github.com/san-kum/ccmd/internal/metrics"
	"github.com/san-kum/ccmd/internal/sim"
	"github.com/san-kum/ccmd/internal/stats"
	"github.com/san-kum/ccmd/internal/storage"
	"github.com/san-kum/ccmd/internal/trap"
	"github.com/san-kum/ccmd/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Ions outside this radius (reduced units) count as lost for the
// confinement metric.
const confinementRadius = 100

const energyBinWidth = 0.5

// traceLimit caps the kinetic energy samples kept for the spectrum.
const traceLimit = 1 << 16

var inputNames = []string{"trap.yaml", "trap.yml", "trap.info"}

// resolveConfig picks the configuration in order of precedence: --config,
// a trap file in the working directory, --preset, the defaults. Flags that
// were set explicitly override the file.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	path := configFile
	if path == "" && len(args) == 1 {
		for _, name := range inputNames {
			candidate := filepath.Join(args[0], name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	switch {
	case path != "":
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("threads") {
		cfg.Threads = threads
	}
	if makeImage {
		cfg.Microscope.MakeImage = true
	}
	return cfg, cfg.Validate()
}

func newLogger(runDir string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{filepath.Join(runDir, "log.txt")}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		if !live {
			zc.OutputPaths = append(zc.OutputPaths, "stderr")
		}
	}
	return zc.Build()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	tr, err := cfg.BuildTrap()
	if err != nil {
		return err
	}

	if len(args) == 1 && !cmd.Flags().Changed("data") {
		dataDir = filepath.Join(args[0], ".ccmd")
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if ensemble > 1 {
		return runEnsemble(ctx, st, cfg, tr)
	}

	runID, err := st.Create()
	if err != nil {
		return err
	}
	runDir := st.Dir(runID)
	log, err := newLogger(runDir)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("ccmd run", zap.String("run_id", runID), zap.String("label", cfg.Label))

	if err := config.Save(filepath.Join(runDir, "trap.yaml"), cfg); err != nil {
		return err
	}

	hist := stats.NewEnergyHistogram(energyBinWidth)
	sinks := []dynamo.Sink{hist}
	var positions *stats.PositionHistogram
	if cfg.Microscope.MakeImage {
		positions = stats.NewPositionHistogram(cfg.Microscope.BinSize(tr.LengthScale()))
		sinks = append(sinks, positions)
		log.Info("recording microscope image", zap.Float64("bin_size", positions.BinSize()))
	}

	opts := []sim.Option{
		sim.WithLogger(log),
		sim.WithMetric(metrics.NewMeanKinetic()),
		sim.WithMetric(metrics.NewConfinement(confinementRadius)),
	}
	for _, sink := range sinks {
		opts = append(opts, sim.WithSink(sink))
	}
	s, err := sim.New(tr, cfg.Roster(), cfg.SimConfig(), opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	trace := analysis.NewKineticTrace(sim.PhaseHist, traceLimit)
	s.AddObserver(trace)

	var result *sim.Result
	if live {
		result, err = tui.Run(ctx, cfg.Label, func(ctx context.Context, obs sim.Observer) (*sim.Result, error) {
			s.AddObserver(obs)
			return s.Run(ctx)
		})
	} else {
		s.AddObserver(newTextProgress())
		result, err = s.Run(ctx)
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		log.Error("run failed", zap.Error(err))
		if sim.IsDegenerate(err) {
			fmt.Fprintln(os.Stderr, tui.Failure("ions coincided or the state diverged; try a smaller time_step"))
		}
	}

	rec := storage.Record{
		Meta:      metadata(cfg, tr),
		Result:    result,
		Cloud:     s.Cloud(),
		Histogram: hist,
		Positions: positions,
		Optics: export.Microscope{
			Rows: cfg.Microscope.Rows,
			Cols: cfg.Microscope.Cols,
			W0:   cfg.Microscope.W0,
			Z0:   cfg.Microscope.Z0,
		},
	}
	if saveErr := st.Save(runID, rec); saveErr != nil {
		return errors.Join(err, saveErr)
	}
	if err != nil {
		return err
	}

	if err := writeArtifacts(runDir, s.Cloud(), trace.Samples(), cfg.Integration.TimeStep); err != nil {
		log.Warn("failed to write run artifacts", zap.Error(err))
	}

	printSummary(runID, result)
	if spectrum {
		printSpectrum(trace.Samples(), cfg.Integration.TimeStep)
	}
	if plot {
		plotWindows(result.Cooling, result.Windows)
	}
	return nil
}

func runEnsemble(ctx context.Context, st *storage.Store, cfg *config.Config, tr trap.Trap) error {
	log, err := newLogger(st.Dir(""))
	if err != nil {
		return err
	}
	defer log.Sync()

	results, err := sim.NewEnsemble(tr, cfg.Roster(), cfg.SimConfig(), ensemble, log).Run(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEED\tSTEPS\t<KE>\t<E>\tELAPSED")
	for i, r := range results {
		runID, err := st.Create()
		if err != nil {
			return err
		}
		meta := metadata(cfg, tr)
		meta.Seed = cfg.Seed + uint64(i)
		if err := st.Save(runID, storage.Record{Meta: meta, Result: r}); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.5g\t%.5g\t%s\n", runID, meta.Seed, r.Steps, r.MeanKinetic, r.MeanTotal, r.Elapsed.Round(1e6))
	}
	return w.Flush()
}

func metadata(cfg *config.Config, tr trap.Trap) storage.RunMetadata {
	species := make(map[string]int, len(cfg.Species))
	for _, s := range cfg.Species {
		species[s.Name] = s.Number
	}
	integrator := cfg.Integration.Integrator
	if integrator == "" {
		integrator = sim.IntegratorRESPA
	}
	return storage.RunMetadata{
		Label:       cfg.Label,
		Seed:        cfg.Seed,
		Dt:          cfg.Integration.TimeStep,
		RespaSteps:  cfg.Integration.RespaSteps,
		CoolSteps:   cfg.Integration.CoolSteps,
		HistSteps:   cfg.Integration.HistSteps,
		Integrator:  integrator,
		Trap:        cfg.Trap.Waveform,
		LengthScale: tr.LengthScale(),
		TimeScale:   tr.TimeScale(),
		Species:     species,
	}
}

// textProgress prints a bar on stderr every five percent of a phase.
type textProgress struct {
	last  int
	phase string
}

func newTextProgress() *textProgress { return &textProgress{last: -1} }

func (p *textProgress) OnStep(pr sim.Progress) {
	if pr.Phase != p.phase {
		if p.phase != "" {
			fmt.Fprintln(os.Stderr)
		}
		p.phase = pr.Phase
		p.last = -1
		name := "running cool down"
		if pr.Phase == sim.PhaseHist {
			name = "acquiring histogram data"
		}
		fmt.Fprintln(os.Stderr, name)
	}
	if pr.Total == 0 {
		return
	}
	percent := pr.Step * 100 / pr.Total
	if percent/5 == p.last/5 && pr.Step != pr.Total {
		return
	}
	p.last = percent
	filled := percent / 2
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", 50-filled)
	fmt.Fprintf(os.Stderr, "\r[%s] %3d%%", bar, percent)
}

func printSummary(runID string, r *sim.Result) {
	fmt.Println(tui.Title("run complete"))
	fmt.Println(tui.Label("id      ", runID))
	fmt.Println(tui.Label("steps   ", fmt.Sprintf("%d", r.Steps)))
	fmt.Println(tui.Label("<KE>    ", fmt.Sprintf("%.6g", r.MeanKinetic)))
	fmt.Println(tui.Label("<E>     ", fmt.Sprintf("%.6g", r.MeanTotal)))
	fmt.Println(tui.Label("swaps   ", fmt.Sprintf("%d", r.Swaps)))
	fmt.Println(tui.Label("aspect  ", fmt.Sprintf("%.4g", r.AspectRatio)))
	fmt.Println(tui.Label("elapsed ", r.Elapsed.Round(1e6).String()))
	if c, ok := r.Metrics["confinement"]; ok && c < 1 {
		fmt.Println(tui.Warning(fmt.Sprintf("ions left the trap region in %.1f%% of steps", 100*(1-c))))
	}
	for _, sp := range r.Species {
		fmt.Println(tui.Label(fmt.Sprintf("%-8s", sp.Name),
			fmt.Sprintf("n=%d  KE=(%.4g, %.4g, %.4g)", sp.Count, sp.MeanKinetic.X, sp.MeanKinetic.Y, sp.MeanKinetic.Z)))
	}
}

func plotWindows(cooling, hist []metrics.Window) {
	series := make([]float64, 0, len(cooling)+len(hist))
	for _, w := range cooling {
		series = append(series, w.Mean)
	}
	for _, w := range hist {
		series = append(series, w.Mean)
	}
	if len(series) < 2 {
		fmt.Println("not enough energy windows to plot")
		return
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption("mean kinetic energy per window")))
}
