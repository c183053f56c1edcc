package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/ccmd/internal/coulomb"
	"github.com/san-kum/ccmd/internal/dynamo"
	"github.com/san-kum/ccmd/internal/integrators"
	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/metrics"
	"github.com/san-kum/ccmd/internal/trap"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

type Simulator struct {
	cfg        Config
	trap       trap.Trap
	cloud      *ions.Cloud
	engine     *coulomb.Engine
	integrator dynamo.Integrator
	log        *zap.Logger
	metrics    []metrics.Metric
	observers  []Observer
	sinks      []dynamo.Sink
}

type Option func(*Simulator)

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

func WithSink(sink dynamo.Sink) Option {
	return func(s *Simulator) { s.sinks = append(s.sinks, sink) }
}

func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

func WithMetric(m metrics.Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, m) }
}

// New builds the cloud, the Coulomb engine and the integrator for one run.
// The caller must Close the simulator to stop the engine's workers.
func New(tr trap.Trap, roster []ions.Population, cfg Config, opts ...Option) (*Simulator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, fmt.Errorf("%w: no trap", dynamo.ErrConfiguration)
	}
	s := &Simulator{cfg: cfg, trap: tr, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	cloud, err := ions.NewCloud(roster)
	if err != nil {
		return nil, err
	}
	if cloud.Len() == 0 {
		return nil, fmt.Errorf("%w: the cloud has no ions", dynamo.ErrConfiguration)
	}
	if cfg.Swap != nil {
		if _, ok := cloud.Type(cfg.Swap.From); !ok {
			return nil, fmt.Errorf("%w: swap source %q is not a configured species", dynamo.ErrConfiguration, cfg.Swap.From)
		}
		if _, ok := cloud.Type(cfg.Swap.To); !ok {
			return nil, fmt.Errorf("%w: swap target %q is not a configured species", dynamo.ErrConfiguration, cfg.Swap.To)
		}
	}
	s.cloud = cloud

	s.engine = coulomb.New(cloud, s.coulombK(),
		coulomb.WithWorkers(cfg.Threads),
		coulomb.WithLogger(s.log))

	iopts := []integrators.Option{
		integrators.WithSeed(cfg.Seed),
		integrators.WithLogger(s.log),
	}
	switch cfg.Integrator {
	case IntegratorRESPA, "":
		s.integrator, err = integrators.NewRESPA(tr, cloud, s.engine, cfg.RespaSteps, iopts...)
	case IntegratorVerlet:
		s.integrator, err = integrators.NewVelocityVerlet(tr, cloud, s.engine, iopts...)
	default:
		err = fmt.Errorf("%w: unknown integrator %q", dynamo.ErrConfiguration, cfg.Integrator)
	}
	if err != nil {
		s.engine.Close()
		return nil, err
	}

	s.log.Info("simulation ready",
		zap.Int("ions", cloud.Len()),
		zap.Int("workers", s.engine.Workers()),
		zap.Float64("dt", cfg.Dt),
		zap.Int("respa_steps", cfg.RespaSteps))
	return s, nil
}

func validateConfig(cfg Config) error {
	switch {
	case !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0):
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrConfiguration, cfg.Dt)
	case cfg.CoolSteps < 0 || cfg.HistSteps < 0:
		return fmt.Errorf("%w: step counts must not be negative", dynamo.ErrConfiguration)
	case cfg.Integrator != IntegratorVerlet && cfg.RespaSteps < 1:
		return fmt.Errorf("%w: respa steps must be at least 1, got %d", dynamo.ErrConfiguration, cfg.RespaSteps)
	case cfg.Swap != nil && cfg.Swap.Every < 1:
		return fmt.Errorf("%w: swap interval must be at least 1", dynamo.ErrConfiguration)
	}
	return nil
}

func (s *Simulator) coulombK() float64 {
	if s.cfg.CoulombK == 0 {
		return 1
	}
	return s.cfg.CoulombK
}

func (s *Simulator) Cloud() *ions.Cloud { return s.cloud }
func (s *Simulator) Trap() trap.Trap    { return s.trap }
func (s *Simulator) Config() Config     { return s.cfg }

func (s *Simulator) AddObserver(o Observer)   { s.observers = append(s.observers, o) }
func (s *Simulator) AddSink(sink dynamo.Sink) { s.sinks = append(s.sinks, sink) }

// Close stops the Coulomb workers.
func (s *Simulator) Close() {
	s.engine.Close()
}

// Run cools the cloud for CoolSteps and then collects statistics for
// HistSteps. On error the partial result is returned alongside it.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{Metrics: make(map[string]float64)}
	for _, m := range s.metrics {
		m.Reset()
	}

	k := s.coulombK()
	initial, err := metrics.CloudEnergy(s.cloud, s.trap, k, s.integrator.Time())
	if err != nil {
		return result, &dynamo.SimulationError{Phase: PhaseCool, Wrapped: err}
	}
	drift := metrics.NewEnergyDrift(s.trap, k)
	drift.Add(initial.Total)

	window := s.cfg.StepsPerPeriod
	cooling := metrics.NewEnergySeries(window)
	s.log.Info("running cool down", zap.Int("steps", s.cfg.CoolSteps))
	for i := 0; i < s.cfg.CoolSteps; i++ {
		if err := ctx.Err(); err != nil {
			return s.finish(result, start), err
		}
		if err := s.step(PhaseCool, result); err != nil {
			return s.finish(result, start), err
		}
		ke := s.cloud.KineticEnergy()
		cooling.Add(ke)
		s.notify(PhaseCool, i, s.cfg.CoolSteps, ke)
	}
	cooling.Flush()
	result.Cooling = cooling.Windows()

	hist := metrics.NewEnergySeries(window)
	var keSum, totalSum float64
	s.log.Info("acquiring histogram data", zap.Int("steps", s.cfg.HistSteps))
	for i := 0; i < s.cfg.HistSteps; i++ {
		if err := ctx.Err(); err != nil {
			return s.finish(result, start), err
		}
		if err := s.step(PhaseHist, result); err != nil {
			return s.finish(result, start), err
		}

		s.cloud.UpdateStats()
		s.record()
		t := s.integrator.Time()
		for _, m := range s.metrics {
			m.Observe(s.cloud, t)
		}

		en, err := metrics.CloudEnergy(s.cloud, s.trap, k, t)
		if err != nil {
			return s.finish(result, start), &dynamo.SimulationError{Step: result.Steps, Time: t, Phase: PhaseHist, Wrapped: err}
		}
		keSum += en.Kinetic
		totalSum += en.Total
		drift.Add(en.Total)
		hist.Add(en.Kinetic)
		s.notify(PhaseHist, i, s.cfg.HistSteps, en.Kinetic)
	}
	hist.Flush()
	result.Windows = hist.Windows()

	if s.cfg.HistSteps > 0 {
		result.MeanKinetic = keSum / float64(s.cfg.HistSteps)
		result.MeanTotal = totalSum / float64(s.cfg.HistSteps)
	}
	if s.cfg.HistSteps == 0 {
		drift.Observe(s.cloud, s.integrator.Time())
	}
	result.EnergyDrift = drift.Value()
	result.AspectRatio = s.cloud.AspectRatio()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Species = s.summarise()

	s.finish(result, start)
	s.log.Info("run complete",
		zap.Int("steps", result.Steps),
		zap.Float64("mean_kinetic", result.MeanKinetic),
		zap.Float64("mean_total", result.MeanTotal),
		zap.Float64("final_energy", drift.Current()),
		zap.Float64("aspect_ratio", result.AspectRatio),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}

func (s *Simulator) finish(r *Result, start time.Time) *Result {
	r.Time = s.integrator.Time()
	r.Elapsed = time.Since(start)
	return r
}

// step advances one macro step and applies a due type change.
func (s *Simulator) step(phase string, result *Result) error {
	if err := s.integrator.Evolve(s.cfg.Dt); err != nil {
		s.log.Error("integration aborted",
			zap.String("phase", phase),
			zap.Int("step", result.Steps),
			zap.Error(err))
		return &dynamo.SimulationError{
			Step:    result.Steps,
			Time:    s.integrator.Time(),
			Phase:   phase,
			Wrapped: err,
		}
	}
	result.Steps++

	if sw := s.cfg.Swap; sw != nil && result.Steps%sw.Every == 0 {
		idx, err := s.cloud.ChangeIonTypeByName(sw.From, sw.To)
		switch {
		case err != nil:
			s.log.Warn("ion type change failed", zap.String("from", sw.From), zap.String("to", sw.To), zap.Error(err))
		case idx < 0:
			s.log.Debug("no ion left to change", zap.String("from", sw.From))
		default:
			result.Swaps++
			s.log.Debug("ion type changed", zap.Int("index", idx), zap.String("from", sw.From), zap.String("to", sw.To))
		}
	}
	return nil
}

func (s *Simulator) record() {
	if len(s.sinks) == 0 {
		return
	}
	for _, ion := range s.cloud.Ions() {
		for _, sink := range s.sinks {
			sink.Record(ion.Name(), ion.Position())
			sink.RecordEnergy(ion.Name(), ion.KineticEnergy())
		}
	}
}

func (s *Simulator) notify(phase string, i, total int, ke float64) {
	if len(s.observers) == 0 {
		return
	}
	p := Progress{Phase: phase, Step: i + 1, Total: total, Time: s.integrator.Time(), Kinetic: ke}
	for _, o := range s.observers {
		o.OnStep(p)
	}
}

func (s *Simulator) summarise() []SpeciesSummary {
	var out []SpeciesSummary
	for _, typ := range s.cloud.Types() {
		sum := SpeciesSummary{Name: typ.Name}
		for _, ion := range s.cloud.Ions() {
			if ion.Name() != typ.Name {
				continue
			}
			pos, vel := ion.PositionStats(), ion.VelocityStats()
			if pos.Count() == 0 {
				continue
			}
			sum.Count++
			vm, vv := vel.Mean(), vel.Variance()
			ke := r3.Scale(0.5*ion.Mass(), r3.Vec{
				X: vv.X + vm.X*vm.X,
				Y: vv.Y + vm.Y*vm.Y,
				Z: vv.Z + vm.Z*vm.Z,
			})
			sum.MeanKinetic = r3.Add(sum.MeanKinetic, ke)
			sum.MeanPosition = r3.Add(sum.MeanPosition, pos.Mean())
			sum.PositionVariance = r3.Add(sum.PositionVariance, pos.Variance())
		}
		if sum.Count == 0 {
			continue
		}
		f := 1 / float64(sum.Count)
		sum.MeanKinetic = r3.Scale(f, sum.MeanKinetic)
		sum.MeanPosition = r3.Scale(f, sum.MeanPosition)
		sum.PositionVariance = r3.Scale(f, sum.PositionVariance)
		out = append(out, sum)
	}
	return out
}

// IsDegenerate reports whether err stems from coincident ions or a
// non-finite state.
func IsDegenerate(err error) bool {
	return errors.Is(err, dynamo.ErrNumericalDegeneracy)
}
