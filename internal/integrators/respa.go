package integrators

import (
	"fmt"

	"github.com/san-kum/ccmd/internal/dynamo"
	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/trap"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// ForceEngine is the slow force: recomputed on Update, read through Forces.
type ForceEngine interface {
	Update() error
	Forces() []r3.Vec
}

type options struct {
	sampler ions.Sampler
	seed    uint64
	start   float64
	log     *zap.Logger
}

type Option func(*options)

// WithSampler sets the source of standard normal variates used for heating.
func WithSampler(s ions.Sampler) Option {
	return func(o *options) { o.sampler = s }
}

// WithSeed seeds the default heating sampler.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithStartTime sets the initial value of the trap clock.
func WithStartTime(t float64) Option {
	return func(o *options) { o.start = t }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{seed: 1, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sampler == nil {
		o.sampler = distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(o.seed)}
	}
	return o
}

type RESPA struct {
	trap    trap.Trap
	cloud   *ions.Cloud
	coulomb ForceEngine
	steps   int
	t       float64
	sampler ions.Sampler
	log     *zap.Logger
}

func NewRESPA(tr trap.Trap, cloud *ions.Cloud, engine ForceEngine, respaSteps int, opts ...Option) (*RESPA, error) {
	if respaSteps < 1 {
		return nil, fmt.Errorf("%w: respa steps must be at least 1, got %d", dynamo.ErrConfiguration, respaSteps)
	}
	if tr == nil || cloud == nil || engine == nil {
		return nil, fmt.Errorf("%w: respa integrator needs a trap, a cloud and a force engine", dynamo.ErrConfiguration)
	}
	o := buildOptions(opts)
	o.log.Debug("respa integrator ready", zap.Int("respa_steps", respaSteps), zap.Int("ions", cloud.Len()))
	return &RESPA{
		trap:    tr,
		cloud:   cloud,
		coulomb: engine,
		steps:   respaSteps,
		t:       o.start,
		sampler: o.sampler,
		log:     o.log,
	}, nil
}

func (r *RESPA) Time() float64   { return r.t }
func (r *RESPA) RespaSteps() int { return r.steps }

// Evolve advances the cloud by one macro step dt.
func (r *RESPA) Evolve(dt float64) error {
	if err := r.coulomb.Update(); err != nil {
		return fmt.Errorf("coulomb forces at t=%g: %w", r.t, err)
	}
	r.cloud.Kick(dt/2, r.coulomb.Forces())

	h := dt / float64(r.steps)
	for i := 0; i < r.steps; i++ {
		r.cloud.KickTrap(h/2, r.trap, r.t)
		r.cloud.Drift(h)
		next := r.t + h
		r.cloud.KickTrap(h/2, r.trap, next)
		r.t = next
	}

	if err := r.coulomb.Update(); err != nil {
		return fmt.Errorf("coulomb forces at t=%g: %w", r.t, err)
	}
	r.cloud.Kick(dt/2, r.coulomb.Forces())

	r.cloud.VelocityScale(dt)
	r.cloud.Heat(dt, r.sampler)

	return r.cloud.Validate()
}
