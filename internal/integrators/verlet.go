package integrators

import (
	"fmt"

	"github.com/san-kum/ccmd/internal/dynamo"
	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/trap"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// VelocityVerlet integrates the summed Coulomb and trap force with a single
// time step and no force splitting.
type VelocityVerlet struct {
	trap    trap.Trap
	cloud   *ions.Cloud
	coulomb ForceEngine
	t       float64
	sampler ions.Sampler
	log     *zap.Logger
	scratch []r3.Vec
}

func NewVelocityVerlet(tr trap.Trap, cloud *ions.Cloud, engine ForceEngine, opts ...Option) (*VelocityVerlet, error) {
	if tr == nil || cloud == nil || engine == nil {
		return nil, fmt.Errorf("%w: verlet integrator needs a trap, a cloud and a force engine", dynamo.ErrConfiguration)
	}
	o := buildOptions(opts)
	return &VelocityVerlet{
		trap:    tr,
		cloud:   cloud,
		coulomb: engine,
		t:       o.start,
		sampler: o.sampler,
		log:     o.log,
	}, nil
}

func (v *VelocityVerlet) Time() float64 { return v.t }

func (v *VelocityVerlet) ensureScratch(n int) {
	if len(v.scratch) != n {
		v.scratch = make([]r3.Vec, n)
	}
}

// totalForce fills the scratch buffer with the Coulomb plus trap force at
// time t.
func (v *VelocityVerlet) totalForce(t float64) ([]r3.Vec, error) {
	if err := v.coulomb.Update(); err != nil {
		return nil, fmt.Errorf("coulomb forces at t=%g: %w", t, err)
	}
	coulomb := v.coulomb.Forces()
	v.ensureScratch(len(coulomb))
	for i, ion := range v.cloud.Ions() {
		trapForce := r3.Scale(ion.Charge(), v.trap.ForceAt(ion.Position(), t))
		v.scratch[i] = r3.Add(coulomb[i], trapForce)
	}
	return v.scratch, nil
}

func (v *VelocityVerlet) Evolve(dt float64) error {
	f, err := v.totalForce(v.t)
	if err != nil {
		return err
	}
	halfDt := 0.5 * dt
	v.cloud.Kick(halfDt, f)
	v.cloud.Drift(dt)
	v.t += dt

	f, err = v.totalForce(v.t)
	if err != nil {
		return err
	}
	v.cloud.Kick(halfDt, f)

	v.cloud.VelocityScale(dt)
	v.cloud.Heat(dt, v.sampler)

	return v.cloud.Validate()
}
