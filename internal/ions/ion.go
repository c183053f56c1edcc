package ions

import (
	"fmt"
	"math"

	"github.com/san-kum/ccmd/internal/dynamo"
	"github.com/san-kum/ccmd/internal/stats"
	"github.com/san-kum/ccmd/internal/trap"
	"gonum.org/v1/gonum/spatial/r3"
)

// IonType holds the immutable parameters of a species.
type IonType struct {
	Name    string
	Formula string
	Mass    float64 // amu
	Charge  int     // units of e

	Beta      float64 // laser cooling damping coefficient
	Recoil    float64 // stochastic recoil magnitude
	Direction float64 // left-to-right cooling intensity ratio

	LaserCooled bool
	Heated      bool
}

func (t *IonType) Validate() error {
	switch {
	case t == nil:
		return fmt.Errorf("%w: nil ion type", dynamo.ErrConfiguration)
	case t.Name == "":
		return fmt.Errorf("%w: ion type has no name", dynamo.ErrConfiguration)
	case !(t.Mass > 0) || math.IsInf(t.Mass, 0):
		return fmt.Errorf("%w: ion type %q: mass must be positive, got %g", dynamo.ErrConfiguration, t.Name, t.Mass)
	case t.Beta < 0:
		return fmt.Errorf("%w: ion type %q: beta must not be negative", dynamo.ErrConfiguration, t.Name)
	case t.Recoil < 0:
		return fmt.Errorf("%w: ion type %q: recoil must not be negative", dynamo.ErrConfiguration, t.Name)
	case t.Direction < 0:
		return fmt.Errorf("%w: ion type %q: direction ratio must not be negative", dynamo.ErrConfiguration, t.Name)
	}
	return nil
}

// Kind selects the per-variant behaviour of an ion.
type Kind int

const (
	Trapped Kind = iota
	LaserCooled
)

func (k Kind) String() string {
	switch k {
	case Trapped:
		return "trapped"
	case LaserCooled:
		return "laser-cooled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sampler draws standard normal variates.
type Sampler interface {
	Rand() float64
}

type Ion struct {
	typ    *IonType
	kind   Kind
	mass   float64
	charge float64

	pos r3.Vec
	vel r3.Vec

	posStats stats.Running
	velStats stats.Running
}

// New constructs an ion at rest at the origin.
func New(typ *IonType) (*Ion, error) {
	if err := typ.Validate(); err != nil {
		return nil, err
	}
	kind := Trapped
	if typ.LaserCooled {
		kind = LaserCooled
	}
	return &Ion{
		typ:    typ,
		kind:   kind,
		mass:   typ.Mass,
		charge: float64(typ.Charge),
	}, nil
}

func (ion *Ion) Type() *IonType  { return ion.typ }
func (ion *Ion) Kind() Kind      { return ion.kind }
func (ion *Ion) Name() string    { return ion.typ.Name }
func (ion *Ion) Formula() string { return ion.typ.Formula }
func (ion *Ion) Mass() float64   { return ion.mass }
func (ion *Ion) Charge() float64 { return ion.charge }

func (ion *Ion) Position() r3.Vec { return ion.pos }
func (ion *Ion) Velocity() r3.Vec { return ion.vel }

func (ion *Ion) SetPosition(r r3.Vec) { ion.pos = r }
func (ion *Ion) SetVelocity(v r3.Vec) { ion.vel = v }

// Move shifts the ion by d.
func (ion *Ion) Move(d r3.Vec) { ion.pos = r3.Add(ion.pos, d) }

func (ion *Ion) PositionStats() stats.Running { return ion.posStats }
func (ion *Ion) VelocityStats() stats.Running { return ion.velStats }

// Drift advances the position in free flight.
func (ion *Ion) Drift(dt float64) {
	ion.pos = r3.Add(ion.pos, r3.Scale(dt, ion.vel))
}

// Kick applies the impulse of force f over dt.
func (ion *Ion) Kick(dt float64, f r3.Vec) {
	ion.vel = r3.Add(ion.vel, r3.Scale(dt/ion.mass, f))
}

// KickTrap applies the trap field at the ion's position and time t.
func (ion *Ion) KickTrap(dt float64, tr trap.Trap, t float64) {
	ion.Kick(dt, r3.Scale(ion.charge, tr.ForceAt(ion.pos, t)))
}

// FrictionWeights returns the damping weight applied to a positive and to a
// negative velocity component. The right-hand beam damps motion towards +,
// the left-hand beam motion towards -, split by the intensity ratio so that
// a ratio of one damps both directions equally.
func FrictionWeights(direction float64) (plus, minus float64) {
	return 2 / (1 + direction), 2 * direction / (1 + direction)
}

// VelocityScale applies laser-cooling friction over dt.
func (ion *Ion) VelocityScale(dt float64) {
	switch ion.kind {
	case LaserCooled:
		plus, minus := FrictionWeights(ion.typ.Direction)
		damp := func(v float64) float64 {
			w := minus
			if v > 0 {
				w = plus
			}
			s := 1 - ion.typ.Beta*w*dt
			if s < 0 {
				s = 0
			}
			return v * s
		}
		ion.vel = r3.Vec{X: damp(ion.vel.X), Y: damp(ion.vel.Y), Z: damp(ion.vel.Z)}
	case Trapped:
	}
}

// Heat adds an independent photon-recoil velocity increment on each axis,
// normally distributed with standard deviation Recoil·√dt / mass.
func (ion *Ion) Heat(dt float64, rng Sampler) {
	switch ion.kind {
	case LaserCooled:
		if !ion.typ.Heated || ion.typ.Recoil == 0 {
			return
		}
		sigma := ion.typ.Recoil * math.Sqrt(dt) / ion.mass
		ion.vel = r3.Add(ion.vel, r3.Vec{
			X: sigma * rng.Rand(),
			Y: sigma * rng.Rand(),
			Z: sigma * rng.Rand(),
		})
	case Trapped:
	}
}

// KineticEnergy returns ½mv².
func (ion *Ion) KineticEnergy() float64 {
	return 0.5 * ion.mass * r3.Norm2(ion.vel)
}

// UpdateStats records the current position and velocity.
func (ion *Ion) UpdateStats() {
	ion.posStats.Append(ion.pos)
	ion.velStats.Append(ion.vel)
}

// Finite reports whether position and velocity are free of NaN and Inf.
func (ion *Ion) Finite() bool {
	return dynamo.Finite(ion.pos) && dynamo.Finite(ion.vel)
}
