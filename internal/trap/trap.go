package trap

import (
	"fmt"
	"math"

	"github.com/san-kum/ccmd/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	elementaryCharge = 1.602176634e-19
	atomicMass       = 1.66053906660e-27
	vacuumPermit     = 8.8541878128e-12
)

// Trap is the external field collaborator of the integrator.
type Trap interface {
	ForceAt(r r3.Vec, t float64) r3.Vec
	LengthScale() float64
	TimeScale() float64
}

// Potential is implemented by traps that can report the potential energy of
// a reference ion, for energy bookkeeping.
type Potential interface {
	PotentialAt(r r3.Vec, t float64) float64
}

// Waveform names accepted by New.
const (
	WaveCosine   = "cosine"
	WaveDigital  = "digital"
	WavePseudo   = "pseudo"
	WaveWaveform = "waveform"
)

// Params holds the physical trap description in SI units.
type Params struct {
	Waveform string
	Freq     float64 // RF frequency (Hz)
	VRF      float64 // RF amplitude (V)
	VEnd     float64 // endcap voltage (V)
	Eta      float64 // geometry factor
	R0       float64 // electrode radius (m)
	Z0       float64 // central electrode half length (m)
	Tau      float64 // duty cycle of the digital waveform
}

func (p Params) omega() float64 { return 2 * math.Pi * p.Freq }

// Mathieu returns the radial a and q parameters of a 1 amu, 1 e ion.
func (p Params) Mathieu() (a, q float64) {
	w2 := p.omega() * p.omega()
	q = 2 * elementaryCharge * p.VRF / (atomicMass * p.R0 * p.R0 * w2)
	a = -4 * p.Eta * elementaryCharge * p.VEnd / (atomicMass * p.Z0 * p.Z0 * w2)
	return a, q
}

func (p Params) timeScale() float64 { return 2 / p.omega() }

func (p Params) lengthScale() float64 {
	w := p.omega()
	return math.Cbrt(elementaryCharge * elementaryCharge / (math.Pi * vacuumPermit * atomicMass * w * w))
}

func (p Params) validate() error {
	switch {
	case p.Freq <= 0:
		return fmt.Errorf("%w: trap frequency must be positive, got %g", dynamo.ErrConfiguration, p.Freq)
	case p.R0 <= 0:
		return fmt.Errorf("%w: electrode radius must be positive, got %g", dynamo.ErrConfiguration, p.R0)
	case p.Z0 <= 0:
		return fmt.Errorf("%w: electrode length must be positive, got %g", dynamo.ErrConfiguration, p.Z0)
	}
	return nil
}

// New builds the trap model named by p.Waveform.
func New(p Params) (Trap, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	switch p.Waveform {
	case WaveCosine, "":
		return NewCosine(p), nil
	case WaveDigital:
		if p.Tau <= 0 || p.Tau >= 1 {
			return nil, fmt.Errorf("%w: digital duty cycle must be in (0, 1), got %g", dynamo.ErrConfiguration, p.Tau)
		}
		return NewDigital(p), nil
	case WavePseudo:
		return NewPseudopotential(p), nil
	case WaveWaveform:
		return nil, fmt.Errorf("%w: file driven waveforms are not supported", dynamo.ErrConfiguration)
	default:
		return nil, fmt.Errorf("%w: unrecognised trap type %q", dynamo.ErrConfiguration, p.Waveform)
	}
}

// quadrupole is the field of a linear Paul trap with a given RF drive value.
func quadrupole(a, q, drive float64, r r3.Vec) r3.Vec {
	return r3.Vec{
		X: -(a - 2*q*drive) * r.X,
		Y: -(a + 2*q*drive) * r.Y,
		Z: 2 * a * r.Z,
	}
}

func quadrupolePotential(a, q, drive float64, r r3.Vec) float64 {
	return 0.5 * ((a-2*q*drive)*r.X*r.X + (a+2*q*drive)*r.Y*r.Y - 2*a*r.Z*r.Z)
}
