package trap

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type Cosine struct {
	A, Q   float64
	length float64
	time   float64
}

func NewCosine(p Params) *Cosine {
	a, q := p.Mathieu()
	return &Cosine{A: a, Q: q, length: p.lengthScale(), time: p.timeScale()}
}

func (c *Cosine) ForceAt(r r3.Vec, t float64) r3.Vec {
	return quadrupole(c.A, c.Q, math.Cos(2*t), r)
}

func (c *Cosine) PotentialAt(r r3.Vec, t float64) float64 {
	return quadrupolePotential(c.A, c.Q, math.Cos(2*t), r)
}

func (c *Cosine) LengthScale() float64 { return c.length }
func (c *Cosine) TimeScale() float64   { return c.time }

// Digital switches the RF electrodes between +V and -V. The drive is +1 for
// the first Tau fraction of each RF period (π in reduced time) and -1 after.
type Digital struct {
	A, Q   float64
	Tau    float64
	length float64
	time   float64
}

func NewDigital(p Params) *Digital {
	a, q := p.Mathieu()
	return &Digital{A: a, Q: q, Tau: p.Tau, length: p.lengthScale(), time: p.timeScale()}
}

func (d *Digital) drive(t float64) float64 {
	phase := math.Mod(t, math.Pi) / math.Pi
	if phase < 0 {
		phase++
	}
	if phase < d.Tau {
		return 1
	}
	return -1
}

func (d *Digital) ForceAt(r r3.Vec, t float64) r3.Vec {
	return quadrupole(d.A, d.Q, d.drive(t), r)
}

func (d *Digital) PotentialAt(r r3.Vec, t float64) float64 {
	return quadrupolePotential(d.A, d.Q, d.drive(t), r)
}

func (d *Digital) LengthScale() float64 { return d.length }
func (d *Digital) TimeScale() float64   { return d.time }

// Static is a time-independent harmonic field with curvature K per axis.
type Static struct {
	K      r3.Vec
	length float64
	time   float64
}

func NewStatic(k r3.Vec, lengthScale, timeScale float64) *Static {
	return &Static{K: k, length: lengthScale, time: timeScale}
}

// NewPseudopotential returns the time-averaged approximation of a cosine
// trap: radial curvature a + q²/2, axial curvature -2a.
func NewPseudopotential(p Params) *Static {
	a, q := p.Mathieu()
	radial := a + q*q/2
	return NewStatic(r3.Vec{X: radial, Y: radial, Z: -2 * a}, p.lengthScale(), p.timeScale())
}

func (s *Static) ForceAt(r r3.Vec, _ float64) r3.Vec {
	return r3.Vec{X: -s.K.X * r.X, Y: -s.K.Y * r.Y, Z: -s.K.Z * r.Z}
}

func (s *Static) PotentialAt(r r3.Vec, _ float64) float64 {
	return 0.5 * (s.K.X*r.X*r.X + s.K.Y*r.Y*r.Y + s.K.Z*r.Z*r.Z)
}

func (s *Static) LengthScale() float64 { return s.length }
func (s *Static) TimeScale() float64   { return s.time }
