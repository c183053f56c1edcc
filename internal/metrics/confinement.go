package metrics

import (
	"github.com/san-kum/ccmd/internal/ions"
	"gonum.org/v1/gonum/spatial/r3"
)

// Confinement is the fraction of observations in which every ion stayed
// within radius of the trap centre.
type Confinement struct {
	name       string
	radius     float64
	violations int
	samples    int
}

func NewConfinement(radius float64) *Confinement {
	return &Confinement{name: "confinement", radius: radius}
}

func (s *Confinement) Name() string { return s.name }

func (s *Confinement) Observe(c *ions.Cloud, _ float64) {
	s.samples++
	r2 := s.radius * s.radius
	for _, ion := range c.Ions() {
		if r3.Norm2(ion.Position()) > r2 {
			s.violations++
			break
		}
	}
}

func (s *Confinement) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Confinement) Reset() {
	s.violations = 0
	s.samples = 0
}
