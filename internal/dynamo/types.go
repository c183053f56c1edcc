package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Integrator advances every ion in a cloud by one macro time step.
type Integrator interface {
	Evolve(dt float64) error
	Time() float64
}

// Sink receives per-ion observations once per macro step, after integration.
type Sink interface {
	Record(name string, pos r3.Vec)
	RecordEnergy(name string, value float64)
}

// Finite reports whether every component of v is neither NaN nor Inf.
func Finite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
