package metrics

import "github.com/san-kum/ccmd/internal/ions"

// Metric accumulates a scalar over the observed states of a run.
type Metric interface {
	Name() string
	Observe(c *ions.Cloud, t float64)
	Value() float64
	Reset()
}
