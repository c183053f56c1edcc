package stats

import "gonum.org/v1/gonum/spatial/r3"

// Running accumulates the mean and variance of a stream of vectors using
// Welford's update. The zero value is an empty accumulator.
type Running struct {
	n    int
	mean r3.Vec
	m2   r3.Vec
}

func (s *Running) Append(v r3.Vec) {
	s.n++
	delta := r3.Sub(v, s.mean)
	s.mean = r3.Add(s.mean, r3.Scale(1/float64(s.n), delta))
	delta2 := r3.Sub(v, s.mean)
	s.m2 = r3.Add(s.m2, r3.Vec{X: delta.X * delta2.X, Y: delta.Y * delta2.Y, Z: delta.Z * delta2.Z})
}

func (s Running) Count() int { return s.n }

func (s Running) Mean() r3.Vec { return s.mean }

// Variance returns the population variance per axis, zero for fewer than two
// samples.
func (s Running) Variance() r3.Vec {
	if s.n < 2 {
		return r3.Vec{}
	}
	return r3.Scale(1/float64(s.n), s.m2)
}

func (s *Running) Reset() { *s = Running{} }
