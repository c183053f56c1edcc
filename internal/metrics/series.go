package metrics

import "gonum.org/v1/gonum/floats"

// Window is the mean and population variance of one block of samples.
type Window struct {
	Mean     float64
	Variance float64
	Samples  int
}

// EnergySeries groups a scalar time series into fixed-size windows, one per
// RF period in the run loop.
type EnergySeries struct {
	size    int
	buf     []float64
	windows []Window
}

func NewEnergySeries(size int) *EnergySeries {
	if size < 1 {
		size = 1
	}
	return &EnergySeries{size: size, buf: make([]float64, 0, size)}
}

// Add appends a sample and closes the window when it is full.
func (s *EnergySeries) Add(v float64) {
	s.buf = append(s.buf, v)
	if len(s.buf) == s.size {
		s.Flush()
	}
}

// Flush closes a partially filled window. It is a no-op when the current
// window is empty.
func (s *EnergySeries) Flush() {
	n := len(s.buf)
	if n == 0 {
		return
	}
	mean := floats.Sum(s.buf) / float64(n)
	floats.AddConst(-mean, s.buf)
	variance := floats.Dot(s.buf, s.buf) / float64(n)
	s.windows = append(s.windows, Window{Mean: mean, Variance: variance, Samples: n})
	s.buf = s.buf[:0]
}

func (s *EnergySeries) Windows() []Window { return s.windows }
