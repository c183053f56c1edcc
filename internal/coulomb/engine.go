package coulomb

import (
	"fmt"
	"math"

	"github.com/san-kum/ccmd/internal/dynamo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Source provides the ion configuration the engine reads.
type Source interface {
	Len() int
	Snapshot(pos []r3.Vec, charge []float64)
}

type Engine struct {
	src     Source
	k       float64
	limit   int
	log     *zap.Logger
	pos     []r3.Vec
	charge  []float64
	force   []r3.Vec
	spans   []dynamo.Span
	private [][]r3.Vec
	pool    *pool
}

type Option func(*Engine)

// WithWorkers caps the number of workers. One forces the serial path.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.limit = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an engine with Coulomb constant k for the ions of src. The
// worker pool is started here and lives until Close.
func New(src Source, k float64, opts ...Option) *Engine {
	e := &Engine{src: src, k: k, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.resize(src.Len())

	workers := len(e.spans)
	if workers > 1 {
		e.pool = newPool(workers)
	}
	e.log.Debug("coulomb engine ready",
		zap.Int("ions", src.Len()),
		zap.Int("workers", workers),
		zap.Float64("k", k))
	return e
}

func (e *Engine) resize(n int) {
	e.pos = make([]r3.Vec, n)
	e.charge = make([]float64, n)
	e.force = make([]r3.Vec, n)
	e.spans = dynamo.Partition(n, dynamo.Workers(n, e.limit))
	e.private = make([][]r3.Vec, len(e.spans))
	for w := range e.private {
		e.private[w] = make([]r3.Vec, n)
	}
}

// Workers reports how many slices each update is split into.
func (e *Engine) Workers() int { return len(e.spans) }

// Update recomputes the force buffer from a fresh snapshot of the source.
// On error the previous buffer is left in place and must not be used.
func (e *Engine) Update() error {
	n := e.src.Len()
	if n != len(e.pos) {
		e.resize(n)
		if e.pool != nil && len(e.spans) > e.pool.size {
			e.pool.close()
			e.pool = newPool(len(e.spans))
		}
	}
	e.src.Snapshot(e.pos, e.charge)

	if n == 0 {
		return nil
	}
	if e.pool == nil || len(e.spans) < 2 {
		buf := e.private[0]
		clear(buf)
		if err := accumulate(e.k, e.pos, e.charge, dynamo.Span{Start: 0, End: n}, buf); err != nil {
			return err
		}
		copy(e.force, buf)
		return nil
	}

	if err := e.pool.run(e.k, e.pos, e.charge, e.spans, e.private); err != nil {
		return err
	}

	clear(e.force)
	for _, buf := range e.private {
		for i := range e.force {
			e.force[i] = r3.Add(e.force[i], buf[i])
		}
	}
	return nil
}

// Forces returns the force buffer, valid until the next Update.
func (e *Engine) Forces() []r3.Vec { return e.force }

// Force returns the force on ion i.
func (e *Engine) Force(i int) (r3.Vec, error) {
	if i < 0 || i >= len(e.force) {
		return r3.Vec{}, fmt.Errorf("%w: %d (engine has %d ions)", dynamo.ErrInvalidIndex, i, len(e.force))
	}
	return e.force[i], nil
}

// Close stops the worker pool. Later updates run serially.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.close()
		e.pool = nil
	}
}

// pairForce returns the force on an ion of charge qi at ri due to one of
// charge qj at rj. ok is false when the separation is zero or not finite.
func pairForce(k, qi, qj float64, ri, rj r3.Vec) (f r3.Vec, ok bool) {
	r := r3.Sub(rj, ri)
	d2 := r3.Norm2(r)
	if !(d2 > 0) || math.IsInf(d2, 0) {
		return r3.Vec{}, false
	}
	d := math.Sqrt(d2)
	return r3.Scale(-k*qi*qj/(d2*d), r), true
}

// accumulate adds the contributions of every pair (i, j), i in span, j > i,
// into out.
func accumulate(k float64, pos []r3.Vec, charge []float64, span dynamo.Span, out []r3.Vec) error {
	n := len(pos)
	for i := span.Start; i < span.End; i++ {
		ri, qi := pos[i], charge[i]
		for j := i + 1; j < n; j++ {
			f, ok := pairForce(k, qi, charge[j], ri, pos[j])
			if !ok {
				return &dynamo.CoincidentError{I: i, J: j}
			}
			out[i] = r3.Add(out[i], f)
			out[j] = r3.Sub(out[j], f)
		}
	}
	return nil
}

// Potential returns the Coulomb potential energy Σ k·qi·qj/d of the source.
func Potential(src Source, k float64) (float64, error) {
	n := src.Len()
	pos := make([]r3.Vec, n)
	charge := make([]float64, n)
	src.Snapshot(pos, charge)

	e := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := r3.Norm(r3.Sub(pos[j], pos[i]))
			if !(d > 0) || math.IsInf(d, 0) {
				return 0, &dynamo.CoincidentError{I: i, J: j}
			}
			e += k * charge[i] * charge[j] / d
		}
	}
	return e, nil
}
