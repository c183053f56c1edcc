package coulomb

import (
	"sync"

	"github.com/san-kum/ccmd/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

type job struct {
	k      float64
	pos    []r3.Vec
	charge []float64
	span   dynamo.Span
	out    []r3.Vec
	slot   int
}

type result struct {
	slot int
	err  error
}

// pool is a fixed set of goroutines started once and fed one job per span on
// every update.
type pool struct {
	size    int
	jobs    chan job
	results chan result
	wg      sync.WaitGroup
}

func newPool(size int) *pool {
	p := &pool{
		size:    size,
		jobs:    make(chan job, size),
		results: make(chan result, size),
	}
	p.wg.Add(size)
	for w := 0; w < size; w++ {
		go p.work()
	}
	return p
}

func (p *pool) work() {
	defer p.wg.Done()
	for j := range p.jobs {
		clear(j.out)
		p.results <- result{slot: j.slot, err: accumulate(j.k, j.pos, j.charge, j.span, j.out)}
	}
}

// run blocks until every span has been processed and returns the error of
// the lowest failing span, if any.
func (p *pool) run(k float64, pos []r3.Vec, charge []float64, spans []dynamo.Span, private [][]r3.Vec) error {
	for w, span := range spans {
		p.jobs <- job{k: k, pos: pos, charge: charge, span: span, out: private[w], slot: w}
	}

	var firstErr error
	firstSlot := len(spans)
	for range spans {
		res := <-p.results
		if res.err != nil && res.slot < firstSlot {
			firstErr, firstSlot = res.err, res.slot
		}
	}
	return firstErr
}

func (p *pool) close() {
	close(p.jobs)
	p.wg.Wait()
}
