package sim

import (
	"context"

	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/trap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Ensemble repeats one configuration with consecutive seeds. Each member
// builds its own cloud and engine. The trap and the ion types are read-only
// and shared.
type Ensemble struct {
	trap      trap.Trap
	roster    []ions.Population
	cfg       Config
	numRuns   int
	seedStart uint64
	log       *zap.Logger
}

func NewEnsemble(tr trap.Trap, roster []ions.Population, cfg Config, numRuns int, log *zap.Logger) *Ensemble {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ensemble{trap: tr, roster: roster, cfg: cfg, numRuns: numRuns, seedStart: cfg.Seed, log: log}
}

// Run executes the members concurrently. The first failure cancels the
// others and is returned.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			cfg := e.cfg
			cfg.Seed = e.seedStart + uint64(idx)
			log := e.log.With(zap.Int("member", idx), zap.Uint64("seed", cfg.Seed))

			s, err := New(e.trap, e.roster, cfg, WithLogger(log))
			if err != nil {
				return err
			}
			defer s.Close()

			results[idx], err = s.Run(ctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
