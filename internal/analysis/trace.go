package analysis

import "github.com/san-kum/ccmd/internal/sim"

// KineticTrace is a run observer that keeps the cloud kinetic energy of
// every step of one phase, up to a limit.
type KineticTrace struct {
	phase   string
	limit   int
	samples []float64
}

func NewKineticTrace(phase string, limit int) *KineticTrace {
	return &KineticTrace{phase: phase, limit: limit}
}

func (t *KineticTrace) OnStep(p sim.Progress) {
	if p.Phase != t.phase || len(t.samples) >= t.limit {
		return
	}
	t.samples = append(t.samples, p.Kinetic)
}

func (t *KineticTrace) Samples() []float64 { return t.samples }
