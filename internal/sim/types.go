package sim

import (
	"time"

	"github.com/san-kum/ccmd/internal/metrics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Integrator names accepted in Config.
const (
	IntegratorRESPA  = "respa"
	IntegratorVerlet = "verlet"
)

// Phase names reported to observers and in errors.
const (
	PhaseCool = "cool"
	PhaseHist = "hist"
)

// Swap periodically converts the first ion of one species into another.
type Swap struct {
	From  string
	To    string
	Every int // macro steps between changes
}

type Config struct {
	Dt             float64 // macro step in reduced time
	RespaSteps     int
	CoolSteps      int
	HistSteps      int
	StepsPerPeriod int // samples per energy window
	Integrator     string
	CoulombK       float64 // zero means reduced units (1)
	Seed           uint64
	Threads        int // cap on Coulomb workers, zero for all CPUs
	Swap           *Swap
}

// Progress is sent to observers after every macro step.
type Progress struct {
	Phase   string
	Step    int // step within the phase
	Total   int // steps in the phase
	Time    float64
	Kinetic float64
}

type Observer interface {
	OnStep(p Progress)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Progress)

func (f ObserverFunc) OnStep(p Progress) { f(p) }

// SpeciesSummary aggregates the per-ion statistics of one species over the
// histogram phase.
type SpeciesSummary struct {
	Name             string
	Count            int
	MeanKinetic      r3.Vec // ½m⟨v²⟩ per axis
	MeanPosition     r3.Vec
	PositionVariance r3.Vec
}

type Result struct {
	Steps       int
	Time        float64
	MeanKinetic float64 // averaged over the histogram phase
	MeanTotal   float64
	Cooling     []metrics.Window
	Windows     []metrics.Window
	Species     []SpeciesSummary
	Metrics     map[string]float64
	EnergyDrift float64 // largest relative deviation from the initial total
	AspectRatio float64 // of the final cloud
	Swaps       int
	Elapsed     time.Duration
}
