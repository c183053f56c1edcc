package metrics

import (
	"math"

	"github.com/san-kum/ccmd/internal/coulomb"
	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/trap"
)

// Energy is the decomposed energy of a cloud in reduced units.
type Energy struct {
	Kinetic float64
	Coulomb float64
	Trap    float64 // zero when the trap does not report a potential
	Total   float64
}

// CloudEnergy measures c at time t. tr may be nil or a trap without a
// potential, in which case only the kinetic and Coulomb terms are summed.
func CloudEnergy(c *ions.Cloud, tr trap.Trap, k float64, t float64) (Energy, error) {
	pe, err := coulomb.Potential(c, k)
	if err != nil {
		return Energy{}, err
	}
	e := Energy{Kinetic: c.KineticEnergy(), Coulomb: pe}
	if p, ok := tr.(trap.Potential); ok {
		for _, ion := range c.Ions() {
			e.Trap += ion.Charge() * p.PotentialAt(ion.Position(), t)
		}
	}
	e.Total = e.Kinetic + e.Coulomb + e.Trap
	return e, nil
}

// MeanKinetic averages the cloud kinetic energy over observations.
type MeanKinetic struct {
	name    string
	total   float64
	samples int
}

func NewMeanKinetic() *MeanKinetic {
	return &MeanKinetic{name: "mean_kinetic"}
}

func (m *MeanKinetic) Name() string { return m.name }

func (m *MeanKinetic) Observe(c *ions.Cloud, _ float64) {
	m.total += c.KineticEnergy()
	m.samples++
}

func (m *MeanKinetic) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanKinetic) Reset() {
	m.total = 0
	m.samples = 0
}

// EnergyDrift tracks the largest relative deviation of the total energy from
// its first observed value. Only meaningful for closed systems: static trap,
// no cooling or heating.
type EnergyDrift struct {
	name          string
	trap          trap.Trap
	k             float64
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(tr trap.Trap, k float64) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", trap: tr, k: k}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(c *ions.Cloud, t float64) {
	en, err := CloudEnergy(c, e.trap, e.k, t)
	if err != nil {
		return
	}
	e.Add(en.Total)
}

// Add records an already measured total energy.
func (e *EnergyDrift) Add(energy float64) {
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Current() float64 { return e.currentEnergy }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
