package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// EnergyHistogram bins kinetic energies per species with a fixed bin width.
// It satisfies dynamo.Sink; position records are ignored.
type EnergyHistogram struct {
	binWidth float64
	bins     map[string]map[int]int
}

func NewEnergyHistogram(binWidth float64) *EnergyHistogram {
	if binWidth <= 0 {
		binWidth = 1
	}
	return &EnergyHistogram{
		binWidth: binWidth,
		bins:     make(map[string]map[int]int),
	}
}

func (h *EnergyHistogram) Record(string, r3.Vec) {}

func (h *EnergyHistogram) RecordEnergy(name string, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	species, ok := h.bins[name]
	if !ok {
		species = make(map[int]int)
		h.bins[name] = species
	}
	species[int(math.Floor(value/h.binWidth))]++
}

func (h *EnergyHistogram) BinWidth() float64 { return h.binWidth }

// Species returns the recorded species names in sorted order.
func (h *EnergyHistogram) Species() []string {
	names := make([]string, 0, len(h.bins))
	for name := range h.bins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bin is one histogram row: the lower edge of the bin and its count.
type Bin struct {
	Lower float64
	Count int
}

// Bins returns the non-empty bins of a species in ascending order.
func (h *EnergyHistogram) Bins(name string) []Bin {
	species := h.bins[name]
	keys := make([]int, 0, len(species))
	for k := range species {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]Bin, len(keys))
	for i, k := range keys {
		out[i] = Bin{Lower: float64(k) * h.binWidth, Count: species[k]}
	}
	return out
}

func (h *EnergyHistogram) Total(name string) int {
	total := 0
	for _, c := range h.bins[name] {
		total += c
	}
	return total
}
