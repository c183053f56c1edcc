package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Voxel indexes a cubic bin of a PositionHistogram.
type Voxel struct {
	X, Y, Z int
}

// Pixel is one occupied bin of a histogram plane.
type Pixel struct {
	Row, Col int
	Count    int
}

// PositionHistogram bins ion positions per species on a cubic grid. Positions
// are rotated by 45° about the trap axis first, so the X index runs along the
// line of sight of a camera looking between two rods. It satisfies
// dynamo.Sink; energy records are ignored.
type PositionHistogram struct {
	binSize float64
	counts  map[string]map[Voxel]int
}

// NewPositionHistogram bins with a voxel edge of binSize reduced length units.
func NewPositionHistogram(binSize float64) *PositionHistogram {
	if !(binSize > 0) || math.IsInf(binSize, 0) {
		binSize = 1
	}
	return &PositionHistogram{
		binSize: binSize,
		counts:  make(map[string]map[Voxel]int),
	}
}

func (h *PositionHistogram) Record(name string, pos r3.Vec) {
	rotated := r3.Vec{
		X: (pos.X + pos.Y) / math.Sqrt2,
		Y: (pos.X - pos.Y) / math.Sqrt2,
		Z: pos.Z,
	}
	if math.IsNaN(rotated.X+rotated.Y+rotated.Z) || math.IsInf(rotated.X+rotated.Y+rotated.Z, 0) {
		return
	}
	species, ok := h.counts[name]
	if !ok {
		species = make(map[Voxel]int)
		h.counts[name] = species
	}
	species[Voxel{
		X: int(math.Round(rotated.X / h.binSize)),
		Y: int(math.Round(rotated.Y / h.binSize)),
		Z: int(math.Round(rotated.Z / h.binSize)),
	}]++
}

func (h *PositionHistogram) RecordEnergy(string, float64) {}

func (h *PositionHistogram) BinSize() float64 { return h.binSize }

// Species returns the recorded species names in sorted order.
func (h *PositionHistogram) Species() []string {
	names := make([]string, 0, len(h.counts))
	for name := range h.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *PositionHistogram) Total(name string) int {
	total := 0
	for _, c := range h.counts[name] {
		total += c
	}
	return total
}

// Depth returns the lowest and highest occupied X index of a species. ok is
// false when nothing was recorded.
func (h *PositionHistogram) Depth(name string) (lo, hi int, ok bool) {
	for v := range h.counts[name] {
		if !ok {
			lo, hi, ok = v.X, v.X, true
			continue
		}
		lo = min(lo, v.X)
		hi = max(hi, v.X)
	}
	return lo, hi, ok
}

// Plane returns the occupied bins at depth x, Y as row and Z as column,
// ordered by row then column.
func (h *PositionHistogram) Plane(name string, x int) []Pixel {
	var out []Pixel
	for v, c := range h.counts[name] {
		if v.X == x {
			out = append(out, Pixel{Row: v.Y, Col: v.Z, Count: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}
