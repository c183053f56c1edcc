package export

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/san-kum/ccmd/internal/stats"
	"gonum.org/v1/gonum/floats"
)

// Microscope describes the imaging optics in histogram bins. W0 is the beam
// waist at the focal plane and Z0 the depth over which the blur doubles.
type Microscope struct {
	Rows, Cols int
	W0, Z0     float64
}

// MicroscopeImage renders the histogram of one species as seen through a
// microscope focused on the trap axis. Every plane along the line of sight is
// Gaussian blurred by its distance from focus and the planes are summed. The
// image is normalised so the brightest pixel is white.
func MicroscopeImage(h *stats.PositionHistogram, name string, m Microscope) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Cols, m.Rows))
	lo, hi, ok := h.Depth(name)
	if !ok || m.Rows < 1 || m.Cols < 1 {
		return img
	}

	acc := make([]float64, m.Rows*m.Cols)
	plane := make([]float64, m.Rows*m.Cols)
	scratch := make([]float64, m.Rows*m.Cols)
	for x := lo; x <= hi; x++ {
		pixels := h.Plane(name, x)
		if len(pixels) == 0 {
			continue
		}
		for i := range plane {
			plane[i] = 0
		}
		for _, p := range pixels {
			r, c := p.Row+m.Rows/2, p.Col+m.Cols/2
			if r < 0 || r >= m.Rows || c < 0 || c >= m.Cols {
				continue
			}
			plane[r*m.Cols+c] += float64(p.Count)
		}

		dz := math.Abs(float64(x))
		sigma := m.W0 / math.Sqrt2 * (1 + dz/m.Z0)
		blur(plane, scratch, m.Rows, m.Cols, gaussKernel(sigma))
		floats.Add(acc, plane)
	}

	peak := floats.Max(acc)
	if peak <= 0 {
		return img
	}
	floats.Scale(255/peak, acc)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			img.SetGray(c, r, color.Gray{Y: uint8(math.Round(acc[r*m.Cols+c]))})
		}
	}
	return img
}

// MicroscopePNG writes MicroscopeImage as a PNG.
func MicroscopePNG(w io.Writer, h *stats.PositionHistogram, name string, m Microscope) error {
	return png.Encode(w, MicroscopeImage(h, name, m))
}

// gaussKernel is a normalised kernel reaching three standard deviations.
func gaussKernel(sigma float64) []float64 {
	if !(sigma > 0) {
		return []float64{1}
	}
	half := int(math.Ceil(3 * sigma))
	k := make([]float64, 2*half+1)
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// blur convolves grid with k along rows and then columns, in place. Pixels
// beyond the border count as dark.
func blur(grid, scratch []float64, rows, cols int, k []float64) {
	half := len(k) / 2
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			sum := 0.0
			for i, w := range k {
				cc := c + i - half
				if cc >= 0 && cc < cols {
					sum += w * grid[r*cols+cc]
				}
			}
			scratch[r*cols+c] = sum
		}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			sum := 0.0
			for i, w := range k {
				rr := r + i - half
				if rr >= 0 && rr < rows {
					sum += w * scratch[rr*cols+c]
				}
			}
			grid[r*cols+c] = sum
		}
	}
}
