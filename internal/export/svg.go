package export

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/san-kum/ccmd/internal/ions"
)

var palette = []string{"#00ff9c", "#ff5f87", "#5fafff", "#ffd75f", "#d787ff", "#87ffff"}

// CrystalSVG draws the ion positions projected onto the x-z plane, the trap
// axis running horizontally, one colour per species. Scale is pixels per
// reduced length unit; zero fits the cloud to the image.
func CrystalSVG(w io.Writer, c *ions.Cloud, width, height int, scale float64) error {
	colour := make(map[string]string)
	for i, typ := range c.Types() {
		colour[typ.Name] = palette[i%len(palette)]
	}

	if scale <= 0 {
		var zMax, xMax float64
		for _, ion := range c.Ions() {
			r := ion.Position()
			zMax = math.Max(zMax, math.Abs(r.Z))
			xMax = math.Max(xMax, math.Abs(r.X))
		}
		// 10% margin on each side
		sz, sx := math.Inf(1), math.Inf(1)
		if zMax > 0 {
			sz = 0.4 * float64(width) / zMax
		}
		if xMax > 0 {
			sx = 0.4 * float64(height) / xMax
		}
		scale = math.Min(sz, sx)
		if math.IsInf(scale, 1) {
			scale = 1
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	cx, cy := float64(width)/2, float64(height)/2
	radius := math.Max(1.5, 0.15*scale)
	for _, ion := range c.Ions() {
		r := ion.Position()
		fmt.Fprintf(bw, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"><title>%s</title></circle>
`, cx+r.Z*scale, cy-r.X*scale, radius, colour[ion.Name()], ion.Name())
	}

	y := 16
	for _, typ := range c.Types() {
		if c.Count(typ.Name) == 0 {
			continue
		}
		fmt.Fprintf(bw, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s × %d</text>
`, y, colour[typ.Name], typ.Name, c.Count(typ.Name))
		y += 14
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}
