package ions

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/ccmd/internal/dynamo"
	"github.com/san-kum/ccmd/internal/trap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Population is one entry of the species roster: a type and how many ions of
// it the cloud starts with. A zero count registers the type for later type
// changes without creating ions.
type Population struct {
	Type  *IonType
	Count int
}

// Cloud owns the ordered ion sequence. Its length only changes through
// construction; ChangeIonType replaces ions in place.
type Cloud struct {
	ions  []*Ion
	types map[string]*IonType
	order []string
}

// NewCloud builds the ions of every population, sorts them by ascending mass
// and places them on a cubic lattice centred on the origin.
func NewCloud(roster []Population) (*Cloud, error) {
	c := &Cloud{types: make(map[string]*IonType)}

	total := 0
	for _, p := range roster {
		if err := p.Type.Validate(); err != nil {
			return nil, err
		}
		if p.Count < 0 {
			return nil, fmt.Errorf("%w: negative ion count for %q", dynamo.ErrConfiguration, p.Type.Name)
		}
		if _, dup := c.types[p.Type.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate ion type %q", dynamo.ErrConfiguration, p.Type.Name)
		}
		c.types[p.Type.Name] = p.Type
		c.order = append(c.order, p.Type.Name)
		total += p.Count
	}

	c.ions = make([]*Ion, 0, total)
	for _, p := range roster {
		for i := 0; i < p.Count; i++ {
			ion, err := New(p.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", dynamo.ErrAllocation, err)
			}
			c.ions = append(c.ions, ion)
		}
	}

	sort.SliceStable(c.ions, func(i, j int) bool {
		return c.ions[i].mass < c.ions[j].mass
	})

	for i, r := range Lattice(len(c.ions)) {
		c.ions[i].SetPosition(r)
	}
	c.MoveCentre(r3.Scale(-1, c.Centre()))

	return c, nil
}

// Lattice returns n distinct sites of a cubic grid with spacing 2 and side
// ceil(n^(1/3)), taking the first n in lexicographic (x, y, z) order.
func Lattice(n int) []r3.Vec {
	if n <= 0 {
		return nil
	}
	side := 1
	for side*side*side < n {
		side++
	}

	const spacing = 2.0
	offset := 0.5 * spacing * float64(side-1)
	sites := make([]r3.Vec, 0, side*side*side)
	for i := 0; i < side*side*side; i++ {
		sites = append(sites, r3.Vec{
			X: spacing*float64(i%side) - offset,
			Y: spacing*float64((i/side)%side) - offset,
			Z: spacing*float64(i/(side*side)) - offset,
		})
	}

	sort.Slice(sites, func(i, j int) bool {
		a, b := sites[i], sites[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return sites[:n]
}

func (c *Cloud) Len() int { return len(c.ions) }

// Ions returns the ion sequence. Callers must not reorder or resize it.
func (c *Cloud) Ions() []*Ion { return c.ions }

func (c *Cloud) Ion(i int) (*Ion, error) {
	if i < 0 || i >= len(c.ions) {
		return nil, fmt.Errorf("%w: %d (cloud has %d ions)", dynamo.ErrInvalidIndex, i, len(c.ions))
	}
	return c.ions[i], nil
}

func (c *Cloud) Position(i int) (r3.Vec, error) {
	ion, err := c.Ion(i)
	if err != nil {
		return r3.Vec{}, err
	}
	return ion.Position(), nil
}

func (c *Cloud) Velocity(i int) (r3.Vec, error) {
	ion, err := c.Ion(i)
	if err != nil {
		return r3.Vec{}, err
	}
	return ion.Velocity(), nil
}

func (c *Cloud) SetPosition(i int, r r3.Vec) error {
	ion, err := c.Ion(i)
	if err != nil {
		return err
	}
	ion.SetPosition(r)
	return nil
}

func (c *Cloud) SetVelocity(i int, v r3.Vec) error {
	ion, err := c.Ion(i)
	if err != nil {
		return err
	}
	ion.SetVelocity(v)
	return nil
}

// Type looks up a registered species by name.
func (c *Cloud) Type(name string) (*IonType, bool) {
	t, ok := c.types[name]
	return t, ok
}

// Types returns the registered species in roster order.
func (c *Cloud) Types() []*IonType {
	out := make([]*IonType, len(c.order))
	for i, name := range c.order {
		out[i] = c.types[name]
	}
	return out
}

// Count returns the number of ions currently of the named species.
func (c *Cloud) Count(name string) int {
	n := 0
	for _, ion := range c.ions {
		if ion.typ.Name == name {
			n++
		}
	}
	return n
}

// Snapshot copies positions and charges into the given buffers, which must
// have length Len().
func (c *Cloud) Snapshot(pos []r3.Vec, charge []float64) {
	for i, ion := range c.ions {
		pos[i] = ion.pos
		charge[i] = ion.charge
	}
}

// Centre returns the unweighted geometric centre.
func (c *Cloud) Centre() r3.Vec {
	var centre r3.Vec
	if len(c.ions) == 0 {
		return centre
	}
	for _, ion := range c.ions {
		centre = r3.Add(centre, ion.pos)
	}
	return r3.Scale(1/float64(len(c.ions)), centre)
}

func (c *Cloud) MoveCentre(d r3.Vec) {
	for _, ion := range c.ions {
		ion.Move(d)
	}
}

func (c *Cloud) Drift(dt float64) {
	for _, ion := range c.ions {
		ion.Drift(dt)
	}
}

// Kick applies forces[i] to ion i over dt.
func (c *Cloud) Kick(dt float64, forces []r3.Vec) {
	for i, ion := range c.ions {
		ion.Kick(dt, forces[i])
	}
}

func (c *Cloud) KickTrap(dt float64, tr trap.Trap, t float64) {
	for _, ion := range c.ions {
		ion.KickTrap(dt, tr, t)
	}
}

func (c *Cloud) VelocityScale(dt float64) {
	for _, ion := range c.ions {
		ion.VelocityScale(dt)
	}
}

func (c *Cloud) Heat(dt float64, rng Sampler) {
	for _, ion := range c.ions {
		ion.Heat(dt, rng)
	}
}

func (c *Cloud) UpdateStats() {
	for _, ion := range c.ions {
		ion.UpdateStats()
	}
}

func (c *Cloud) KineticEnergy() float64 {
	e := 0.0
	for _, ion := range c.ions {
		e += ion.KineticEnergy()
	}
	return e
}

// AspectRatio is the axial extent over the larger radial extent, zero when
// every ion sits on the axis.
func (c *Cloud) AspectRatio() float64 {
	var xMax, yMax, zMax float64
	for _, ion := range c.ions {
		xMax = math.Max(xMax, math.Abs(ion.pos.X))
		yMax = math.Max(yMax, math.Abs(ion.pos.Y))
		zMax = math.Max(zMax, math.Abs(ion.pos.Z))
	}
	radial := math.Max(xMax, yMax)
	if radial == 0 {
		return 0
	}
	return zMax / radial
}

// Validate returns ErrNumericalDegeneracy for the first ion whose state is no
// longer finite.
func (c *Cloud) Validate() error {
	for i, ion := range c.ions {
		if !ion.Finite() {
			return fmt.Errorf("%w: ion %d (%s) has non-finite state pos=%v vel=%v",
				dynamo.ErrNumericalDegeneracy, i, ion.Name(), ion.pos, ion.vel)
		}
	}
	return nil
}
