package ions

import (
	"fmt"

	"github.com/san-kum/ccmd/internal/dynamo"
)

// ChangeIonType replaces the first ion of type from with a new ion of type
// to at the same position and velocity. The replacement starts with empty
// statistics. It returns the index of the replaced ion, or -1 if no ion of
// type from is present, in which case the cloud is unchanged.
func (c *Cloud) ChangeIonType(from, to *IonType) (int, error) {
	idx := -1
	for i, ion := range c.ions {
		if ion.typ == from {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, nil
	}

	replacement, err := New(to)
	if err != nil {
		return -1, fmt.Errorf("%w: %v", dynamo.ErrAllocation, err)
	}
	old := c.ions[idx]
	replacement.SetPosition(old.pos)
	replacement.SetVelocity(old.vel)
	c.ions[idx] = replacement

	if _, ok := c.types[to.Name]; !ok {
		c.types[to.Name] = to
		c.order = append(c.order, to.Name)
	}
	return idx, nil
}

// ChangeIonTypeByName resolves both species in the cloud's roster before
// calling ChangeIonType.
func (c *Cloud) ChangeIonTypeByName(from, to string) (int, error) {
	typeFrom, ok := c.types[from]
	if !ok {
		return -1, fmt.Errorf("%w: unknown ion type %q", dynamo.ErrConfiguration, from)
	}
	typeTo, ok := c.types[to]
	if !ok {
		return -1, fmt.Errorf("%w: unknown ion type %q", dynamo.ErrConfiguration, to)
	}
	return c.ChangeIonType(typeFrom, typeTo)
}
