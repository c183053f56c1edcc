package ions

import (
	"math"
	"testing"

	"github.com/san-kum/ccmd/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	calcium = &IonType{Name: "Ca+", Formula: "Ca", Mass: 40, Charge: 1, Beta: 0.6, Direction: 1, LaserCooled: true}
	xenon   = &IonType{Name: "Xe+", Formula: "Xe", Mass: 131, Charge: 1}
	neon    = &IonType{Name: "Ne+", Formula: "Ne", Mass: 20, Charge: 1}
)

type constantTrap struct{ f r3.Vec }

func (c constantTrap) ForceAt(r3.Vec, float64) r3.Vec { return c.f }
func (c constantTrap) LengthScale() float64         { return 1 }
func (c constantTrap) TimeScale() float64           { return 1 }

type fixedSampler float64

func (f fixedSampler) Rand() float64 { return float64(f) }

func TestIonType_Validate(t *testing.T) {
	tests := []struct {
		name string
		typ  *IonType
		ok   bool
	}{
		{"valid", calcium, true},
		{"nil", nil, false},
		{"no name", &IonType{Mass: 1}, false},
		{"zero mass", &IonType{Name: "x"}, false},
		{"negative beta", &IonType{Name: "x", Mass: 1, Beta: -1}, false},
		{"negative direction", &IonType{Name: "x", Mass: 1, Direction: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, dynamo.ErrConfiguration)
			}
		})
	}
}

func TestNew_Kind(t *testing.T) {
	ca, err := New(calcium)
	require.NoError(t, err)
	assert.Equal(t, LaserCooled, ca.Kind())
	assert.Equal(t, 40.0, ca.Mass())
	assert.Equal(t, 1.0, ca.Charge())

	xe, err := New(xenon)
	require.NoError(t, err)
	assert.Equal(t, Trapped, xe.Kind())
}

func TestDrift_Reversible(t *testing.T) {
	ion, err := New(xenon)
	require.NoError(t, err)

	start := r3.Vec{X: 0.3, Y: -1.7, Z: 2.2}
	ion.SetPosition(start)
	ion.SetVelocity(r3.Vec{X: 1.5, Y: 0.25, Z: -3})

	ion.Drift(0.013)
	ion.Drift(-0.013)

	got := ion.Position()
	assert.InDelta(t, start.X, got.X, 1e-14)
	assert.InDelta(t, start.Y, got.Y, 1e-14)
	assert.InDelta(t, start.Z, got.Z, 1e-14)
}

func TestDrift_AtRest(t *testing.T) {
	ion, err := New(xenon)
	require.NoError(t, err)
	start := r3.Vec{X: 1, Y: 2, Z: 3}
	ion.SetPosition(start)

	ion.Drift(0.5)
	ion.Drift(-0.5)
	assert.Equal(t, start, ion.Position())
}

func TestKick(t *testing.T) {
	ion, err := New(neon)
	require.NoError(t, err)

	ion.Kick(0.5, r3.Vec{X: 40, Y: -20})
	v := ion.Velocity()
	assert.InDelta(t, 1.0, v.X, 1e-15)
	assert.InDelta(t, -0.5, v.Y, 1e-15)
	assert.Zero(t, v.Z)
}

func TestKickTrap_ScalesByChargeOverMass(t *testing.T) {
	doubly := &IonType{Name: "Ca2+", Mass: 40, Charge: 2}
	ion, err := New(doubly)
	require.NoError(t, err)

	ion.KickTrap(1, constantTrap{f: r3.Vec{Z: 20}}, 0)
	assert.InDelta(t, 1.0, ion.Velocity().Z, 1e-15)
}

func TestVelocityScale(t *testing.T) {
	ca, err := New(calcium)
	require.NoError(t, err)
	ca.SetVelocity(r3.Vec{X: 1, Y: -1, Z: 2})
	ca.VelocityScale(0.1)

	want := 1 - 0.6*0.1
	v := ca.Velocity()
	assert.InDelta(t, want, v.X, 1e-15)
	assert.InDelta(t, -want, v.Y, 1e-15)
	assert.InDelta(t, 2*want, v.Z, 1e-15)

	xe, err := New(xenon)
	require.NoError(t, err)
	xe.SetVelocity(r3.Vec{X: 1})
	xe.VelocityScale(0.1)
	assert.Equal(t, r3.Vec{X: 1}, xe.Velocity(), "trapped ions are not cooled")
}

func TestVelocityScale_Asymmetric(t *testing.T) {
	oneSided := &IonType{Name: "Be+", Mass: 9, Charge: 1, Beta: 1, Direction: 0, LaserCooled: true}
	ion, err := New(oneSided)
	require.NoError(t, err)

	ion.SetVelocity(r3.Vec{X: 1, Y: -1})
	ion.VelocityScale(0.1)

	v := ion.Velocity()
	assert.InDelta(t, 0.8, v.X, 1e-15, "right beam carries twice the intensity")
	assert.Equal(t, -1.0, v.Y, "no left beam, no damping of negative motion")
}

func TestHeat(t *testing.T) {
	heated := &IonType{Name: "Mg+", Mass: 24, Charge: 1, Recoil: 48, Direction: 1, LaserCooled: true, Heated: true}
	ion, err := New(heated)
	require.NoError(t, err)

	ion.Heat(0.25, fixedSampler(1))
	assert.Equal(t, r3.Vec{X: 1, Y: 1, Z: 1}, ion.Velocity())

	cooledOnly, err := New(calcium)
	require.NoError(t, err)
	cooledOnly.Heat(0.25, fixedSampler(1))
	assert.Equal(t, r3.Vec{}, cooledOnly.Velocity())
}

func TestLattice(t *testing.T) {
	for _, n := range []int{1, 2, 7, 8, 9, 27, 30, 100} {
		sites := Lattice(n)
		require.Len(t, sites, n)
		seen := make(map[r3.Vec]bool, n)
		for _, s := range sites {
			assert.False(t, seen[s], "n=%d: duplicate site %v", n, s)
			seen[s] = true
		}
	}
	assert.Nil(t, Lattice(0))
}

func TestLattice_Order(t *testing.T) {
	sites := Lattice(10)
	want := []r3.Vec{
		{X: -2, Y: -2, Z: -2},
		{X: -2, Y: -2, Z: 0},
		{X: -2, Y: -2, Z: 2},
		{X: -2, Y: 0, Z: -2},
	}
	assert.Equal(t, want, sites[:4])
	assert.Equal(t, r3.Vec{X: 0, Y: -2, Z: -2}, sites[9])
}

func TestNewCloud_CubeCorners(t *testing.T) {
	cloud, err := NewCloud([]Population{{Type: xenon, Count: 8}})
	require.NoError(t, err)
	require.Equal(t, 8, cloud.Len())

	corners := make(map[r3.Vec]bool)
	for _, ion := range cloud.Ions() {
		p := ion.Position()
		for _, c := range []float64{p.X, p.Y, p.Z} {
			assert.InDelta(t, 1.0, abs(c), 1e-12)
		}
		corners[p] = true
	}
	assert.Len(t, corners, 8)

	centre := cloud.Centre()
	assert.InDelta(t, 0, r3.Norm(centre), 1e-12)
}

func TestNewCloud_SortedByMass(t *testing.T) {
	cloud, err := NewCloud([]Population{
		{Type: xenon, Count: 3},
		{Type: calcium, Count: 4},
		{Type: neon, Count: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 9, cloud.Len())

	for i := 1; i < cloud.Len(); i++ {
		assert.LessOrEqual(t, cloud.Ions()[i-1].Mass(), cloud.Ions()[i].Mass())
	}
	assert.InDelta(t, 0, r3.Norm(cloud.Centre()), 1e-12)
}

func TestCloud_AspectRatio(t *testing.T) {
	cloud, err := NewCloud([]Population{{Type: xenon, Count: 3}})
	require.NoError(t, err)
	for i, r := range []r3.Vec{{X: 1, Z: 4}, {Y: -2, Z: -6}, {}} {
		require.NoError(t, cloud.SetPosition(i, r))
	}
	assert.InDelta(t, 3.0, cloud.AspectRatio(), 1e-12)

	for i := 0; i < 3; i++ {
		require.NoError(t, cloud.SetPosition(i, r3.Vec{Z: float64(i)}))
	}
	assert.Zero(t, cloud.AspectRatio())
}

func TestNewCloud_Errors(t *testing.T) {
	_, err := NewCloud([]Population{{Type: xenon, Count: 1}, {Type: xenon, Count: 2}})
	assert.ErrorIs(t, err, dynamo.ErrConfiguration)

	_, err = NewCloud([]Population{{Type: xenon, Count: -1}})
	assert.ErrorIs(t, err, dynamo.ErrConfiguration)
}

func TestCloud_InvalidIndex(t *testing.T) {
	cloud, err := NewCloud([]Population{{Type: xenon, Count: 2}})
	require.NoError(t, err)

	_, err = cloud.Position(2)
	assert.ErrorIs(t, err, dynamo.ErrInvalidIndex)
	_, err = cloud.Velocity(-1)
	assert.ErrorIs(t, err, dynamo.ErrInvalidIndex)
	assert.ErrorIs(t, cloud.SetPosition(5, r3.Vec{}), dynamo.ErrInvalidIndex)
	assert.NoError(t, cloud.SetVelocity(1, r3.Vec{X: 1}))
}

func TestChangeIonType(t *testing.T) {
	cloud, err := NewCloud([]Population{
		{Type: calcium, Count: 3},
		{Type: xenon, Count: 0},
	})
	require.NoError(t, err)

	target, err := cloud.Ion(0)
	require.NoError(t, err)
	target.SetVelocity(r3.Vec{X: 0.5})
	target.UpdateStats()
	pos, vel := target.Position(), target.Velocity()

	idx, err := cloud.ChangeIonTypeByName("Ca+", "Xe+")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 3, cloud.Len())

	changed, err := cloud.Ion(0)
	require.NoError(t, err)
	assert.Equal(t, "Xe+", changed.Name())
	assert.Equal(t, Trapped, changed.Kind())
	assert.Equal(t, pos, changed.Position())
	assert.Equal(t, vel, changed.Velocity())
	assert.Zero(t, changed.PositionStats().Count())
	assert.Equal(t, 2, cloud.Count("Ca+"))
}

func TestChangeIonType_AbsentSpecies(t *testing.T) {
	cloud, err := NewCloud([]Population{
		{Type: calcium, Count: 2},
		{Type: xenon, Count: 0},
	})
	require.NoError(t, err)

	before := make([]*Ion, cloud.Len())
	copy(before, cloud.Ions())

	idx, err := cloud.ChangeIonTypeByName("Xe+", "Ca+")
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
	assert.Equal(t, before, cloud.Ions())
}

func TestChangeIonType_Failures(t *testing.T) {
	cloud, err := NewCloud([]Population{{Type: calcium, Count: 1}})
	require.NoError(t, err)

	_, err = cloud.ChangeIonTypeByName("Ca+", "Unobtainium")
	assert.ErrorIs(t, err, dynamo.ErrConfiguration)

	idx, err := cloud.ChangeIonType(calcium, &IonType{Name: "broken"})
	assert.ErrorIs(t, err, dynamo.ErrAllocation)
	assert.Equal(t, -1, idx)
	assert.Equal(t, "Ca+", cloud.Ions()[0].Name())
}

func TestCloud_Validate(t *testing.T) {
	cloud, err := NewCloud([]Population{{Type: xenon, Count: 2}})
	require.NoError(t, err)
	assert.NoError(t, cloud.Validate())

	require.NoError(t, cloud.SetVelocity(1, r3.Vec{Y: math.Inf(1)}))
	assert.ErrorIs(t, cloud.Validate(), dynamo.ErrNumericalDegeneracy)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
