package integrators_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ccmd/internal/coulomb"
	"github.com/san-kum/ccmd/internal/dynamo"
	"github.com/san-kum/ccmd/internal/integrators"
	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/trap"
	"gonum.org/v1/gonum/spatial/r3"
)

func species(name string, mass float64, charge int) *ions.IonType {
	return &ions.IonType{Name: name, Formula: name, Mass: mass, Charge: charge, Direction: 1}
}

func cooled(name string, mass, beta float64) *ions.IonType {
	t := species(name, mass, 1)
	t.LaserCooled = true
	t.Beta = beta
	return t
}

func newCloud(roster ...ions.Population) *ions.Cloud {
	c, err := ions.NewCloud(roster)
	Expect(err).NotTo(HaveOccurred())
	return c
}

func unitStatic() *trap.Static {
	return trap.NewStatic(r3.Vec{X: 1, Y: 1, Z: 1}, 1, 1)
}

func totalEnergy(c *ions.Cloud, tr *trap.Static) float64 {
	e, err := coulomb.Potential(c, 1)
	Expect(err).NotTo(HaveOccurred())
	for _, ion := range c.Ions() {
		e += ion.KineticEnergy() + ion.Charge()*tr.PotentialAt(ion.Position(), 0)
	}
	return e
}

// countingEngine wraps a force engine and counts evaluations.
type countingEngine struct {
	integrators.ForceEngine
	updates int
}

func (c *countingEngine) Update() error {
	c.updates++
	return c.ForceEngine.Update()
}

// clockTrap records the times at which the field is sampled.
type clockTrap struct {
	trap.Static
	times []float64
}

func (c *clockTrap) ForceAt(r r3.Vec, t float64) r3.Vec {
	c.times = append(c.times, t)
	return c.Static.ForceAt(r, t)
}

var _ = Describe("RESPA", func() {
	var engine *coulomb.Engine

	AfterEach(func() {
		if engine != nil {
			engine.Close()
			engine = nil
		}
	})

	It("rejects fewer than one inner step", func() {
		c := newCloud(ions.Population{Type: species("Ca", 40, 1), Count: 2})
		engine = coulomb.New(c, 1)
		_, err := integrators.NewRESPA(unitStatic(), c, engine, 0)
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
	})

	It("advances time by dt per macro step", func() {
		c := newCloud(ions.Population{Type: species("Ca", 40, 1), Count: 3})
		engine = coulomb.New(c, 1)
		r, err := integrators.NewRESPA(unitStatic(), c, engine, 7)
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 10; i++ {
			Expect(r.Evolve(0.1)).To(Succeed())
		}
		Expect(r.Time()).To(BeNumerically("~", 1.0, 1e-12))
	})

	It("evaluates the Coulomb force twice per macro step", func() {
		c := newCloud(ions.Population{Type: species("Ca", 40, 1), Count: 4})
		engine = coulomb.New(c, 1)
		counter := &countingEngine{ForceEngine: engine}
		r, err := integrators.NewRESPA(unitStatic(), c, counter, 5)
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 3; i++ {
			Expect(r.Evolve(0.01)).To(Succeed())
		}
		Expect(counter.updates).To(Equal(6))
	})

	It("samples the trap at the start and end of every inner step", func() {
		c := newCloud(ions.Population{Type: species("Ca", 40, 1), Count: 1})
		engine = coulomb.New(c, 1)
		tr := &clockTrap{Static: *unitStatic()}
		r, err := integrators.NewRESPA(tr, c, engine, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Evolve(1)).To(Succeed())

		want := []float64{0, 0.25, 0.25, 0.5, 0.5, 0.75, 0.75, 1}
		Expect(tr.times).To(HaveLen(len(want)))
		for i, w := range want {
			Expect(tr.times[i]).To(BeNumerically("~", w, 1e-15))
		}
	})

	It("reduces to velocity Verlet with a single inner step", func() {
		paul := &trap.Cosine{A: -0.01, Q: 0.3}
		roster := []ions.Population{
			{Type: species("Ca", 40, 1), Count: 2},
			{Type: species("Xe", 131, 1), Count: 1},
		}

		a := newCloud(roster...)
		b := newCloud(roster...)
		engA := coulomb.New(a, 1)
		engB := coulomb.New(b, 1)
		defer engA.Close()
		defer engB.Close()

		respa, err := integrators.NewRESPA(paul, a, engA, 1)
		Expect(err).NotTo(HaveOccurred())
		verlet, err := integrators.NewVelocityVerlet(paul, b, engB)
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 500; i++ {
			Expect(respa.Evolve(0.01)).To(Succeed())
			Expect(verlet.Evolve(0.01)).To(Succeed())
		}
		Expect(respa.Time()).To(BeNumerically("~", verlet.Time(), 1e-12))
		for i := 0; i < a.Len(); i++ {
			pa, _ := a.Position(i)
			pb, _ := b.Position(i)
			Expect(r3.Norm(r3.Sub(pa, pb))).To(BeNumerically("<", 1e-8))
			va, _ := a.Velocity(i)
			vb, _ := b.Velocity(i)
			Expect(r3.Norm(r3.Sub(va, vb))).To(BeNumerically("<", 1e-8))
		}
	})

	It("keeps the energy of a conservative system bounded", func() {
		c := newCloud(ions.Population{Type: species("X", 1, 1), Count: 6})
		engine = coulomb.New(c, 1)
		tr := unitStatic()
		r, err := integrators.NewRESPA(tr, c, engine, 5)
		Expect(err).NotTo(HaveOccurred())

		e0 := totalEnergy(c, tr)
		Expect(e0).To(BeNumerically(">", 0))
		maxDrift := 0.0
		for i := 0; i < 4000; i++ {
			Expect(r.Evolve(0.005)).To(Succeed())
			if i%100 == 0 {
				d := (totalEnergy(c, tr) - e0) / e0
				if d < 0 {
					d = -d
				}
				if d > maxDrift {
					maxDrift = d
				}
			}
		}
		Expect(maxDrift).To(BeNumerically("<", 1e-3))
	})

	It("removes kinetic energy from laser-cooled ions", func() {
		c := newCloud(ions.Population{Type: cooled("Mg", 1, 0.5), Count: 6})
		for i := 0; i < c.Len(); i++ {
			Expect(c.SetVelocity(i, r3.Vec{X: 1, Y: 1, Z: 1})).To(Succeed())
		}
		ke0 := c.KineticEnergy()
		engine = coulomb.New(c, 1)
		r, err := integrators.NewRESPA(unitStatic(), c, engine, 2)
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 2000; i++ {
			Expect(r.Evolve(0.01)).To(Succeed())
		}
		Expect(c.KineticEnergy()).To(BeNumerically("<", 0.01*ke0))
	})

	It("reproduces a heated run from the same seed", func() {
		heated := cooled("Mg", 24, 0.1)
		heated.Heated = true
		heated.Recoil = 0.5

		run := func(seed uint64) r3.Vec {
			c := newCloud(ions.Population{Type: heated, Count: 3})
			eng := coulomb.New(c, 1)
			defer eng.Close()
			r, err := integrators.NewRESPA(unitStatic(), c, eng, 3, integrators.WithSeed(seed))
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 50; i++ {
				Expect(r.Evolve(0.01)).To(Succeed())
			}
			v, err := c.Velocity(0)
			Expect(err).NotTo(HaveOccurred())
			return v
		}

		Expect(run(42)).To(Equal(run(42)))
		Expect(run(42)).NotTo(Equal(run(43)))
	})

	It("aborts on coincident ions", func() {
		c := newCloud(ions.Population{Type: species("Ca", 40, 1), Count: 2})
		Expect(c.SetPosition(1, r3.Vec{})).To(Succeed())
		Expect(c.SetPosition(0, r3.Vec{})).To(Succeed())
		engine = coulomb.New(c, 1)
		r, err := integrators.NewRESPA(unitStatic(), c, engine, 2)
		Expect(err).NotTo(HaveOccurred())

		err = r.Evolve(0.01)
		Expect(err).To(MatchError(dynamo.ErrNumericalDegeneracy))
		var ce *dynamo.CoincidentError
		Expect(errors.As(err, &ce)).To(BeTrue())
		Expect(r.Time()).To(BeZero())
	})
})

var _ = Describe("VelocityVerlet", func() {
	It("conserves energy in a static trap", func() {
		c := newCloud(ions.Population{Type: species("X", 1, 1), Count: 4})
		engine := coulomb.New(c, 1)
		defer engine.Close()
		tr := unitStatic()
		v, err := integrators.NewVelocityVerlet(tr, c, engine)
		Expect(err).NotTo(HaveOccurred())

		e0 := totalEnergy(c, tr)
		for i := 0; i < 2000; i++ {
			Expect(v.Evolve(0.005)).To(Succeed())
		}
		Expect((totalEnergy(c, tr) - e0) / e0).To(BeNumerically("~", 0, 1e-3))
	})

	It("rejects a missing force engine", func() {
		c := newCloud(ions.Population{Type: species("X", 1, 1), Count: 1})
		_, err := integrators.NewVelocityVerlet(unitStatic(), c, nil)
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
	})
})
