package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/ccmd/internal/dynamo"
	"github.com/san-kum/ccmd/internal/ions"
)

func heatedRoster() []ions.Population {
	typ := &ions.IonType{
		Name: "Mg", Mass: 24, Charge: 1,
		Beta: 0.05, Recoil: 0.5, Direction: 1,
		LaserCooled: true, Heated: true,
	}
	return []ions.Population{{Type: typ, Count: 3}}
}

func TestEnsembleRun(t *testing.T) {
	cfg := baseConfig()
	cfg.CoolSteps, cfg.HistSteps = 10, 20

	results, err := NewEnsemble(unitTrap(), heatedRoster(), cfg, 3, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r == nil || r.Steps != 30 {
			t.Errorf("member %d: unexpected result %+v", i, r)
		}
	}
	if results[0].MeanKinetic == results[1].MeanKinetic {
		t.Error("expected different seeds to give different heating")
	}
}

func TestEnsembleError(t *testing.T) {
	cfg := baseConfig()
	cfg.Dt = 0
	_, err := NewEnsemble(unitTrap(), heatedRoster(), cfg, 2, nil).Run(context.Background())
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
