package config

import (
	"sort"

	"github.com/san-kum/ccmd/internal/sim"
	"github.com/san-kum/ccmd/internal/trap"
)

func withCloud(species ...SpeciesConfig) *Config {
	cfg := DefaultConfig()
	cfg.Species = species
	return cfg
}

func calcium(n int) SpeciesConfig {
	return SpeciesConfig{Name: "Ca+", Formula: "Ca", Mass: 40, Charge: 1, Number: n, LaserCooled: true, Beta: 0.1, Heated: true, Recoil: 0.01}
}

// Presets are complete configurations selectable with --preset.
var Presets = map[string]*Config{
	"calcium": func() *Config {
		cfg := withCloud(calcium(50))
		cfg.Label = "calcium"
		return cfg
	}(),
	"sympathetic": func() *Config {
		cfg := DefaultConfig()
		cfg.Label = "sympathetic"
		cfg.Microscope.MakeImage = true
		return cfg
	}(),
	"digital": func() *Config {
		cfg := withCloud(calcium(30))
		cfg.Label = "digital"
		cfg.Trap.Waveform = trap.WaveDigital
		cfg.Trap.Tau = 0.5
		return cfg
	}(),
	"pseudo": func() *Config {
		cfg := withCloud(calcium(30))
		cfg.Label = "pseudo"
		cfg.Trap.Waveform = trap.WavePseudo
		cfg.Integration.RespaSteps = 1
		return cfg
	}(),
	"reaction": func() *Config {
		cfg := withCloud(calcium(30), SpeciesConfig{Name: "CaH+", Formula: "CaH", Mass: 41, Charge: 1})
		cfg.Label = "reaction"
		cfg.Integration.Swap = &SwapConfig{From: "Ca+", To: "CaH+", Every: 1000}
		return cfg
	}(),
	"verlet": func() *Config {
		cfg := withCloud(calcium(20))
		cfg.Label = "verlet"
		cfg.Integration.Integrator = sim.IntegratorVerlet
		cfg.Integration.TimeStep = 0.002
		return cfg
	}(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
