package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/ccmd/internal/dynamo"
	"github.com/san-kum/ccmd/internal/ions"
	"github.com/san-kum/ccmd/internal/sim"
	"github.com/san-kum/ccmd/internal/trap"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeStep       = 0.01
	DefaultRespaSteps     = 50
	DefaultCoolSteps      = 10000
	DefaultHistSteps      = 10000
	DefaultStepsPerPeriod = 100
	DefaultSeed           = 1
	DefaultDirection      = 1.0

	DefaultPixelsPerMicron = 1.0
	DefaultBeamWaist       = 5.0
	DefaultDepthOfField    = 50.0
	DefaultImageRows       = 200
	DefaultImageCols       = 400
)

type Config struct {
	Label       string            `yaml:"label,omitempty"`
	Trap        TrapConfig        `yaml:"trap"`
	Integration IntegrationConfig `yaml:"integration"`
	Species     []SpeciesConfig   `yaml:"species"`
	Microscope  MicroscopeConfig  `yaml:"microscope"`
	Seed        uint64            `yaml:"seed"`
	Threads     int               `yaml:"threads"`
}

type TrapConfig struct {
	Waveform string  `yaml:"waveform"`
	Freq     float64 `yaml:"freq"`
	VRF      float64 `yaml:"v_rf"`
	VEnd     float64 `yaml:"v_end"`
	Eta      float64 `yaml:"eta"`
	R0       float64 `yaml:"r0"`
	Z0       float64 `yaml:"z0"`
	Tau      float64 `yaml:"tau,omitempty"`
}

type IntegrationConfig struct {
	Integrator     string      `yaml:"integrator,omitempty"`
	TimeStep       float64     `yaml:"time_step"`
	RespaSteps     int         `yaml:"respa_steps"`
	CoolSteps      int         `yaml:"cool_steps"`
	HistSteps      int         `yaml:"hist_steps"`
	StepsPerPeriod int         `yaml:"steps_per_period"`
	Swap           *SwapConfig `yaml:"swap,omitempty"`
}

// MicroscopeConfig controls the simulated camera image of the histogram
// phase. W0 is in pixels and Z0 in image planes.
type MicroscopeConfig struct {
	MakeImage        bool    `yaml:"make_image"`
	PixelsToDistance float64 `yaml:"pixels_to_distance"` // pixels per micron
	W0               float64 `yaml:"w0"`
	Z0               float64 `yaml:"z0"`
	Rows             int     `yaml:"rows"`
	Cols             int     `yaml:"cols"`
}

// BinSize is the edge of one image pixel in reduced length units for a trap
// whose length scale is given in metres.
func (m MicroscopeConfig) BinSize(lengthScale float64) float64 {
	return 1 / (1e6 * m.PixelsToDistance * lengthScale)
}

type SwapConfig struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	Every int    `yaml:"every"`
}

type SpeciesConfig struct {
	Name        string   `yaml:"name"`
	Formula     string   `yaml:"formula,omitempty"`
	Mass        float64  `yaml:"mass"`
	Charge      int      `yaml:"charge"`
	Number      int      `yaml:"number"`
	LaserCooled bool     `yaml:"lasercooled,omitempty"`
	Beta        float64  `yaml:"beta,omitempty"`
	Heated      bool     `yaml:"heated,omitempty"`
	Recoil      float64  `yaml:"recoil,omitempty"`
	Direction   *float64 `yaml:"direction,omitempty"` // nil means equal beams
}

// DefaultConfig is a calcium crystal sympathetically cooling a few xenon
// ions in a typical linear Paul trap.
func DefaultConfig() *Config {
	return &Config{
		Trap: TrapConfig{
			Waveform: trap.WaveCosine,
			Freq:     3.85e6,
			VRF:      300,
			VEnd:     2,
			Eta:      0.244,
			R0:       3.5e-3,
			Z0:       2.75e-3,
		},
		Integration: IntegrationConfig{
			Integrator:     sim.IntegratorRESPA,
			TimeStep:       DefaultTimeStep,
			RespaSteps:     DefaultRespaSteps,
			CoolSteps:      DefaultCoolSteps,
			HistSteps:      DefaultHistSteps,
			StepsPerPeriod: DefaultStepsPerPeriod,
		},
		Species: []SpeciesConfig{
			{Name: "Ca+", Formula: "Ca", Mass: 40, Charge: 1, Number: 20, LaserCooled: true, Beta: 0.1, Heated: true, Recoil: 0.01},
			{Name: "Xe+", Formula: "Xe", Mass: 131, Charge: 1, Number: 5},
		},
		Microscope: MicroscopeConfig{
			PixelsToDistance: DefaultPixelsPerMicron,
			W0:               DefaultBeamWaist,
			Z0:               DefaultDepthOfField,
			Rows:             DefaultImageRows,
			Cols:             DefaultImageCols,
		},
		Seed: DefaultSeed,
	}
}

// Load reads a YAML file (.yaml, .yml) or an INI file (.info, .ini, .gcfg)
// over the defaults and validates it.
func Load(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = loadYAML(path)
	case ".info", ".ini", ".gcfg":
		cfg, err = loadINI(path)
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", dynamo.ErrConfiguration, path)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func loadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrConfiguration, path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first problem found as ErrConfiguration.
func (c *Config) Validate() error {
	if _, err := c.BuildTrap(); err != nil {
		return err
	}

	in := c.Integration
	switch {
	case !(in.TimeStep > 0) || math.IsInf(in.TimeStep, 0):
		return fmt.Errorf("%w: time_step must be positive, got %g", dynamo.ErrConfiguration, in.TimeStep)
	case in.Integrator != sim.IntegratorVerlet && in.RespaSteps < 1:
		return fmt.Errorf("%w: respa_steps must be at least 1, got %d", dynamo.ErrConfiguration, in.RespaSteps)
	case in.CoolSteps < 0 || in.HistSteps < 0:
		return fmt.Errorf("%w: step counts must not be negative", dynamo.ErrConfiguration)
	case in.StepsPerPeriod < 1:
		return fmt.Errorf("%w: steps_per_period must be at least 1, got %d", dynamo.ErrConfiguration, in.StepsPerPeriod)
	case c.Threads < 0:
		return fmt.Errorf("%w: threads must not be negative", dynamo.ErrConfiguration)
	}
	switch in.Integrator {
	case "", sim.IntegratorRESPA, sim.IntegratorVerlet:
	default:
		return fmt.Errorf("%w: unknown integrator %q", dynamo.ErrConfiguration, in.Integrator)
	}

	seen := make(map[string]bool, len(c.Species))
	total := 0
	for _, s := range c.Species {
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate species %q", dynamo.ErrConfiguration, s.Name)
		}
		seen[s.Name] = true
		if s.Number < 0 {
			return fmt.Errorf("%w: species %q: number must not be negative", dynamo.ErrConfiguration, s.Name)
		}
		if err := s.IonType().Validate(); err != nil {
			return err
		}
		total += s.Number
	}
	if total == 0 {
		return fmt.Errorf("%w: no ions configured", dynamo.ErrConfiguration)
	}

	if m := c.Microscope; m.MakeImage {
		switch {
		case !(m.PixelsToDistance > 0) || math.IsInf(m.PixelsToDistance, 0):
			return fmt.Errorf("%w: microscope pixels_to_distance must be positive", dynamo.ErrConfiguration)
		case !(m.W0 > 0) || !(m.Z0 > 0):
			return fmt.Errorf("%w: microscope w0 and z0 must be positive", dynamo.ErrConfiguration)
		case m.Rows < 1 || m.Cols < 1:
			return fmt.Errorf("%w: microscope image must be at least 1x1, got %dx%d", dynamo.ErrConfiguration, m.Rows, m.Cols)
		}
	}

	if sw := in.Swap; sw != nil {
		if !seen[sw.From] || !seen[sw.To] {
			return fmt.Errorf("%w: swap %q -> %q names an unknown species", dynamo.ErrConfiguration, sw.From, sw.To)
		}
		if sw.Every < 1 {
			return fmt.Errorf("%w: swap interval must be at least 1, got %d", dynamo.ErrConfiguration, sw.Every)
		}
	}
	return nil
}

func (t TrapConfig) Params() trap.Params {
	return trap.Params{
		Waveform: t.Waveform,
		Freq:     t.Freq,
		VRF:      t.VRF,
		VEnd:     t.VEnd,
		Eta:      t.Eta,
		R0:       t.R0,
		Z0:       t.Z0,
		Tau:      t.Tau,
	}
}

// BuildTrap constructs the trap model named by the waveform.
func (c *Config) BuildTrap() (trap.Trap, error) {
	return trap.New(c.Trap.Params())
}

func (s SpeciesConfig) IonType() *ions.IonType {
	direction := DefaultDirection
	if s.Direction != nil {
		direction = *s.Direction
	}
	formula := s.Formula
	if formula == "" {
		formula = s.Name
	}
	return &ions.IonType{
		Name:        s.Name,
		Formula:     formula,
		Mass:        s.Mass,
		Charge:      s.Charge,
		Beta:        s.Beta,
		Recoil:      s.Recoil,
		Direction:   direction,
		LaserCooled: s.LaserCooled,
		Heated:      s.Heated,
	}
}

// Roster returns the populations in configuration order. Each call builds
// fresh ion types.
func (c *Config) Roster() []ions.Population {
	roster := make([]ions.Population, 0, len(c.Species))
	for _, s := range c.Species {
		roster = append(roster, ions.Population{Type: s.IonType(), Count: s.Number})
	}
	return roster
}

// SimConfig translates the integration section for the run loop.
func (c *Config) SimConfig() sim.Config {
	in := c.Integration
	cfg := sim.Config{
		Dt:             in.TimeStep,
		RespaSteps:     in.RespaSteps,
		CoolSteps:      in.CoolSteps,
		HistSteps:      in.HistSteps,
		StepsPerPeriod: in.StepsPerPeriod,
		Integrator:     in.Integrator,
		Seed:           c.Seed,
		Threads:        c.Threads,
	}
	if in.Swap != nil {
		cfg.Swap = &sim.Swap{From: in.Swap.From, To: in.Swap.To, Every: in.Swap.Every}
	}
	return cfg
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Species = make([]SpeciesConfig, len(c.Species))
	for i, s := range c.Species {
		if s.Direction != nil {
			d := *s.Direction
			s.Direction = &d
		}
		out.Species[i] = s
	}
	if c.Integration.Swap != nil {
		sw := *c.Integration.Swap
		out.Integration.Swap = &sw
	}
	return &out
}
