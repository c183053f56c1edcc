package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/ccmd/internal/dynamo"
	"gopkg.in/gcfg.v1"
)

// iniFile mirrors Config in gcfg form:
//
//	[trap]
//	waveform = cosine
//	freq = 3.85e6
//	[integration]
//	time-step = 0.01
//	[microscope]
//	make-image
//	[species "Ca+"]
//	mass = 40
//	number = 20
//	lasercooled
type iniFile struct {
	Trap struct {
		Waveform string
		Freq     float64
		VRF      float64 `gcfg:"v-rf"`
		VEnd     float64 `gcfg:"v-end"`
		Eta      float64
		R0       float64
		Z0       float64
		Tau      float64
	}
	Integration struct {
		Integrator     string
		TimeStep       float64 `gcfg:"time-step"`
		RespaSteps     int     `gcfg:"respa-steps"`
		CoolSteps      int     `gcfg:"cool-steps"`
		HistSteps      int     `gcfg:"hist-steps"`
		StepsPerPeriod int     `gcfg:"steps-per-period"`
		SwapFrom       string  `gcfg:"swap-from"`
		SwapTo         string  `gcfg:"swap-to"`
		SwapEvery      int     `gcfg:"swap-every"`
	}
	Microscope struct {
		MakeImage        bool    `gcfg:"make-image"`
		PixelsToDistance float64 `gcfg:"pixels-to-distance"`
		W0               float64
		Z0               float64
		Rows             int
		Cols             int
	}
	Run struct {
		Label   string
		Seed    int64
		Threads int
	}
	Species map[string]*iniSpecies
}

type iniSpecies struct {
	Formula     string
	Mass        float64
	Charge      int
	Number      int
	LaserCooled bool
	Beta        float64
	Heated      bool
	Recoil      float64
	Direction   string
}

// defaultINI seeds the sections that have defaults so that omitted keys keep
// them. Species subsections start empty.
func defaultINI() *iniFile {
	d := DefaultConfig()
	f := &iniFile{}
	f.Trap.Waveform = d.Trap.Waveform
	f.Trap.Freq = d.Trap.Freq
	f.Trap.VRF = d.Trap.VRF
	f.Trap.VEnd = d.Trap.VEnd
	f.Trap.Eta = d.Trap.Eta
	f.Trap.R0 = d.Trap.R0
	f.Trap.Z0 = d.Trap.Z0
	f.Integration.Integrator = d.Integration.Integrator
	f.Integration.TimeStep = d.Integration.TimeStep
	f.Integration.RespaSteps = d.Integration.RespaSteps
	f.Integration.CoolSteps = d.Integration.CoolSteps
	f.Integration.HistSteps = d.Integration.HistSteps
	f.Integration.StepsPerPeriod = d.Integration.StepsPerPeriod
	f.Microscope.PixelsToDistance = d.Microscope.PixelsToDistance
	f.Microscope.W0 = d.Microscope.W0
	f.Microscope.Z0 = d.Microscope.Z0
	f.Microscope.Rows = d.Microscope.Rows
	f.Microscope.Cols = d.Microscope.Cols
	f.Run.Seed = int64(d.Seed)
	return f
}

func loadINI(path string) (*Config, error) {
	f := defaultINI()
	if err := gcfg.ReadFileInto(f, path); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrConfiguration, err)
	}
	return f.config()
}

func (f *iniFile) config() (*Config, error) {
	if f.Run.Seed < 0 {
		return nil, fmt.Errorf("%w: seed must not be negative", dynamo.ErrConfiguration)
	}
	cfg := &Config{
		Label: f.Run.Label,
		Trap: TrapConfig{
			Waveform: f.Trap.Waveform,
			Freq:     f.Trap.Freq,
			VRF:      f.Trap.VRF,
			VEnd:     f.Trap.VEnd,
			Eta:      f.Trap.Eta,
			R0:       f.Trap.R0,
			Z0:       f.Trap.Z0,
			Tau:      f.Trap.Tau,
		},
		Integration: IntegrationConfig{
			Integrator:     f.Integration.Integrator,
			TimeStep:       f.Integration.TimeStep,
			RespaSteps:     f.Integration.RespaSteps,
			CoolSteps:      f.Integration.CoolSteps,
			HistSteps:      f.Integration.HistSteps,
			StepsPerPeriod: f.Integration.StepsPerPeriod,
		},
		Microscope: MicroscopeConfig{
			MakeImage:        f.Microscope.MakeImage,
			PixelsToDistance: f.Microscope.PixelsToDistance,
			W0:               f.Microscope.W0,
			Z0:               f.Microscope.Z0,
			Rows:             f.Microscope.Rows,
			Cols:             f.Microscope.Cols,
		},
		Seed:    uint64(f.Run.Seed),
		Threads: f.Run.Threads,
	}
	if f.Integration.SwapFrom != "" || f.Integration.SwapTo != "" {
		cfg.Integration.Swap = &SwapConfig{
			From:  f.Integration.SwapFrom,
			To:    f.Integration.SwapTo,
			Every: f.Integration.SwapEvery,
		}
	}

	// gcfg maps have no order; sort by name for a reproducible roster.
	names := make([]string, 0, len(f.Species))
	for name := range f.Species {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := f.Species[name]
		sc := SpeciesConfig{
			Name:        name,
			Formula:     s.Formula,
			Mass:        s.Mass,
			Charge:      s.Charge,
			Number:      s.Number,
			LaserCooled: s.LaserCooled,
			Beta:        s.Beta,
			Heated:      s.Heated,
			Recoil:      s.Recoil,
		}
		if d := strings.TrimSpace(s.Direction); d != "" {
			v, err := strconv.ParseFloat(d, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: species %q: direction %q: %v", dynamo.ErrConfiguration, name, d, err)
			}
			sc.Direction = &v
		}
		cfg.Species = append(cfg.Species, sc)
	}
	return cfg, nil
}
