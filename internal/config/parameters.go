package config

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	OutputDir string
	MakeDir   bool
	Seed      uint64
	Steps     int
	TimeStep  float64 // outer PIC time step [s]
	Threads   int
	Lanes     int // workers per supercell in the transition selection stage
	Verbose   bool
	Store     string
	StorePath string

	Grid          GridParameters
	Histogram     HistogramParameters
	Electrons     ElectronParameters
	AtomicPhysics AtomicPhysicsParameters
	EField        []float64 // [V / m]

	Species map[string]SpeciesParameters
	// to reset species defaults globally
	SpeciesParameters

	InputUnits  []string
	OutputUnits []string
}

type GridParameters struct {
	LocalSuperCells []int
	GuardSuperCells []int
	SuperCellSize   []int     // cells per supercell
	CellSize        []float64 // [m]
}

func (g GridParameters) SuperCellVolume() float64 {
	v := 1.
	for i := range 3 {
		v *= float64(g.SuperCellSize[i]) * g.CellSize[i]
	}
	return v
}

type HistogramParameters struct {
	NumberBins int
	MinEnergy  float64 // [eV], lower edge of the first logarithmic bin
	MaxEnergy  float64 // [eV]
	LogScale   bool
}

type ElectronParameters struct {
	Density                    float64 // [m^-3]
	Temperature                float64 // [eV]
	MacroParticlesPerSuperCell int
	Spectrum                   string // optional table of (energy [eV], relative weight)
}

type AtomicPhysicsParameters struct {
	ProbabilityApproximationMax float64
	MinimumTimeStep             float64 // [s]
	TimeRemainingTolerance      float64 // fraction of the outer step
	MaxRejectionPasses          int
	OverSubscriptionTolerance   float64 // relative excess
}

type Processes struct {
	ElectronicExcitation    bool
	ElectronicDeexcitation  bool
	SpontaneousDeexcitation bool
	ElectronicIonization    bool
	FieldIonization         bool
	AutonomousIonization    bool
}

func (p Processes) Any() bool {
	return p.ElectronicExcitation || p.ElectronicDeexcitation || p.SpontaneousDeexcitation ||
		p.ElectronicIonization || p.FieldIonization || p.AutonomousIonization
}

type SpeciesParameters struct {
	AtomicData                 string
	Density                    float64 // [m^-3]
	MacroParticlesPerSuperCell int
	InitialChargeState         int
	IPD                        string
	Polarization               string // "linear" | "circular", field ionization
	Processes                  Processes
}

var ErrNoSpecies = errors.New("no species provided")

var defaultValues = map[string]any{ // in internal units
	"MacroParticlesPerSuperCell": 64,
	"InitialChargeState":         0,
	"IPD":                        "none",
	"Polarization":               "linear",
	"Processes": Processes{
		ElectronicExcitation:    true,
		ElectronicDeexcitation:  true,
		SpontaneousDeexcitation: true,
		ElectronicIonization:    true,
		FieldIonization:         true,
		AutonomousIonization:    true,
	},
}

var requiredSpeciesFields = []string{"AtomicData", "Density"}

var valueUnits = map[string][]UnitElement{
	"TimeStep":        {{Class: Time, Power: 1}},
	"MinimumTimeStep": {{Class: Time, Power: 1}},
	"CellSize":        {{Class: Length, Power: 1}},
	"Density":         {{Class: Length, Power: -3}},
	"Temperature":     {{Class: Energy, Power: 1}},
	"MinEnergy":       {{Class: Energy, Power: 1}},
	"MaxEnergy":       {{Class: Energy, Power: 1}},
	"EField":          {{Class: Energy, Power: 1}, {Class: Length, Power: -1}},
}

func LoadConfig(configFileName string) (Config, toml.MetaData, error) {
	var config Config
	meta, err := toml.DecodeFile(strings.TrimSuffix(configFileName, ".toml")+".toml", &config)
	if err != nil {
		return config, meta, fmt.Errorf("unable to load config: %w", err)
	}
	if err := config.unify(meta); err != nil {
		return config, meta, err
	}
	return config, meta, nil
}

// unify fills defaults, converts to internal units and validates.
func (c *Config) unify(meta toml.MetaData) error {
	var unitsConflict []string
	c.InputUnits, unitsConflict = checkUnits(c.InputUnits)
	if len(unitsConflict) > 0 {
		return fmt.Errorf("found input unit conflict: %v", unitsConflict)
	}
	if len(c.OutputUnits) == 0 {
		c.OutputUnits = c.InputUnits
	}
	c.OutputUnits, unitsConflict = checkUnits(c.OutputUnits)
	if len(unitsConflict) > 0 {
		return fmt.Errorf("found output unit conflict: %v", unitsConflict)
	}

	if len(c.Species) == 0 {
		return ErrNoSpecies
	}

	c.applyDefaults(meta)
	c.toSI()

	for name, species := range c.Species {
		if err := species.CheckAndUnify(name, c, &meta); err != nil {
			return err
		}
		c.Species[name] = species
	}
	return c.validate()
}

func (c *Config) applyDefaults(meta toml.MetaData) {
	if !meta.IsDefined("MakeDir") {
		c.MakeDir = true
	}
	if !meta.IsDefined("Seed") {
		c.Seed = 1
	}
	if !meta.IsDefined("Steps") {
		c.Steps = 1
	}
	if !meta.IsDefined("Threads") || c.Threads < 1 {
		c.Threads = runtime.NumCPU()
	}
	if !meta.IsDefined("Lanes") || c.Lanes < 1 {
		c.Lanes = 1
	}
	if !meta.IsDefined("Store") {
		c.Store = "memory"
	}

	if len(c.Grid.LocalSuperCells) == 0 {
		c.Grid.LocalSuperCells = []int{1, 1, 1}
	}
	if len(c.Grid.GuardSuperCells) == 0 {
		c.Grid.GuardSuperCells = []int{1, 1, 1}
	}
	if len(c.Grid.SuperCellSize) == 0 {
		c.Grid.SuperCellSize = []int{8, 8, 4}
	}
	if len(c.Grid.CellSize) == 0 {
		// 10 nm, expressed in input units since toSI runs afterwards
		cell := SI(1e-8, valueUnits["CellSize"], c.InputUnits, false)
		c.Grid.CellSize = []float64{cell, cell, cell}
	}
	if len(c.EField) == 0 {
		c.EField = []float64{0, 0, 0}
	}

	if !meta.IsDefined("Histogram", "NumberBins") {
		c.Histogram.NumberBins = 100
	}
	if !meta.IsDefined("Histogram", "MinEnergy") {
		c.Histogram.MinEnergy = SI(1., valueUnits["MinEnergy"], c.InputUnits, false)
	}
	if !meta.IsDefined("Histogram", "MaxEnergy") {
		c.Histogram.MaxEnergy = SI(1e5, valueUnits["MaxEnergy"], c.InputUnits, false)
	}
	if !meta.IsDefined("Histogram", "LogScale") {
		c.Histogram.LogScale = true
	}
	if !meta.IsDefined("Electrons", "MacroParticlesPerSuperCell") {
		c.Electrons.MacroParticlesPerSuperCell = 256
	}

	if !meta.IsDefined("AtomicPhysics", "ProbabilityApproximationMax") {
		c.AtomicPhysics.ProbabilityApproximationMax = 0.3
	}
	if !meta.IsDefined("AtomicPhysics", "TimeRemainingTolerance") {
		c.AtomicPhysics.TimeRemainingTolerance = 1e-9
	}
	if !meta.IsDefined("AtomicPhysics", "MaxRejectionPasses") {
		c.AtomicPhysics.MaxRejectionPasses = 1
	}
}

func (c *Config) toSI() {
	units := c.InputUnits
	c.TimeStep = SI(c.TimeStep, valueUnits["TimeStep"], units, true)
	c.AtomicPhysics.MinimumTimeStep = SI(c.AtomicPhysics.MinimumTimeStep, valueUnits["MinimumTimeStep"], units, true)
	for i := range c.Grid.CellSize {
		c.Grid.CellSize[i] = SI(c.Grid.CellSize[i], valueUnits["CellSize"], units, true)
	}
	for i := range c.EField {
		c.EField[i] = SI(c.EField[i], valueUnits["EField"], units, true)
	}
	c.Histogram.MinEnergy = SI(c.Histogram.MinEnergy, valueUnits["MinEnergy"], units, true)
	c.Histogram.MaxEnergy = SI(c.Histogram.MaxEnergy, valueUnits["MaxEnergy"], units, true)
	c.Electrons.Density = SI(c.Electrons.Density, valueUnits["Density"], units, true)
	c.Electrons.Temperature = SI(c.Electrons.Temperature, valueUnits["Temperature"], units, true)
	c.SpeciesParameters.Density = SI(c.SpeciesParameters.Density, valueUnits["Density"], units, true)
	for name, species := range c.Species {
		species.Density = SI(species.Density, valueUnits["Density"], units, true)
		c.Species[name] = species
	}
}

// mergeProcesses resolves every process switch on its own, with the same
// priority as the other species fields.
func mergeProcesses(speciesName string, species, global Processes, meta *toml.MetaData) Processes {
	merged := defaultValues["Processes"].(Processes)
	mergedReflect := reflect.ValueOf(&merged).Elem()
	speciesReflect, globalReflect := reflect.ValueOf(species), reflect.ValueOf(global)
	for i := range mergedReflect.NumField() {
		switchName := mergedReflect.Type().Field(i).Name
		switch {
		case meta.IsDefined("Species", speciesName, "Processes", switchName):
			mergedReflect.Field(i).Set(speciesReflect.Field(i))
		case meta.IsDefined("Processes", switchName):
			mergedReflect.Field(i).Set(globalReflect.Field(i))
		}
	}
	return merged
}

/*
field value priority:
1. species table
2. global
3. default
*/
func (sp *SpeciesParameters) CheckAndUnify(speciesName string, config *Config, meta *toml.MetaData) error {
	speciesReflect := reflect.ValueOf(sp).Elem()
	globalReflect := reflect.ValueOf(&config.SpeciesParameters).Elem()
	speciesType := speciesReflect.Type()

	var missing []string
	for i := range speciesReflect.NumField() {
		fieldName := speciesType.Field(i).Name
		if fieldName == "Processes" {
			sp.Processes = mergeProcesses(speciesName, sp.Processes, config.Processes, meta)
			continue
		}
		if meta.IsDefined("Species", speciesName, fieldName) {
			continue
		}
		if meta.IsDefined(fieldName) {
			speciesReflect.Field(i).Set(globalReflect.Field(i))
			continue
		}
		if value, some := defaultValues[fieldName]; some {
			speciesReflect.Field(i).Set(reflect.ValueOf(value))
			continue
		}
		if slices.Contains(requiredSpeciesFields, fieldName) {
			missing = append(missing, fieldName)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("species %s lacks key parameters %v", speciesName, missing)
	}

	switch sp.IPD {
	case "none", "StewartPyatt":
	default:
		return fmt.Errorf("species %s: unknown IPD model %q", speciesName, sp.IPD)
	}
	switch sp.Polarization {
	case "linear", "circular":
	default:
		return fmt.Errorf("species %s: unknown polarization %q", speciesName, sp.Polarization)
	}
	if sp.Density <= 0 {
		return fmt.Errorf("species %s: density must be positive", speciesName)
	}
	if sp.MacroParticlesPerSuperCell < 0 || sp.InitialChargeState < 0 {
		return fmt.Errorf("species %s: negative particle count or charge state", speciesName)
	}
	return nil
}

func (c *Config) validate() error {
	if c.TimeStep <= 0 {
		return fmt.Errorf("TimeStep must be positive, got %g", c.TimeStep)
	}
	for name, v := range map[string][]int{
		"Grid.LocalSuperCells": c.Grid.LocalSuperCells,
		"Grid.GuardSuperCells": c.Grid.GuardSuperCells,
		"Grid.SuperCellSize":   c.Grid.SuperCellSize,
	} {
		if len(v) != 3 {
			return fmt.Errorf("%s must have 3 components", name)
		}
	}
	if len(c.Grid.CellSize) != 3 || len(c.EField) != 3 {
		return fmt.Errorf("Grid.CellSize and EField must have 3 components")
	}
	if c.Histogram.NumberBins < 1 {
		return fmt.Errorf("histogram needs at least one bin")
	}
	if c.Histogram.MaxEnergy <= c.Histogram.MinEnergy || c.Histogram.MinEnergy <= 0 {
		return fmt.Errorf("histogram energy range [%g, %g] is invalid", c.Histogram.MinEnergy, c.Histogram.MaxEnergy)
	}
	if c.Electrons.Spectrum == "" && (c.Electrons.Density < 0 || c.Electrons.Temperature < 0) {
		return fmt.Errorf("electron density and temperature must not be negative")
	}
	if c.AtomicPhysics.ProbabilityApproximationMax <= 0 {
		return fmt.Errorf("ProbabilityApproximationMax must be positive")
	}
	if c.AtomicPhysics.MaxRejectionPasses < 1 {
		return fmt.Errorf("MaxRejectionPasses must be at least 1")
	}
	if c.AtomicPhysics.MinimumTimeStep <= 0 {
		c.AtomicPhysics.MinimumTimeStep = c.TimeStep * 1e-9
	}
	switch c.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store)
	}
	return nil
}
