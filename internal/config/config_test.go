package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func relClose(a, b float64) bool {
	return math.Abs(a-b) <= 1e-12*math.Abs(b)
}

func TestLoadConfigDefaultsAndUnits(t *testing.T) {
	path := writeConfig(t, `
TimeStep = 2.0
InputUnits = ["fs", "eV", "nm"]
IPD = "StewartPyatt"

[Histogram]
MinEnergy = 1.0
MaxEnergy = 1000.0

[Species.He]
AtomicData = "he.toml"
Density = 1e-2

[Species.Ar]
AtomicData = "ar.toml"
Density = 2e-2
IPD = "none"
`)
	c, _, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !relClose(c.TimeStep, 2e-15) {
		t.Fatalf("time step must be converted to seconds, got %v", c.TimeStep)
	}
	if !relClose(c.AtomicPhysics.MinimumTimeStep, 2e-24) {
		t.Fatalf("minimum time step defaults to 1e-9 of the outer step, got %v", c.AtomicPhysics.MinimumTimeStep)
	}
	if !relClose(c.Grid.CellSize[0], 1e-8) {
		t.Fatalf("default cell size is 10 nm, got %v m", c.Grid.CellSize[0])
	}
	if c.Histogram.NumberBins != 100 || !c.Histogram.LogScale || c.Histogram.MaxEnergy != 1000 {
		t.Fatalf("unexpected histogram %+v", c.Histogram)
	}
	if c.Store != "memory" || c.Seed != 1 || c.Steps != 1 || c.Lanes != 1 || c.Threads < 1 {
		t.Fatalf("unexpected run defaults %+v", c)
	}
	if c.AtomicPhysics.MaxRejectionPasses != 1 || c.AtomicPhysics.ProbabilityApproximationMax != 0.3 {
		t.Fatalf("unexpected atomic physics defaults %+v", c.AtomicPhysics)
	}

	he, ar := c.Species["He"], c.Species["Ar"]
	if !relClose(he.Density, 1e25) || !relClose(ar.Density, 2e25) {
		t.Fatalf("densities must be converted to m^-3: %v %v", he.Density, ar.Density)
	}
	if he.IPD != "StewartPyatt" || ar.IPD != "none" {
		t.Fatalf("species value must win over the global one: %s %s", he.IPD, ar.IPD)
	}
	if he.MacroParticlesPerSuperCell != 64 || he.Polarization != "linear" || !he.Processes.Any() || !he.Processes.FieldIonization {
		t.Fatalf("unexpected species defaults %+v", he)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string]string{
		"no species": `TimeStep = 1.0`,
		"unit conflict": `
TimeStep = 1.0
InputUnits = ["cm", "m"]
[Species.He]
AtomicData = "he.toml"
Density = 1.0
`,
		"missing density": `
TimeStep = 1.0
[Species.He]
AtomicData = "he.toml"
`,
		"unknown IPD": `
TimeStep = 1.0
[Species.He]
AtomicData = "he.toml"
Density = 1.0
IPD = "EckerKroell"
`,
		"non-positive time step": `
[Species.He]
AtomicData = "he.toml"
Density = 1.0
`,
		"unknown store": `
TimeStep = 1.0
Store = "redis"
[Species.He]
AtomicData = "he.toml"
Density = 1.0
`,
	}
	for name, content := range cases {
		if _, _, err := LoadConfig(writeConfig(t, content)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
	if _, _, err := LoadConfig(writeConfig(t, `TimeStep = 1.0`)); !errors.Is(err, ErrNoSpecies) {
		t.Fatalf("expected ErrNoSpecies, got %v", err)
	}
}

func TestSIRoundTrip(t *testing.T) {
	units := []string{"um", "ps", "keV"}
	field := []UnitElement{{Class: Energy, Power: 1}, {Class: Length, Power: -1}}
	v := SI(3, field, units, true) // 3 keV/um
	if !relClose(v, 3e9) {
		t.Fatalf("3 keV/um is 3e9 eV/m, got %v", v)
	}
	if back := SI(v, field, units, false); !relClose(back, 3) {
		t.Fatalf("round trip gave %v", back)
	}
}

func TestProcessSwitchesMergeSeparately(t *testing.T) {
	path := writeConfig(t, `
TimeStep = 1.0

[Processes]
ElectronicIonization = false

[Species.He]
AtomicData = "he.toml"
Density = 1.0
[Species.He.Processes]
FieldIonization = false

[Species.Ar]
AtomicData = "ar.toml"
Density = 1.0
`)
	c, _, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := map[string]Processes{
		"He": {
			ElectronicExcitation:    true,
			ElectronicDeexcitation:  true,
			SpontaneousDeexcitation: true,
			AutonomousIonization:    true,
		},
		"Ar": {
			ElectronicExcitation:    true,
			ElectronicDeexcitation:  true,
			SpontaneousDeexcitation: true,
			FieldIonization:         true,
			AutonomousIonization:    true,
		},
	}
	for name, processes := range want {
		if got := c.Species[name].Processes; got != processes {
			t.Fatalf("%s: expected %+v, got %+v", name, processes, got)
		}
	}
}
