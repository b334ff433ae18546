package atomicdata

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

const heliumToml = `
NuclearCharge = 2
NMax = 2

[[ChargeStates]]
IonizationEnergy = 24.587
ScreenedCharge = 1.34

[[ChargeStates]]
IonizationEnergy = 54.418
ScreenedCharge = 2.0

[[States]] # 0
Levels = [2, 0]
Energy = 0.0

[[States]] # 1
Levels = [1, 1]
Energy = 20.6

[[States]] # 2
Levels = [1]
Energy = 0.0

[[States]] # 3
Levels = [0, 1]
Energy = 40.8
PressureIonizationState = [0, 0]

[[States]] # 4
Levels = [0, 0]
Energy = 0.0

[[States]] # 5
Levels = [0, 2]
Energy = 57.8

[[BoundBound]]
Lower = 0
Upper = 1
CollisionalOscillatorStrength = 0.276
AbsorptionOscillatorStrength = 0.276

[[BoundBound]]
Lower = 2
Upper = 3
CollisionalOscillatorStrength = 0.416
AbsorptionOscillatorStrength = 0.416
Gaunt = [0.1, 0.2, 0.0, 1.0, 0.0]

[[BoundFree]]
Lower = 0
Upper = 2

[[BoundFree]]
Lower = 1
Upper = 2

[[BoundFree]]
Lower = 2
Upper = 4

[[Autonomous]]
Lower = 2
Upper = 5
Rate = 1e14
`

func writeHelium(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helium.toml")
	if err := os.WriteFile(path, []byte(heliumToml), 0o644); err != nil {
		t.Fatalf("write atomic data: %v", err)
	}
	return path
}

func TestLoadHelium(t *testing.T) {
	d, err := Load(writeHelium(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Name != "helium" {
		t.Fatalf("expected name from file, got %q", d.Name)
	}
	if d.NumberStates() != 6 {
		t.Fatalf("expected 6 states, got %d", d.NumberStates())
	}
	charges := []uint8{0, 0, 1, 1, 2, 0}
	for i, q := range charges {
		if d.States[i].Charge != q {
			t.Fatalf("state %d: expected charge %d, got %d", i, q, d.States[i].Charge)
		}
	}
	if g := d.States[1].StatisticalWeight; g != 2*8 {
		t.Fatalf("statistical weight of 1s2p: expected 16, got %v", g)
	}
	if d.BoundBound[1].Gaunt[1] != 0.2 {
		t.Fatalf("Gaunt coefficients not loaded: %v", d.BoundBound[1].Gaunt)
	}
	i, ok := d.StateIndex(ConfigNumber([]uint8{1, 1}))
	if !ok || i != 1 {
		t.Fatalf("state index lookup: got %d, %v", i, ok)
	}
}

func TestEnergies(t *testing.T) {
	d, err := Load(writeHelium(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	const eps = 1e-9
	if e := d.TotalEnergy(2); math.Abs(e-24.587) > eps {
		t.Fatalf("total energy of He+ ground state: %v", e)
	}
	if e := d.StateIonizationEnergy(1); math.Abs(e-(24.587-20.6)) > eps {
		t.Fatalf("ionization energy of 1s2p: %v", e)
	}
	if e := d.StateIonizationEnergy(4); !math.IsInf(e, 1) {
		t.Fatalf("bare nucleus must not ionize, got %v", e)
	}
	if e := d.BoundFreeEnergy(1); math.Abs(e-(24.587-20.6)) > eps {
		t.Fatalf("bound-free energy: %v", e)
	}
	if e := d.AutonomousEnergy(0); math.Abs(e-(57.8-24.587)) > eps {
		t.Fatalf("autonomous energy: %v", e)
	}
	if dq := d.ChargeChange(0, 4); dq != 2 {
		t.Fatalf("charge change: %d", dq)
	}
}

func TestOrderings(t *testing.T) {
	d, err := Load(writeHelium(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := []struct {
		name  string
		got   []uint32
		wants []uint32
	}{
		{"bound-free by lower of 0", d.BoundFreeFrom(0, ByLowerState), []uint32{0}},
		{"bound-free by upper of 2", d.BoundFreeFrom(2, ByUpperState), []uint32{0, 1}},
		{"bound-bound by upper of 3", d.BoundBoundFrom(3, ByUpperState), []uint32{1}},
		{"bound-bound by lower of 3", d.BoundBoundFrom(3, ByLowerState), nil},
		{"autonomous by upper of 5", d.AutonomousFrom(5, ByUpperState), []uint32{0}},
		{"autonomous by lower of 2", d.AutonomousFrom(2, ByLowerState), []uint32{0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if len(c.got) != len(c.wants) || !slices.Equal(c.got, c.wants) {
				t.Fatalf("expected %v, got %v", c.wants, c.got)
			}
		})
	}
}

func TestIndexViewCoversEveryTransitionOnce(t *testing.T) {
	keys := []uint32{3, 0, 3, 1, 0, 3}
	v := newIndexView(4, len(keys), func(t int) uint32 { return keys[t] })
	seen := make(map[uint32]bool)
	for s := range uint32(4) {
		for _, tr := range v.Of(s) {
			if keys[tr] != s {
				t.Fatalf("transition %d listed under state %d", tr, s)
			}
			seen[tr] = true
		}
	}
	if len(seen) != len(keys) {
		t.Fatalf("expected %d transitions, saw %d", len(keys), len(seen))
	}
	if v.Of(7) != nil {
		t.Fatalf("unknown state must yield no transitions")
	}
}

func TestPressureIonizationState(t *testing.T) {
	d, err := Load(writeHelium(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s, ok := d.PressureIonizationState(1); !ok || s != 2 {
		t.Fatalf("default pressure ionization state of 1s2p: %d, %v", s, ok)
	}
	if s, ok := d.PressureIonizationState(3); !ok || s != 4 {
		t.Fatalf("explicit pressure ionization state of 2p: %d, %v", s, ok)
	}
	if _, ok := d.PressureIonizationState(4); ok {
		t.Fatalf("bare nucleus has no pressure ionization state")
	}
}

func TestNewRejectsInvalidTables(t *testing.T) {
	ground, _ := NewAtomicState([]uint8{1}, 0, 1)
	bare, _ := NewAtomicState([]uint8{0}, 0, 1)
	base := func() Tables {
		return Tables{
			NuclearCharge: 1,
			NMax:          1,
			ChargeStates:  []ChargeState{{IonizationEnergy: 13.6}},
			States:        []AtomicState{ground, bare},
		}
	}

	cases := []struct {
		name   string
		modify func(*Tables)
	}{
		{"missing charge state", func(t *Tables) { t.ChargeStates = nil }},
		{"duplicate state", func(t *Tables) { t.States = append(t.States, ground) }},
		{"transition out of range", func(t *Tables) {
			t.BoundFree = []BoundFreeTransition{{Lower: 0, Upper: 9}}
		}},
		{"bound-free without ionization", func(t *Tables) {
			t.BoundFree = []BoundFreeTransition{{Lower: 1, Upper: 0}}
		}},
		{"bound-bound across charge states", func(t *Tables) {
			t.BoundBound = []BoundBoundTransition{{Lower: 0, Upper: 1}}
		}},
		{"negative autonomous rate", func(t *Tables) {
			t.Autonomous = []AutonomousTransition{{Lower: 1, Upper: 0, Rate: -1}}
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tables := base()
			c.modify(&tables)
			if _, err := New(tables); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	if _, err := New(base()); err != nil {
		t.Fatalf("valid tables rejected: %v", err)
	}
}

func TestNewAtomicStateValidation(t *testing.T) {
	if _, err := NewAtomicState([]uint8{3}, 0, 3); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("overfilled shell: expected ErrInvalidState, got %v", err)
	}
	if _, err := NewAtomicState([]uint8{2, 1}, 0, 2); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("too many electrons: expected ErrInvalidState, got %v", err)
	}
}

func TestConfigNumberRoundTrip(t *testing.T) {
	levels := []uint8{2, 5, 11}
	got := LevelsFromConfigNumber(ConfigNumber(levels), 3)
	if !slices.Equal(got, levels) {
		t.Fatalf("expected %v, got %v", levels, got)
	}
}
