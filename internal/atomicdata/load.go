package atomicdata

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type fileChargeState struct {
	IonizationEnergy float64 // [eV]
	ScreenedCharge   float64
}

type fileState struct {
	Levels                  []int
	Energy                  float64 // [eV]
	PressureIonizationState []int
}

type fileBoundBound struct {
	Lower, Upper                  int
	CollisionalOscillatorStrength float64
	AbsorptionOscillatorStrength  float64
	Gaunt                         []float64
}

type fileBoundFree struct {
	Lower, Upper int
	LotzA        float64
}

type fileAutonomous struct {
	Lower, Upper int
	Rate         float64 // [1/s]
}

type fileCrossSections struct {
	File string
	Bind []crossSectionBinding
}

type atomicDataFile struct {
	Name          string
	NuclearCharge int
	NMax          int
	ChargeStates  []fileChargeState
	States        []fileState
	BoundBound    []fileBoundBound
	BoundFree     []fileBoundFree
	Autonomous    []fileAutonomous
	CrossSections fileCrossSections
}

// Load reads an atomic data set from a toml file. Transitions reference states
// by their position in the States array.
func Load(path string) (*AtomicData, error) {
	var f atomicDataFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("unable to load atomic data %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("atomic data %s: unknown keys %v", path, undecoded)
	}
	if !meta.IsDefined("Name") {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if f.NuclearCharge < 1 || f.NuclearCharge > 255 || f.NMax < 1 || f.NMax > 255 {
		return nil, fmt.Errorf("atomic data %s: NuclearCharge and NMax must be in [1, 255]", path)
	}

	t, err := f.tables()
	if err != nil {
		return nil, fmt.Errorf("atomic data %s: %w", path, err)
	}
	if f.CrossSections.File != "" {
		csPath := f.CrossSections.File
		if !filepath.IsAbs(csPath) {
			csPath = filepath.Join(filepath.Dir(path), csPath)
		}
		if err := bindCrossSections(&t, csPath, f.CrossSections.Bind); err != nil {
			return nil, fmt.Errorf("atomic data %s: %w", path, err)
		}
	}
	return New(t)
}

func toLevels(levels []int, nMax int) ([]uint8, error) {
	if len(levels) > nMax {
		return nil, fmt.Errorf("%w: %d shells given, NMax is %d", ErrInvalidState, len(levels), nMax)
	}
	out := make([]uint8, nMax)
	for i, k := range levels {
		if k < 0 || k > 255 {
			return nil, fmt.Errorf("%w: occupation %d", ErrInvalidState, k)
		}
		out[i] = uint8(k)
	}
	return out, nil
}

func (f *atomicDataFile) tables() (Tables, error) {
	t := Tables{
		Name:               f.Name,
		NuclearCharge:      uint8(f.NuclearCharge),
		NMax:               uint8(f.NMax),
		PressureIonization: make(map[uint32]uint32),
	}
	for _, cs := range f.ChargeStates {
		t.ChargeStates = append(t.ChargeStates, ChargeState(cs))
	}

	configs := make(map[uint64]uint32, len(f.States))
	for i, s := range f.States {
		levels, err := toLevels(s.Levels, f.NMax)
		if err != nil {
			return t, fmt.Errorf("state %d: %w", i, err)
		}
		state, err := NewAtomicState(levels, s.Energy, t.NuclearCharge)
		if err != nil {
			return t, fmt.Errorf("state %d: %w", i, err)
		}
		configs[state.ConfigNumber] = uint32(i)
		t.States = append(t.States, state)
	}
	for i, s := range f.States {
		if len(s.PressureIonizationState) == 0 {
			continue
		}
		levels, err := toLevels(s.PressureIonizationState, f.NMax)
		if err != nil {
			return t, fmt.Errorf("pressure ionization state of %d: %w", i, err)
		}
		to, ok := configs[ConfigNumber(levels)]
		if !ok {
			return t, fmt.Errorf("%w: pressure ionization state %v of state %d is not tabulated", ErrInvalidState, s.PressureIonizationState, i)
		}
		t.PressureIonization[uint32(i)] = to
	}

	index := func(i int) (uint32, error) {
		if i < 0 || i >= len(t.States) {
			return 0, fmt.Errorf("%w: state index %d out of range", ErrInvalidState, i)
		}
		return uint32(i), nil
	}
	pair := func(lower, upper int) (uint32, uint32, error) {
		l, err := index(lower)
		if err != nil {
			return 0, 0, err
		}
		u, err := index(upper)
		return l, u, err
	}

	for i, tr := range f.BoundBound {
		l, u, err := pair(tr.Lower, tr.Upper)
		if err != nil {
			return t, fmt.Errorf("bound-bound transition %d: %w", i, err)
		}
		if len(tr.Gaunt) != 0 && len(tr.Gaunt) != 5 {
			return t, fmt.Errorf("bound-bound transition %d: Gaunt fit needs 5 coefficients, got %d", i, len(tr.Gaunt))
		}
		b := BoundBoundTransition{
			Lower:                         l,
			Upper:                         u,
			CollisionalOscillatorStrength: tr.CollisionalOscillatorStrength,
			AbsorptionOscillatorStrength:  tr.AbsorptionOscillatorStrength,
		}
		copy(b.Gaunt[:], tr.Gaunt)
		t.BoundBound = append(t.BoundBound, b)
	}
	for i, tr := range f.BoundFree {
		l, u, err := pair(tr.Lower, tr.Upper)
		if err != nil {
			return t, fmt.Errorf("bound-free transition %d: %w", i, err)
		}
		t.BoundFree = append(t.BoundFree, BoundFreeTransition{Lower: l, Upper: u, LotzA: tr.LotzA})
	}
	for i, tr := range f.Autonomous {
		l, u, err := pair(tr.Lower, tr.Upper)
		if err != nil {
			return t, fmt.Errorf("autonomous transition %d: %w", i, err)
		}
		t.Autonomous = append(t.Autonomous, AutonomousTransition{Lower: l, Upper: u, Rate: tr.Rate})
	}
	return t, nil
}
