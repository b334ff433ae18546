package particles

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/wildstyl3r/apcycle/internal/atomicdata"
	"github.com/wildstyl3r/apcycle/internal/config"
)

func TestIDProviderBlocks(t *testing.T) {
	ids := NewIDProvider(3)
	a := ids.Next(0)
	b := ids.Next(0)
	c := ids.Next(2)
	if a == b || b != a+1 {
		t.Fatalf("consecutive ids expected: %d %d", a, b)
	}
	if c>>idBlockBits != 3 {
		t.Fatalf("supercell 2 must draw from block 3, got %d", c>>idBlockBits)
	}
}

func TestPopulateElectronsMaxwellian(t *testing.T) {
	p := config.ElectronParameters{Density: 1e27, Temperature: 10, MacroParticlesPerSuperCell: 4000}
	e, err := PopulateElectrons(p, 2, 1e-24, 1, NewIDProvider(2))
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if e.Count() != 8000 {
		t.Fatalf("expected 8000 electrons, got %d", e.Count())
	}
	var mean, weight float64
	for _, el := range e.SuperCells[0] {
		mean += el.Energy
		weight += el.Weight
	}
	mean /= float64(len(e.SuperCells[0]))
	if math.Abs(mean-15)/15 > 0.05 {
		t.Fatalf("mean energy of a 10 eV Maxwellian is 15 eV, got %v", mean)
	}
	if math.Abs(weight-1e3)/1e3 > 1e-9 {
		t.Fatalf("total weight must equal density times volume, got %v", weight)
	}

	again, _ := PopulateElectrons(p, 2, 1e-24, 1, NewIDProvider(2))
	if again.SuperCells[1][17] != e.SuperCells[1][17] {
		t.Fatalf("population is not reproducible")
	}
}

func TestPopulateElectronsSpectrum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectrum.txt")
	if err := os.WriteFile(path, []byte("# energy weight\n5 0\n20 1\n"), 0o644); err != nil {
		t.Fatalf("write spectrum: %v", err)
	}
	p := config.ElectronParameters{Density: 1, MacroParticlesPerSuperCell: 50, Spectrum: path}
	e, err := PopulateElectrons(p, 1, 1, 3, NewIDProvider(1))
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	for _, el := range e.SuperCells[0] {
		if el.Energy != 20 {
			t.Fatalf("only 20 eV carries weight, got %v", el.Energy)
		}
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("5 0\n"), 0o644); err != nil {
		t.Fatalf("write spectrum: %v", err)
	}
	p.Spectrum = empty
	if _, err := PopulateElectrons(p, 1, 1, 3, NewIDProvider(1)); !errors.Is(err, ErrEmptySpectrum) {
		t.Fatalf("expected ErrEmptySpectrum, got %v", err)
	}
}

func TestPopulateIons(t *testing.T) {
	neutral, _ := atomicdata.NewAtomicState([]uint8{1}, 0, 1)
	bare, _ := atomicdata.NewAtomicState([]uint8{0}, 0, 1)
	data, err := atomicdata.New(atomicdata.Tables{
		NuclearCharge: 1,
		NMax:          1,
		ChargeStates:  []atomicdata.ChargeState{{IonizationEnergy: 13.6}},
		States:        []atomicdata.AtomicState{bare, neutral},
	})
	if err != nil {
		t.Fatalf("atomic data: %v", err)
	}
	p := config.SpeciesParameters{Density: 10, MacroParticlesPerSuperCell: 5}
	s, err := PopulateIons("H", p, data, 2, 1, NewIDProvider(2))
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if s.Count() != 10 {
		t.Fatalf("expected 10 ions, got %d", s.Count())
	}
	for _, ion := range s.SuperCells[1] {
		if ion.State != 1 || ion.Weight != 2 {
			t.Fatalf("expected neutral ground state of weight 2, got %+v", ion)
		}
	}

	p.InitialChargeState = 2
	if _, err := PopulateIons("H", p, data, 2, 1, NewIDProvider(2)); err == nil {
		t.Fatalf("charge state above the nuclear charge must fail")
	}
}
