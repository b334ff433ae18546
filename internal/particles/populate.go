package particles

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"github.com/wildstyl3r/apcycle/internal/atomicdata"
	"github.com/wildstyl3r/apcycle/internal/config"
	"github.com/wildstyl3r/apcycle/internal/rng"
	"github.com/wildstyl3r/apcycle/internal/utils"
)

var ErrEmptySpectrum = errors.New("electron spectrum has no positive weight")

type spectrum struct {
	energies   []float64
	cumulative []float64
}

func loadSpectrum(path string) (*spectrum, error) {
	pairs, err := utils.ReadTable(path, 2)
	if err != nil {
		return nil, fmt.Errorf("unable to load electron spectrum: %w", err)
	}
	s := &spectrum{}
	var total float64
	for _, p := range pairs {
		if p[0] < 0 || p[1] < 0 {
			return nil, fmt.Errorf("electron spectrum %s: negative entry %v", path, p)
		}
		total += p[1]
		s.energies = append(s.energies, p[0])
		s.cumulative = append(s.cumulative, total)
	}
	if total <= 0 {
		return nil, ErrEmptySpectrum
	}
	floats.Scale(1/total, s.cumulative)
	return s, nil
}

func (s *spectrum) sample(r *rand.Rand) float64 {
	i := sort.SearchFloat64s(s.cumulative, r.Float64())
	return s.energies[min(i, len(s.energies)-1)]
}

// maxwellian samples a kinetic energy of a 3D Maxwell distribution of temperature kT [eV].
func maxwellian(r *rand.Rand, kT float64) float64 {
	x, y, z := r.NormFloat64(), r.NormFloat64(), r.NormFloat64()
	return kT / 2 * (x*x + y*y + z*z)
}

// PopulateElectrons fills every supercell with electrons of equal weight, either
// Maxwellian or drawn from the spectrum file.
func PopulateElectrons(p config.ElectronParameters, numberSuperCells int, volume float64, seed uint64, ids *IDProvider) (Electrons, error) {
	e := NewElectrons(numberSuperCells)
	if p.MacroParticlesPerSuperCell <= 0 || p.Density <= 0 {
		return e, nil
	}
	var s *spectrum
	if p.Spectrum != "" {
		var err error
		if s, err = loadSpectrum(p.Spectrum); err != nil {
			return e, err
		}
	}
	weight := p.Density * volume / float64(p.MacroParticlesPerSuperCell)
	for superCell := range numberSuperCells {
		r := rng.Stream(seed, 0, uint64(superCell), 0, rng.Setup)
		e.SuperCells[superCell] = make([]Electron, 0, p.MacroParticlesPerSuperCell)
		for range p.MacroParticlesPerSuperCell {
			var energy float64
			if s != nil {
				energy = s.sample(r)
			} else {
				energy = maxwellian(r, p.Temperature)
			}
			e.Spawn(superCell, Electron{
				ID:     ids.Next(superCell),
				Weight: weight,
				Energy: energy,
				Bin:    -1,
			})
		}
	}
	return e, nil
}

// PopulateIons places ions of one species in the ground state of their initial charge state.
func PopulateIons(name string, p config.SpeciesParameters, data *atomicdata.AtomicData, numberSuperCells int, volume float64, ids *IDProvider) (IonSpecies, error) {
	s := NewIonSpecies(name, numberSuperCells)
	if p.InitialChargeState > int(data.NuclearCharge) {
		return s, fmt.Errorf("species %s: initial charge state %d above nuclear charge %d", name, p.InitialChargeState, data.NuclearCharge)
	}
	ground, ok := data.GroundState(uint8(p.InitialChargeState))
	if !ok {
		return s, fmt.Errorf("species %s: no tabulated state of charge %d", name, p.InitialChargeState)
	}
	if p.MacroParticlesPerSuperCell == 0 {
		return s, nil
	}
	weight := p.Density * volume / float64(p.MacroParticlesPerSuperCell)
	if math.IsNaN(weight) || weight <= 0 {
		return s, fmt.Errorf("species %s: invalid macro-particle weight %g", name, weight)
	}
	for superCell := range numberSuperCells {
		ions := make([]Ion, p.MacroParticlesPerSuperCell)
		for i := range ions {
			ions[i] = Ion{ID: ids.Next(superCell), Weight: weight, State: ground}
		}
		s.SuperCells[superCell] = ions
	}
	return s, nil
}
