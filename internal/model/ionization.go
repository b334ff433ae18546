package model

import (
	"sync/atomic"

	"github.com/wildstyl3r/apcycle/internal/ipd"
)

// calculateIPDInput derives Debye length, temperature and Z* of a supercell
// from its electrons and ions.
func (m *Model) calculateIPDInput(superCell int) {
	var acc ipd.Accumulator
	electrons := m.Electrons.SuperCells[superCell]
	for i := range electrons {
		acc.AddElectron(electrons[i].Energy, electrons[i].Weight)
	}
	for _, s := range m.Species {
		ions := s.Ions.SuperCells[superCell]
		for i := range ions {
			acc.AddIon(s.Data.States[ions[i].State].Charge, ions[i].Weight)
		}
	}
	m.Registry.IPDInputs[superCell] = acc.Inputs(m.volume)
}

// applyIPDIonization moves every ion whose depressed ionization energy is not
// positive to its pressure ionization state.
func (m *Model) applyIPDIonization(superCell int) {
	inputs := m.Registry.IPDInputs[superCell]
	for _, s := range m.Species {
		if _, none := s.IPD.(ipd.None); none {
			continue
		}
		ions := s.Ions.SuperCells[superCell]
		for i := range ions {
			ion := &ions[i]
			to, ok := s.Data.PressureIonizationState(ion.State)
			if !ok {
				continue
			}
			charge := s.Data.States[ion.State].Charge
			if s.Data.StateIonizationEnergy(ion.State)-s.IPD.Depression(inputs, charge) > 0 {
				continue
			}
			m.spawnElectrons(superCell, ion, s.Data.ChargeChange(ion.State, to), 0)
			ion.State = to
			m.Registry.FoundUnbound[superCell].Store(1)
			m.stats.ipdIonizations.Add(1)
		}
	}
}

// ipdIonization repeats pressure ionization while it keeps unbinding ions,
// since every ionization changes the plasma parameters.
func (m *Model) ipdIonization() {
	if !m.anyIPD {
		return
	}
	var iterations int
	for _, s := range m.Species {
		iterations = max(iterations, int(s.Data.NuclearCharge))
	}
	for range iterations {
		var found atomic.Bool
		m.forEachSuperCell(true, func(superCell int) {
			m.Registry.FoundUnbound[superCell].Store(0)
			m.calculateIPDInput(superCell)
			m.applyIPDIonization(superCell)
			if m.Registry.FoundUnbound[superCell].Load() != 0 {
				found.Store(true)
			}
		})
		if !found.Load() {
			break
		}
	}
	m.forEachSuperCell(true, m.calculateIPDInput)
}
