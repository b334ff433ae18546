package model

import (
	"github.com/wildstyl3r/apcycle/internal/particles"
)

// binElectrons rebuilds the histogram of a supercell from its electrons.
func (m *Model) binElectrons(superCell int) {
	h := &m.Registry.Histograms[superCell]
	h.Reset()
	electrons := m.Electrons.SuperCells[superCell]
	for i := range electrons {
		e := &electrons[i]
		if bin, ok := h.Add(e.Energy, e.Weight); ok {
			e.Bin = bin
		} else {
			e.Bin = -1
		}
	}
}

// decelerateElectrons hands the energy exchanged with each bin over the outer
// step to the electrons binned there, in proportion to their weight.
func (m *Model) decelerateElectrons(superCell int) {
	h := &m.Registry.Histograms[superCell]
	electrons := m.Electrons.SuperCells[superCell]
	for i := range electrons {
		e := &electrons[i]
		if e.Bin < 0 || e.Bin >= len(h.Bins) {
			continue
		}
		bin := &h.Bins[e.Bin]
		if bin.Weight0 <= 0 {
			continue
		}
		e.Energy = max(0, e.Energy+bin.DeltaEnergy.Load()/bin.Weight0)
	}
}

// spawnElectrons adds the electrons released by an ionizing transition of ion.
// The first one carries energy [eV].
func (m *Model) spawnElectrons(superCell int, ion *particles.Ion, count int, energy float64) {
	for k := range count {
		e := particles.Electron{
			ID:     m.IDs.Next(superCell),
			Weight: ion.Weight,
			Bin:    -1,
		}
		if k == 0 {
			e.Energy = energy
		}
		m.Electrons.Spawn(superCell, e)
	}
}
