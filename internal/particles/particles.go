// Package particles is the macro-particle container of the local domain:
// ion species and electrons, stored per supercell.
package particles

import (
	"github.com/wildstyl3r/apcycle/internal/atomicdata"
)

// Transition an ion accepted in the current sub-step.
type Transition struct {
	Class  atomicdata.TransitionClass
	Index  uint32
	Target uint32 // atomic state after the transition
	Bin    int    // histogram bin of the interacting electron, -1 for radiative, field and autonomous
}

type Ion struct {
	ID     uint64
	Weight float64
	State  uint32

	Accepted bool
	Chosen   Transition
}

type Electron struct {
	ID     uint64
	Weight float64
	Energy float64 // [eV]
	Bin    int     // histogram bin at binning time, -1 when out of range
}

type IonSpecies struct {
	Name       string
	SuperCells [][]Ion // by supercell field index
}

type Electrons struct {
	SuperCells [][]Electron
}

func NewIonSpecies(name string, numberSuperCells int) IonSpecies {
	return IonSpecies{Name: name, SuperCells: make([][]Ion, numberSuperCells)}
}

func NewElectrons(numberSuperCells int) Electrons {
	return Electrons{SuperCells: make([][]Electron, numberSuperCells)}
}

func (s *IonSpecies) Count() (n int) {
	for i := range s.SuperCells {
		n += len(s.SuperCells[i])
	}
	return
}

func (e *Electrons) Count() (n int) {
	for i := range e.SuperCells {
		n += len(e.SuperCells[i])
	}
	return
}

// Spawn appends an electron to supercell; only the worker owning the supercell may call it.
func (e *Electrons) Spawn(superCell int, electron Electron) {
	e.SuperCells[superCell] = append(e.SuperCells[superCell], electron)
}

// IDProvider hands out globally unique particle identifiers. Every supercell
// owns its own block so identifiers do not depend on worker scheduling.
type IDProvider struct {
	next []uint64
}

const idBlockBits = 40

func NewIDProvider(numberSuperCells int) *IDProvider {
	p := &IDProvider{next: make([]uint64, numberSuperCells)}
	for i := range p.next {
		p.next[i] = uint64(i+1) << idBlockBits
	}
	return p
}

func (p *IDProvider) Next(superCell int) uint64 {
	id := p.next[superCell]
	p.next[superCell]++
	if id>>idBlockBits != uint64(superCell+1) {
		panic("particle id block exhausted")
	}
	return id
}
