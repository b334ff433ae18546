// Package atomicdata holds the immutable atomic tables of one ion species:
// charge states, atomic states and the bound-bound, bound-free and autonomous
// transitions, with per-state index views in both orderings.
package atomicdata

import (
	"errors"
	"fmt"

	"github.com/wildstyl3r/apcycle/internal/utils"
	"github.com/wildstyl3r/lxgata"
)

var ErrInvalidState = errors.New("invalid atomic state")

type TransitionClass int

const (
	BoundBound TransitionClass = iota
	BoundFree
	Autonomous
)

func (c TransitionClass) String() string {
	switch c {
	case BoundBound:
		return "bound-bound"
	case BoundFree:
		return "bound-free"
	case Autonomous:
		return "autonomous"
	}
	return fmt.Sprintf("TransitionClass(%d)", int(c))
}

type ChargeState struct {
	IonizationEnergy float64 // [eV], to the ground state of the next charge state
	ScreenedCharge   float64
}

type AtomicState struct {
	ConfigNumber      uint64
	Levels            []uint8 // occupation numbers for n = 1..NMax
	Energy            float64 // [eV] above the ground state of its charge state
	Charge            uint8
	StatisticalWeight float64
}

type BoundBoundTransition struct {
	Lower, Upper                  uint32
	CollisionalOscillatorStrength float64
	AbsorptionOscillatorStrength  float64
	Gaunt                         [5]float64
	CrossSection                  *lxgata.Collision // optional tabulated excitation cross section
}

type BoundFreeTransition struct {
	Lower, Upper uint32
	LotzA        float64           // [m^2 eV^2], zero selects the default Lotz constant
	CrossSection *lxgata.Collision // optional tabulated ionization cross section
}

// AutonomousTransition: Upper autoionizes into Lower, which has the higher charge.
type AutonomousTransition struct {
	Lower, Upper uint32
	Rate         float64 // [1/s]
}

func levelBase(n int) uint64 {
	return uint64(2*n*n + 1)
}

// ConfigNumber encodes shell occupation numbers in the mixed radix (2n^2+1).
func ConfigNumber(levels []uint8) uint64 {
	var number, stride uint64 = 0, 1
	for i, k := range levels {
		number += uint64(k) * stride
		stride *= levelBase(i + 1)
	}
	return number
}

func LevelsFromConfigNumber(number uint64, nMax uint8) []uint8 {
	levels := make([]uint8, nMax)
	for i := range levels {
		base := levelBase(i + 1)
		levels[i] = uint8(number % base)
		number /= base
	}
	return levels
}

func statisticalWeight(levels []uint8) float64 {
	g := 1.
	for i, k := range levels {
		n := i + 1
		g *= utils.Binomial(2*n*n, int(k))
	}
	return g
}

func boundElectrons(levels []uint8) int {
	sum := 0
	for _, k := range levels {
		sum += int(k)
	}
	return sum
}

func NewAtomicState(levels []uint8, energy float64, nuclearCharge uint8) (AtomicState, error) {
	for i, k := range levels {
		n := i + 1
		if int(k) > 2*n*n {
			return AtomicState{}, fmt.Errorf("%w: %d electrons in shell n=%d", ErrInvalidState, k, n)
		}
	}
	bound := boundElectrons(levels)
	if bound > int(nuclearCharge) {
		return AtomicState{}, fmt.Errorf("%w: %d bound electrons for nuclear charge %d", ErrInvalidState, bound, nuclearCharge)
	}
	return AtomicState{
		ConfigNumber:      ConfigNumber(levels),
		Levels:            append([]uint8(nil), levels...),
		Energy:            energy,
		Charge:            nuclearCharge - uint8(bound),
		StatisticalWeight: statisticalWeight(levels),
	}, nil
}

// OuterShellElectrons is the occupation of the highest occupied shell.
func (s *AtomicState) OuterShellElectrons() int {
	for i := len(s.Levels) - 1; i >= 0; i-- {
		if s.Levels[i] > 0 {
			return int(s.Levels[i])
		}
	}
	return 0
}
