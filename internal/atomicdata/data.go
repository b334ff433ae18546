package atomicdata

import (
	"fmt"
	"math"
)

// Tables is the raw content of an atomic data set, before indexing.
type Tables struct {
	Name          string
	NuclearCharge uint8
	NMax          uint8
	ChargeStates  []ChargeState // one per charge 0..NuclearCharge-1
	States        []AtomicState
	BoundBound    []BoundBoundTransition
	BoundFree     []BoundFreeTransition
	Autonomous    []AutonomousTransition

	// optional, state index -> state reached by pressure ionization
	PressureIonization map[uint32]uint32
}

type AtomicData struct {
	Name          string
	NuclearCharge uint8
	NMax          uint8
	ChargeStates  []ChargeState
	States        []AtomicState
	BoundBound    []BoundBoundTransition
	BoundFree     []BoundFreeTransition
	Autonomous    []AutonomousTransition

	stateIndex              map[uint64]uint32
	groundStates            []int64 // per charge, -1 when absent
	pressureIonizationState []int64
	cumulativeIonization    []float64 // energy of the ground state of charge q above the neutral ground state

	boundBoundViews [2]IndexView
	boundFreeViews  [2]IndexView
	autonomousViews [2]IndexView
}

func New(t Tables) (*AtomicData, error) {
	if len(t.ChargeStates) != int(t.NuclearCharge) {
		return nil, fmt.Errorf("%s: expected %d charge states, got %d", t.Name, t.NuclearCharge, len(t.ChargeStates))
	}
	d := &AtomicData{
		Name:          t.Name,
		NuclearCharge: t.NuclearCharge,
		NMax:          t.NMax,
		ChargeStates:  t.ChargeStates,
		States:        t.States,
		BoundBound:    t.BoundBound,
		BoundFree:     t.BoundFree,
		Autonomous:    t.Autonomous,
		stateIndex:    make(map[uint64]uint32, len(t.States)),
	}

	d.cumulativeIonization = make([]float64, int(t.NuclearCharge)+1)
	for q, cs := range t.ChargeStates {
		if cs.IonizationEnergy <= 0 {
			return nil, fmt.Errorf("%s: non-positive ionization energy of charge state %d", t.Name, q)
		}
		d.cumulativeIonization[q+1] = d.cumulativeIonization[q] + cs.IonizationEnergy
	}

	d.groundStates = make([]int64, int(t.NuclearCharge)+1)
	for q := range d.groundStates {
		d.groundStates[q] = -1
	}
	for i := range d.States {
		s := &d.States[i]
		if len(s.Levels) != int(t.NMax) {
			return nil, fmt.Errorf("%w: state %d has %d levels, NMax is %d", ErrInvalidState, i, len(s.Levels), t.NMax)
		}
		if _, duplicate := d.stateIndex[s.ConfigNumber]; duplicate {
			return nil, fmt.Errorf("%w: duplicate configuration %d", ErrInvalidState, s.ConfigNumber)
		}
		d.stateIndex[s.ConfigNumber] = uint32(i)
		g := d.groundStates[s.Charge]
		if g < 0 || s.Energy < d.States[g].Energy {
			d.groundStates[s.Charge] = int64(i)
		}
	}

	numberStates := len(d.States)
	for i, tr := range d.BoundBound {
		if err := d.checkPair(tr.Lower, tr.Upper); err != nil {
			return nil, fmt.Errorf("bound-bound transition %d: %w", i, err)
		}
		if d.States[tr.Lower].Charge != d.States[tr.Upper].Charge {
			return nil, fmt.Errorf("bound-bound transition %d changes charge", i)
		}
		if d.States[tr.Upper].Energy <= d.States[tr.Lower].Energy {
			return nil, fmt.Errorf("bound-bound transition %d: upper state is not above lower state", i)
		}
	}
	for i, tr := range d.BoundFree {
		if err := d.checkPair(tr.Lower, tr.Upper); err != nil {
			return nil, fmt.Errorf("bound-free transition %d: %w", i, err)
		}
		if d.States[tr.Upper].Charge <= d.States[tr.Lower].Charge {
			return nil, fmt.Errorf("bound-free transition %d does not ionize", i)
		}
	}
	for i, tr := range d.Autonomous {
		if err := d.checkPair(tr.Lower, tr.Upper); err != nil {
			return nil, fmt.Errorf("autonomous transition %d: %w", i, err)
		}
		if d.States[tr.Lower].Charge <= d.States[tr.Upper].Charge {
			return nil, fmt.Errorf("autonomous transition %d does not ionize", i)
		}
		if tr.Rate < 0 {
			return nil, fmt.Errorf("autonomous transition %d has negative rate", i)
		}
	}

	d.boundBoundViews = views(numberStates, len(d.BoundBound),
		func(t int) uint32 { return d.BoundBound[t].Lower },
		func(t int) uint32 { return d.BoundBound[t].Upper })
	d.boundFreeViews = views(numberStates, len(d.BoundFree),
		func(t int) uint32 { return d.BoundFree[t].Lower },
		func(t int) uint32 { return d.BoundFree[t].Upper })
	d.autonomousViews = views(numberStates, len(d.Autonomous),
		func(t int) uint32 { return d.Autonomous[t].Lower },
		func(t int) uint32 { return d.Autonomous[t].Upper })

	d.pressureIonizationState = make([]int64, numberStates)
	for i := range d.States {
		d.pressureIonizationState[i] = -1
		if q := d.States[i].Charge; q < t.NuclearCharge {
			d.pressureIonizationState[i] = d.groundStates[q+1]
		}
	}
	for from, to := range t.PressureIonization {
		if err := d.checkPair(from, to); err != nil {
			return nil, fmt.Errorf("pressure ionization state: %w", err)
		}
		if d.States[to].Charge <= d.States[from].Charge {
			return nil, fmt.Errorf("pressure ionization state of %d does not ionize", from)
		}
		d.pressureIonizationState[from] = int64(to)
	}
	return d, nil
}

func (d *AtomicData) checkPair(lower, upper uint32) error {
	if int(lower) >= len(d.States) || int(upper) >= len(d.States) {
		return fmt.Errorf("%w: index out of range (%d, %d) of %d", ErrInvalidState, lower, upper, len(d.States))
	}
	if lower == upper {
		return fmt.Errorf("%w: transition onto itself (%d)", ErrInvalidState, lower)
	}
	return nil
}

func (d *AtomicData) NumberStates() int {
	return len(d.States)
}

func (d *AtomicData) StateIndex(configNumber uint64) (uint32, bool) {
	i, ok := d.stateIndex[configNumber]
	return i, ok
}

func (d *AtomicData) GroundState(charge uint8) (uint32, bool) {
	if int(charge) >= len(d.groundStates) || d.groundStates[charge] < 0 {
		return 0, false
	}
	return uint32(d.groundStates[charge]), true
}

func (d *AtomicData) PressureIonizationState(state uint32) (uint32, bool) {
	s := d.pressureIonizationState[state]
	if s < 0 {
		return 0, false
	}
	return uint32(s), true
}

// TotalEnergy is the energy of state above the ground state of the neutral atom [eV].
func (d *AtomicData) TotalEnergy(state uint32) float64 {
	s := &d.States[state]
	return d.cumulativeIonization[s.Charge] + s.Energy
}

// StateIonizationEnergy is the energy needed to remove one electron from state,
// reaching the ground state of the next charge state [eV].
func (d *AtomicData) StateIonizationEnergy(state uint32) float64 {
	s := &d.States[state]
	if s.Charge >= d.NuclearCharge {
		return math.Inf(1)
	}
	return d.ChargeStates[s.Charge].IonizationEnergy - s.Energy
}

func (d *AtomicData) BoundBoundEnergy(transition uint32) float64 {
	t := &d.BoundBound[transition]
	return d.States[t.Upper].Energy - d.States[t.Lower].Energy
}

func (d *AtomicData) BoundFreeEnergy(transition uint32) float64 {
	t := &d.BoundFree[transition]
	return d.TotalEnergy(t.Upper) - d.TotalEnergy(t.Lower)
}

// AutonomousEnergy is the kinetic energy released with the autoionization electron.
func (d *AtomicData) AutonomousEnergy(transition uint32) float64 {
	t := &d.Autonomous[transition]
	return max(d.TotalEnergy(t.Upper)-d.TotalEnergy(t.Lower), 0)
}

// ChargeChange is the number of electrons freed when going from -> to.
func (d *AtomicData) ChargeChange(from, to uint32) int {
	return int(d.States[to].Charge) - int(d.States[from].Charge)
}

func (d *AtomicData) BoundBoundFrom(state uint32, ordering Ordering) []uint32 {
	return d.boundBoundViews[ordering].Of(state)
}

func (d *AtomicData) BoundFreeFrom(state uint32, ordering Ordering) []uint32 {
	return d.boundFreeViews[ordering].Of(state)
}

func (d *AtomicData) AutonomousFrom(state uint32, ordering Ordering) []uint32 {
	return d.autonomousViews[ordering].Of(state)
}
