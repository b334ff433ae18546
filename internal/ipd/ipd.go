// Package ipd implements ionization potential depression models.
package ipd

import (
	"fmt"
	"math"

	"github.com/wildstyl3r/apcycle/internal/constants"
	"github.com/wildstyl3r/apcycle/internal/utils"
)

// Inputs are the plasma parameters of one supercell.
type Inputs struct {
	DebyeLength float64 // [m]
	Temperature float64 // kT [eV]
	ZStar       float64
}

type Model interface {
	Name() string
	// Depression lowers the ionization energy of an ion of charge state [eV].
	Depression(in Inputs, chargeState uint8) float64
}

type None struct{}

func (None) Name() string                     { return "none" }
func (None) Depression(Inputs, uint8) float64 { return 0 }

type StewartPyatt struct{}

func (StewartPyatt) Name() string { return "StewartPyatt" }

func (StewartPyatt) Depression(in Inputs, chargeState uint8) float64 {
	if in.Temperature <= 0 || in.DebyeLength <= 0 || math.IsInf(in.DebyeLength, 1) {
		return 0
	}
	zPlus1 := in.ZStar + 1
	k := float64(chargeState) + 1
	x := 3*zPlus1*k*constants.CoulombEnergyLength/(in.DebyeLength*in.Temperature) + 1
	return in.Temperature / (2 * zPlus1) * (math.Pow(x, 2./3.) - 1)
}

func New(name string) (Model, error) {
	switch name {
	case "", "none":
		return None{}, nil
	case "StewartPyatt":
		return StewartPyatt{}, nil
	}
	return nil, fmt.Errorf("unknown IPD model %q", name)
}

// Accumulator gathers the IPD inputs of one supercell.
type Accumulator struct {
	electronWeight float64
	electronEnergy float64
	chargeWeight   float64 // sum w z
	charge2Weight  float64 // sum w z^2
}

func (a *Accumulator) AddElectron(energy, weight float64) {
	a.electronWeight += weight
	a.electronEnergy += energy * weight
}

func (a *Accumulator) AddIon(charge uint8, weight float64) {
	z := float64(charge)
	a.chargeWeight += weight * z
	a.charge2Weight += weight * z * z
}

// Inputs for a supercell of volume [m^3]. Without electrons the Debye length
// is infinite and no depression applies.
func (a *Accumulator) Inputs(volume float64) Inputs {
	var in Inputs
	if a.chargeWeight > 0 {
		in.ZStar = a.charge2Weight / a.chargeWeight
	}
	if a.electronWeight <= 0 || volume <= 0 {
		in.DebyeLength = math.Inf(1)
		return in
	}
	in.Temperature = 2. / 3. * a.electronEnergy / a.electronWeight
	density := a.electronWeight / volume
	if in.Temperature <= 0 {
		in.DebyeLength = math.Inf(1)
		return in
	}
	e := constants.ElectronCharge
	in.DebyeLength = math.Sqrt(constants.FreeSpacePermittivityE0 * utils.EV2J(in.Temperature) /
		(e * e * density * (in.ZStar + 1)))
	return in
}
