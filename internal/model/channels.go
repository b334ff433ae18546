package model

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/apcycle/internal/atomicdata"
	"github.com/wildstyl3r/apcycle/internal/config"
	"github.com/wildstyl3r/apcycle/internal/histogram"
	"github.com/wildstyl3r/apcycle/internal/ipd"
	"github.com/wildstyl3r/apcycle/internal/particles"
	"github.com/wildstyl3r/apcycle/internal/rates"
)

// cell is what the transition channels see of one supercell.
type cell struct {
	superCell int
	histogram *histogram.Histogram
	inputs    ipd.Inputs
	field     float64 // |E| [V/m]
	volume    float64
}

func (m *Model) cell(superCell int) *cell {
	return &cell{
		superCell: superCell,
		histogram: &m.Registry.Histograms[superCell],
		inputs:    m.Registry.IPDInputs[superCell],
		field:     r3.Norm(m.EField.At(m.Registry.Mapping.SuperCell(superCell))),
		volume:    m.volume,
	}
}

type visitor func(candidate particles.Transition, rate float64)

// collisional visits every bin at or above threshold with the rate of
// crossSection against the bin's available electrons.
func (c *cell) collisional(threshold float64, crossSection func(energy float64) float64, visit func(bin int, rate float64)) {
	for b := range c.histogram.Bins {
		energy := c.histogram.Bins[b].Energy
		if energy < threshold || energy <= 0 {
			continue
		}
		available := c.histogram.Available(b)
		if available <= 0 {
			continue
		}
		if rate := rates.CollisionalRate(crossSection(energy), energy, available/c.volume); rate > 0 {
			visit(b, rate)
		}
	}
}

// channel is one enabled transition process. It enumerates the transitions
// leaving a state, using the ordering in which that state is the source.
type channel interface {
	candidates(s *Species, c *cell, state uint32, visit visitor)
}

func newChannels(p config.Processes) []channel {
	var channels []channel
	if p.ElectronicExcitation {
		channels = append(channels, electronicExcitation{})
	}
	if p.ElectronicDeexcitation {
		channels = append(channels, electronicDeexcitation{})
	}
	if p.SpontaneousDeexcitation {
		channels = append(channels, spontaneousDeexcitation{})
	}
	if p.ElectronicIonization {
		channels = append(channels, electronicIonization{})
	}
	if p.FieldIonization {
		channels = append(channels, fieldIonization{})
	}
	if p.AutonomousIonization {
		channels = append(channels, autonomousIonization{})
	}
	return channels
}

func tabulated(t rates.Tabulated) func(float64) float64 {
	return t.CrossSectionAt
}

func excitationCrossSection(d *atomicdata.AtomicData, t uint32) func(float64) float64 {
	tr := &d.BoundBound[t]
	if tr.CrossSection != nil {
		return tabulated(tr.CrossSection)
	}
	deltaE := d.BoundBoundEnergy(t)
	return func(energy float64) float64 {
		return rates.VanRegemorter(energy, deltaE, tr.CollisionalOscillatorStrength, tr.Gaunt)
	}
}

// ionizationEnergy of a bound-free transition lowered by the plasma environment.
func (s *Species) ionizationEnergy(c *cell, t uint32) float64 {
	lower := s.Data.States[s.Data.BoundFree[t].Lower].Charge
	return s.Data.BoundFreeEnergy(t) - s.IPD.Depression(c.inputs, lower)
}

type electronicExcitation struct{}

func (electronicExcitation) candidates(s *Species, c *cell, state uint32, visit visitor) {
	for _, t := range s.Data.BoundBoundFrom(state, atomicdata.ByLowerState) {
		upper := s.Data.BoundBound[t].Upper
		c.collisional(s.Data.BoundBoundEnergy(t), excitationCrossSection(s.Data, t), func(bin int, rate float64) {
			visit(particles.Transition{Class: atomicdata.BoundBound, Index: t, Target: upper, Bin: bin}, rate)
		})
	}
}

type electronicDeexcitation struct{}

func (electronicDeexcitation) candidates(s *Species, c *cell, state uint32, visit visitor) {
	for _, t := range s.Data.BoundBoundFrom(state, atomicdata.ByUpperState) {
		tr := &s.Data.BoundBound[t]
		deltaE := s.Data.BoundBoundEnergy(t)
		gLower, gUpper := s.Data.States[tr.Lower].StatisticalWeight, s.Data.States[tr.Upper].StatisticalWeight
		excitation := excitationCrossSection(s.Data, t)
		crossSection := func(energy float64) float64 {
			return rates.Deexcitation(energy, deltaE, gLower, gUpper, excitation)
		}
		c.collisional(0, crossSection, func(bin int, rate float64) {
			visit(particles.Transition{Class: atomicdata.BoundBound, Index: t, Target: tr.Lower, Bin: bin}, rate)
		})
	}
}

type spontaneousDeexcitation struct{}

func (spontaneousDeexcitation) candidates(s *Species, _ *cell, state uint32, visit visitor) {
	for _, t := range s.Data.BoundBoundFrom(state, atomicdata.ByUpperState) {
		tr := &s.Data.BoundBound[t]
		a := rates.EinsteinA(s.Data.BoundBoundEnergy(t),
			s.Data.States[tr.Lower].StatisticalWeight, s.Data.States[tr.Upper].StatisticalWeight,
			tr.AbsorptionOscillatorStrength)
		if a > 0 {
			visit(particles.Transition{Class: atomicdata.BoundBound, Index: t, Target: tr.Lower, Bin: -1}, a)
		}
	}
}

type electronicIonization struct{}

func (electronicIonization) candidates(s *Species, c *cell, state uint32, visit visitor) {
	q := s.Data.States[state].OuterShellElectrons()
	for _, t := range s.Data.BoundFreeFrom(state, atomicdata.ByLowerState) {
		tr := &s.Data.BoundFree[t]
		ionizationEnergy := s.ionizationEnergy(c, t)
		if ionizationEnergy <= 0 {
			continue
		}
		crossSection := func(energy float64) float64 {
			return rates.Lotz(energy, ionizationEnergy, tr.LotzA, q)
		}
		if tr.CrossSection != nil {
			crossSection = tabulated(tr.CrossSection)
		}
		c.collisional(ionizationEnergy, crossSection, func(bin int, rate float64) {
			visit(particles.Transition{Class: atomicdata.BoundFree, Index: t, Target: tr.Upper, Bin: bin}, rate)
		})
	}
}

type fieldIonization struct{}

func (fieldIonization) candidates(s *Species, c *cell, state uint32, visit visitor) {
	if c.field <= 0 {
		return
	}
	for _, t := range s.Data.BoundFreeFrom(state, atomicdata.ByLowerState) {
		tr := &s.Data.BoundFree[t]
		if s.Data.ChargeChange(tr.Lower, tr.Upper) != 1 {
			continue
		}
		residualCharge := int(s.Data.States[tr.Upper].Charge)
		rate := rates.ADK(s.ionizationEnergy(c, t), residualCharge, c.field, s.Circular)
		if rate > 0 {
			visit(particles.Transition{Class: atomicdata.BoundFree, Index: t, Target: tr.Upper, Bin: -1}, rate)
		}
	}
}

type autonomousIonization struct{}

func (autonomousIonization) candidates(s *Species, _ *cell, state uint32, visit visitor) {
	for _, t := range s.Data.AutonomousFrom(state, atomicdata.ByUpperState) {
		tr := &s.Data.Autonomous[t]
		if tr.Rate > 0 {
			visit(particles.Transition{Class: atomicdata.Autonomous, Index: t, Target: tr.Lower, Bin: -1}, tr.Rate)
		}
	}
}
