// Package rates holds the cross sections and rate formulas of the transition
// channels. Energies are in eV, cross sections in m^2, rates in 1/s.
package rates

import (
	"math"

	"github.com/wildstyl3r/apcycle/internal/constants"
	"github.com/wildstyl3r/apcycle/internal/utils"
)

// Tabulated is a cross section given on an energy grid, e.g. an LXCat collision.
type Tabulated interface {
	CrossSectionAt(energy float64) float64
}

// CollisionalRate of one target against electrons of density [m^-3] at energy.
func CollisionalRate(crossSection, energy, density float64) float64 {
	if crossSection <= 0 || density <= 0 {
		return 0
	}
	return crossSection * utils.EV2electronVelocityRelativistic(energy) * density
}

// Gaunt is the effective Gaunt factor at reduced energy u = E/dE.
func Gaunt(u float64, c [5]float64) float64 {
	if u < 1 {
		return 0
	}
	if c == [5]float64{} {
		return max(0.2, math.Sqrt(3)/(2*math.Pi)*math.Log(u))
	}
	g := c[0]*math.Log(u) + c[1]
	if x := u + c[3]; x != 0 {
		g += c[2]/x + c[4]/(x*x)
	}
	return max(g, 0)
}

// VanRegemorter electron impact excitation cross section.
func VanRegemorter(energy, deltaE, oscillatorStrength float64, gaunt [5]float64) float64 {
	if deltaE <= 0 || energy < deltaE {
		return 0
	}
	return 8 * math.Pi / math.Sqrt(3) * math.Pi * constants.BohrRadius * constants.BohrRadius *
		constants.Rydberg * constants.Rydberg / (energy * deltaE) *
		oscillatorStrength * Gaunt(energy/deltaE, gaunt)
}

// Deexcitation cross section from the excitation one by detailed balance.
func Deexcitation(energy, deltaE, gLower, gUpper float64, excitation func(energy float64) float64) float64 {
	if energy <= 0 || gUpper <= 0 {
		return 0
	}
	return gLower / gUpper * (energy + deltaE) / energy * excitation(energy+deltaE)
}

// EinsteinA spontaneous emission coefficient from the absorption oscillator strength.
func EinsteinA(deltaE, gLower, gUpper, absorptionOscillatorStrength float64) float64 {
	if deltaE <= 0 || gUpper <= 0 {
		return 0
	}
	nu := utils.EV2J(deltaE) / constants.Planck
	e2 := constants.ElectronCharge * constants.ElectronCharge
	c3 := constants.SpeedOfLight * constants.SpeedOfLight * constants.SpeedOfLight
	return 2 * math.Pi * e2 * nu * nu /
		(constants.FreeSpacePermittivityE0 * constants.ElectornMass * c3) *
		gLower / gUpper * absorptionOscillatorStrength
}

// Lotz electron impact ionization cross section for q electrons in the outer shell.
func Lotz(energy, ionizationEnergy, a float64, q int) float64 {
	if ionizationEnergy <= 0 {
		return 0 // pressure ionized, handled outside the stochastic selection
	}
	if energy <= ionizationEnergy || q <= 0 {
		return 0
	}
	if a == 0 {
		a = constants.LotzConstant
	}
	return a * float64(q) * math.Log(energy/ionizationEnergy) / (energy * ionizationEnergy)
}

// ADK tunnelling ionization rate of an ion with ionization energy [eV] whose
// residual charge after ionization is z, in a field [V/m].
func ADK(ionizationEnergy float64, z int, field float64, circular bool) float64 {
	if ionizationEnergy <= 0 || field <= 0 || z <= 0 {
		return 0
	}
	ip := ionizationEnergy / constants.Hartree
	f := field / constants.AtomicUnitElectricField
	kappa3 := math.Pow(2*ip, 1.5)
	nStar := float64(z) / math.Sqrt(2*ip)

	lgNp1, _ := math.Lgamma(nStar + 1)
	lgN, _ := math.Lgamma(nStar)
	logC2 := 2*nStar*math.Ln2 - math.Log(nStar) - lgNp1 - lgN

	logW := logC2 + math.Log(ip) + (2*nStar-1)*math.Log(2*kappa3/f) - 2*kappa3/(3*f)
	if !circular {
		logW += 0.5 * math.Log(3*f/(math.Pi*kappa3))
	}
	return math.Exp(logW) / constants.AtomicUnitTime
}
