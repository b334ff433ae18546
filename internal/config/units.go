package config

import "github.com/wildstyl3r/apcycle/internal/utils"

// energies are kept in eV internally, everything else in SI
var unitToSI = map[string]float64{
	"m":   1,     // [m]
	"cm":  1e-2,  // [m]
	"mm":  1e-3,  // [m]
	"um":  1e-6,  // [m]
	"nm":  1e-9,  // [m]
	"s":   1,     // [s]
	"ns":  1e-9,  // [s]
	"ps":  1e-12, // [s]
	"fs":  1e-15, // [s]
	"as":  1e-18, // [s]
	"eV":  1,     // [eV]
	"keV": 1e3,   // [eV]
	"MeV": 1e6,   // [eV]
	"J":   1. / 1.602176634e-19,
}

type UnitClass int

const (
	Length UnitClass = iota
	Time
	Energy
)

var unitsInClass = map[UnitClass][]string{
	Length: {"nm", "um", "mm", "cm", "m"},
	Time:   {"as", "fs", "ps", "ns", "s"},
	Energy: {"eV", "keV", "MeV", "J"},
}

var classesOfUnits = map[string]UnitClass{
	"m":   Length,
	"cm":  Length,
	"mm":  Length,
	"um":  Length,
	"nm":  Length,
	"s":   Time,
	"ns":  Time,
	"ps":  Time,
	"fs":  Time,
	"as":  Time,
	"eV":  Energy,
	"keV": Energy,
	"MeV": Energy,
	"J":   Energy,
}

type UnitElement = struct {
	Class UnitClass
	Power int
}

var defaultUnits = []string{"s", "eV", "m"}

func checkUnits(units []string) (extended, conflicts []string) {
	classes := map[UnitClass]struct{}{}
	for _, unit := range units {
		class, known := classesOfUnits[unit]
		if !known {
			conflicts = append(conflicts, unit)
			continue
		}
		if _, some := classes[class]; some {
			conflicts = append(conflicts, unit)
		} else {
			classes[class] = struct{}{}
		}
	}
	extended = append([]string(nil), units...)
	for _, unit := range defaultUnits {
		if _, some := classes[classesOfUnits[unit]]; !some {
			extended = append(extended, unit)
		}
	}
	return
}

// SI converts v given in units into internal units (direct) or back (!direct).
func SI(v float64, classes []UnitElement, units []string, direct bool) float64 {
	for i := range classes {
		uc := classes[i]
		unit := utils.Intersect(unitsInClass[uc.Class], units)
		if unit == nil {
			continue
		}
		absPower := utils.IntAbs(uc.Power)
		if direct {
			if uc.Power > 0 {
				for range absPower {
					v *= unitToSI[*unit]
				}
			} else {
				for range absPower {
					v /= unitToSI[*unit]
				}
			}
		} else {
			if uc.Power > 0 {
				for range absPower {
					v /= unitToSI[*unit]
				}
			} else {
				for range absPower {
					v *= unitToSI[*unit]
				}
			}
		}
	}
	return v
}
