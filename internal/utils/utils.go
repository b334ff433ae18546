package utils

import (
	"math"
	"slices"

	"github.com/wildstyl3r/apcycle/internal/constants"
)

func IntAbs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// Intersect returns the first element of a also present in b.
func Intersect(a, b []string) *string {
	for i := range a {
		if slices.Contains(b, a[i]) {
			return &a[i]
		}
	}
	return nil
}

func EV2J(val float64) float64 {
	return val * constants.ElectronCharge
}

// relativistic, [m/s]
func EV2electronVelocityRelativistic(energy float64) float64 {
	if energy <= 0 {
		return 0
	}
	gamma := 1. + energy/constants.ElectronRestEnergy
	return constants.SpeedOfLight * math.Sqrt(math.FMA(-1./gamma, 1./gamma, 1.))
}

func Binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	r := 1.
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return r
}
