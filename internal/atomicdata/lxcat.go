package atomicdata

import (
	"fmt"

	"github.com/wildstyl3r/lxgata"
)

// crossSectionBinding attaches the Index-th collision of an LXCat file to the
// transition of class Kind between states Lower and Upper.
type crossSectionBinding struct {
	Kind         string // "BoundBound" | "BoundFree"
	Index        int
	Lower, Upper int
}

func bindCrossSections(t *Tables, path string, bindings []crossSectionBinding) error {
	collisions, err := lxgata.LoadCrossSections(path)
	if err != nil {
		return fmt.Errorf("unable to load cross sections: %w", err)
	}
	for _, b := range bindings {
		if b.Index < 0 || b.Index >= len(collisions) {
			return fmt.Errorf("cross section index %d out of range, %s has %d collisions", b.Index, path, len(collisions))
		}
		collision := &collisions[b.Index]
		lower, upper := uint32(b.Lower), uint32(b.Upper)
		switch b.Kind {
		case "BoundBound":
			if collision.Type != lxgata.EXCITATION {
				return fmt.Errorf("cross section %d is %s, bound-bound needs %s", b.Index, collision.Type, lxgata.EXCITATION)
			}
			i := findTransition(len(t.BoundBound), func(i int) bool {
				return t.BoundBound[i].Lower == lower && t.BoundBound[i].Upper == upper
			})
			if i < 0 {
				return fmt.Errorf("no bound-bound transition %d -> %d to bind cross section %d", b.Lower, b.Upper, b.Index)
			}
			t.BoundBound[i].CrossSection = collision
		case "BoundFree":
			if collision.Type != lxgata.IONIZATION {
				return fmt.Errorf("cross section %d is %s, bound-free needs %s", b.Index, collision.Type, lxgata.IONIZATION)
			}
			i := findTransition(len(t.BoundFree), func(i int) bool {
				return t.BoundFree[i].Lower == lower && t.BoundFree[i].Upper == upper
			})
			if i < 0 {
				return fmt.Errorf("no bound-free transition %d -> %d to bind cross section %d", b.Lower, b.Upper, b.Index)
			}
			t.BoundFree[i].CrossSection = collision
		default:
			return fmt.Errorf("unknown cross section kind %q", b.Kind)
		}
	}
	return nil
}

func findTransition(n int, match func(int) bool) int {
	for i := range n {
		if match(i) {
			return i
		}
	}
	return -1
}
