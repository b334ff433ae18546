// Package histogram bins the electron macro-particles of a supercell by kinetic
// energy. Bins are the "fuel" consumed by collisional transitions.
package histogram

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/wildstyl3r/apcycle/internal/utils"
)

// Binning is the bin layout shared by all histograms of a run.
type Binning struct {
	Edges []float64 // [eV], len = bins + 1
}

// NewBinning spans [0, maxEnergy]. With logScale the first bin is [0, minEnergy]
// and the rest are logarithmic between minEnergy and maxEnergy.
func NewBinning(numberBins int, minEnergy, maxEnergy float64, logScale bool) *Binning {
	edges := make([]float64, numberBins+1)
	switch {
	case numberBins == 1:
		edges[1] = maxEnergy
	case logScale:
		floats.LogSpan(edges[1:], minEnergy, maxEnergy)
	default:
		floats.Span(edges, 0, maxEnergy)
	}
	return &Binning{Edges: edges}
}

func (b *Binning) NumberBins() int {
	return len(b.Edges) - 1
}

// Index returns the bin holding energy; energies outside [0, max) are not binned.
func (b *Binning) Index(energy float64) (int, bool) {
	if energy < 0 || energy >= b.Edges[len(b.Edges)-1] {
		return 0, false
	}
	i := sort.SearchFloat64s(b.Edges, energy)
	if i < len(b.Edges) && b.Edges[i] == energy {
		return i, true
	}
	return i - 1, true
}

type Bin struct {
	Energy float64 // [eV], central energy
	Width  float64 // [eV]

	Weight0 float64 // at binning time
	Weight  float64 // available, may turn negative transiently

	DeltaWeight utils.AtomicFloat64 // depletion requested in the current sub-step
	DeltaEnergy utils.AtomicFloat64 // [eV], energy handed to the bin's electrons in the current outer step
}

type Histogram struct {
	Binning *Binning
	Bins    []Bin
}

func New(binning *Binning) Histogram {
	h := Histogram{
		Binning: binning,
		Bins:    make([]Bin, binning.NumberBins()),
	}
	for i := range h.Bins {
		lo, hi := binning.Edges[i], binning.Edges[i+1]
		h.Bins[i].Energy = (lo + hi) / 2
		h.Bins[i].Width = hi - lo
	}
	return h
}

// Reset clears all weights before binning.
func (h *Histogram) Reset() {
	for i := range h.Bins {
		h.Bins[i].Weight0 = 0
		h.Bins[i].Weight = 0
		h.Bins[i].DeltaWeight.Store(0)
		h.Bins[i].DeltaEnergy.Store(0)
	}
}

// Add bins one electron macro-particle and returns its bin.
func (h *Histogram) Add(energy, weight float64) (int, bool) {
	i, ok := h.Binning.Index(energy)
	if !ok {
		return 0, false
	}
	h.Bins[i].Weight0 += weight
	h.Bins[i].Weight += weight
	return i, true
}

// Available is the weight rate computations may draw from.
func (h *Histogram) Available(bin int) float64 {
	return max(h.Bins[bin].Weight, 0)
}

func (h *Histogram) Deplete(bin int, weight float64) {
	h.Bins[bin].DeltaWeight.Add(weight)
}

func (h *Histogram) Restore(bin int, weight float64) {
	h.Bins[bin].DeltaWeight.Add(-weight)
}

// OverSubscribed reports whether the requested depletion exceeds the available
// weight by more than tolerance, and the fraction of requests to reject.
func (h *Histogram) OverSubscribed(bin int, tolerance float64) (bool, float64) {
	requested := h.Bins[bin].DeltaWeight.Load()
	available := h.Available(bin)
	if requested <= available*(1+tolerance) || requested <= 0 {
		return false, 0
	}
	return true, (requested - available) / requested
}

// Commit applies the depletion of the sub-step.
func (h *Histogram) Commit() {
	for i := range h.Bins {
		h.Bins[i].Weight -= h.Bins[i].DeltaWeight.Load()
		h.Bins[i].DeltaWeight.Store(0)
	}
}

func (h *Histogram) AddEnergy(bin int, energy float64) {
	h.Bins[bin].DeltaEnergy.Add(energy)
}

func (h *Histogram) Weights() []float64 {
	w := make([]float64, len(h.Bins))
	for i := range h.Bins {
		w[i] = h.Bins[i].Weight
	}
	return w
}

func (h *Histogram) TotalWeight() float64 {
	return floats.Sum(h.Weights())
}
