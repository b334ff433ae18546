// Package fields owns the per-supercell state of the atomic physics loop.
//
// Every field is a dense slice over the local supercells. Workers address
// supercells in halo-inclusive coordinates and translate them with
// Mapping.FieldIndex; guard supercells are never stored.
package fields

import (
	"errors"
	"fmt"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/apcycle/internal/histogram"
	"github.com/wildstyl3r/apcycle/internal/ipd"
	"github.com/wildstyl3r/apcycle/internal/ratecache"
)

var (
	ErrNotRegistered     = errors.New("field not registered")
	ErrAlreadyRegistered = errors.New("field already registered")
)

type Mapping struct {
	LocalSuperCells [3]int
	GuardSuperCells [3]int
}

func NewMapping(local, guard []int) (Mapping, error) {
	var m Mapping
	if len(local) != 3 || len(guard) != 3 {
		return m, fmt.Errorf("supercell layout needs 3 components, got %v and %v", local, guard)
	}
	for i := range 3 {
		if local[i] < 1 || guard[i] < 0 {
			return m, fmt.Errorf("invalid supercell layout %v, guard %v", local, guard)
		}
		m.LocalSuperCells[i] = local[i]
		m.GuardSuperCells[i] = guard[i]
	}
	return m, nil
}

func (m Mapping) NumberSuperCells() int {
	return m.LocalSuperCells[0] * m.LocalSuperCells[1] * m.LocalSuperCells[2]
}

// FieldIndex maps a halo-inclusive supercell to its field index, x fastest.
func (m Mapping) FieldIndex(superCell [3]int) (int, bool) {
	index, stride := 0, 1
	for i := range 3 {
		local := superCell[i] - m.GuardSuperCells[i]
		if local < 0 || local >= m.LocalSuperCells[i] {
			return 0, false
		}
		index += local * stride
		stride *= m.LocalSuperCells[i]
	}
	return index, true
}

// SuperCell is the inverse of FieldIndex.
func (m Mapping) SuperCell(index int) [3]int {
	var s [3]int
	for i := range 3 {
		s[i] = index%m.LocalSuperCells[i] + m.GuardSuperCells[i]
		index /= m.LocalSuperCells[i]
	}
	return s
}

// SuperCells lists the local supercells in halo-inclusive coordinates, in field order.
func (m Mapping) SuperCells() [][3]int {
	s := make([][3]int, m.NumberSuperCells())
	for i := range s {
		s[i] = m.SuperCell(i)
	}
	return s
}

// Registry holds every per-supercell field, created once at setup.
type Registry struct {
	Mapping Mapping
	Binning *histogram.Binning

	Histograms           []histogram.Histogram
	TimeRemaining        []float64 // [s]
	TimeStep             []float64 // [s]
	SubSteps             []uint32
	OverSubscribed       [][]bool
	RejectionProbability [][]float64
	FoundUnbound         []atomic.Uint32
	IPDInputs            []ipd.Inputs

	rateCaches map[string][]ratecache.RateCache
}

func New(mapping Mapping, binning *histogram.Binning) *Registry {
	n := mapping.NumberSuperCells()
	bins := binning.NumberBins()
	r := &Registry{
		Mapping:              mapping,
		Binning:              binning,
		Histograms:           make([]histogram.Histogram, n),
		TimeRemaining:        make([]float64, n),
		TimeStep:             make([]float64, n),
		SubSteps:             make([]uint32, n),
		OverSubscribed:       make([][]bool, n),
		RejectionProbability: make([][]float64, n),
		FoundUnbound:         make([]atomic.Uint32, n),
		IPDInputs:            make([]ipd.Inputs, n),
		rateCaches:           make(map[string][]ratecache.RateCache),
	}
	for i := range n {
		r.Histograms[i] = histogram.New(binning)
		r.OverSubscribed[i] = make([]bool, bins)
		r.RejectionProbability[i] = make([]float64, bins)
	}
	return r
}

func (r *Registry) NumberSuperCells() int {
	return len(r.TimeRemaining)
}

// CreateRateCache adds the rate cache field of one ion species.
func (r *Registry) CreateRateCache(species string, numberStates int) error {
	if _, exists := r.rateCaches[species]; exists {
		return fmt.Errorf("rate cache of %s: %w", species, ErrAlreadyRegistered)
	}
	caches := make([]ratecache.RateCache, r.NumberSuperCells())
	for i := range caches {
		caches[i] = ratecache.New(numberStates)
	}
	r.rateCaches[species] = caches
	return nil
}

func (r *Registry) RateCaches(species string) ([]ratecache.RateCache, error) {
	caches, ok := r.rateCaches[species]
	if !ok {
		return nil, fmt.Errorf("rate cache of %s: %w", species, ErrNotRegistered)
	}
	return caches, nil
}

// EFieldService provides the electric field of a halo-inclusive supercell [V/m].
type EFieldService interface {
	At(superCell [3]int) r3.Vec
}

type UniformEField struct {
	Field r3.Vec
}

func (u UniformEField) At([3]int) r3.Vec {
	return u.Field
}
