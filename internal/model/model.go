// Package model runs the atomic physics sub-cycling loop of every local
// supercell over one outer time step.
package model

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wildstyl3r/apcycle/internal/atomicdata"
	"github.com/wildstyl3r/apcycle/internal/config"
	"github.com/wildstyl3r/apcycle/internal/fields"
	"github.com/wildstyl3r/apcycle/internal/ipd"
	"github.com/wildstyl3r/apcycle/internal/particles"
	"github.com/wildstyl3r/apcycle/internal/ratecache"
)

// Species describes one ion species taking part in atomic physics.
type Species struct {
	Name      string
	Data      *atomicdata.AtomicData
	Processes config.Processes
	IPD       ipd.Model
	Circular  bool // polarization used by field ionization
	Ions      *particles.IonSpecies

	channels   []channel
	rateCaches []ratecache.RateCache
}

func NewSpecies(name string, data *atomicdata.AtomicData, p config.SpeciesParameters, ions *particles.IonSpecies) (*Species, error) {
	ipdModel, err := ipd.New(p.IPD)
	if err != nil {
		return nil, fmt.Errorf("species %s: %w", name, err)
	}
	return &Species{
		Name:      name,
		Data:      data,
		Processes: p.Processes,
		IPD:       ipdModel,
		Circular:  p.Polarization == "circular",
		Ions:      ions,
	}, nil
}

// Register creates the per-species fields.
func Register(registry *fields.Registry, species ...*Species) error {
	for _, s := range species {
		if err := registry.CreateRateCache(s.Name, s.Data.NumberStates()); err != nil {
			return err
		}
	}
	return nil
}

type stepStats struct {
	accepted       atomic.Int64
	rejected       atomic.Int64
	overSubscribed atomic.Int64
	ipdIonizations atomic.Int64
}

type Model struct {
	Parameters config.Config
	Registry   *fields.Registry
	EField     fields.EFieldService
	Electrons  *particles.Electrons
	IDs        *particles.IDProvider
	Species    []*Species

	superCells [][3]int // halo-inclusive
	volume     float64  // of a supercell [m^3]
	step       uint32
	anyIPD     bool
	stats      stepStats
}

// New resolves every field the pipeline uses; a species whose fields were not
// registered is a setup error.
func New(parameters config.Config, registry *fields.Registry, efield fields.EFieldService, electrons *particles.Electrons, ids *particles.IDProvider, species ...*Species) (*Model, error) {
	m := &Model{
		Parameters: parameters,
		Registry:   registry,
		EField:     efield,
		Electrons:  electrons,
		IDs:        ids,
		Species:    species,
		superCells: registry.Mapping.SuperCells(),
		volume:     parameters.Grid.SuperCellVolume(),
	}
	if m.volume <= 0 {
		return nil, fmt.Errorf("supercell volume must be positive, got %g", m.volume)
	}
	n := registry.NumberSuperCells()
	if len(electrons.SuperCells) != n {
		return nil, fmt.Errorf("electrons cover %d supercells, fields cover %d", len(electrons.SuperCells), n)
	}
	for _, s := range species {
		caches, err := registry.RateCaches(s.Name)
		if err != nil {
			return nil, fmt.Errorf("species %s: %w", s.Name, err)
		}
		if len(s.Ions.SuperCells) != n {
			return nil, fmt.Errorf("species %s: ions cover %d supercells, fields cover %d", s.Name, len(s.Ions.SuperCells), n)
		}
		s.rateCaches = caches
		s.channels = newChannels(s.Processes)
		if _, none := s.IPD.(ipd.None); !none {
			m.anyIPD = true
		}
		if m.Parameters.Verbose {
			fmt.Printf("%s: %d states, %d channels, IPD %s\n", s.Name, s.Data.NumberStates(), len(s.channels), s.IPD.Name())
		}
	}
	return m, nil
}

// forEachSuperCell is one kernel launch: kernel runs once per local supercell
// on the worker pool and returns after all supercells are done. Workers are
// handed halo-inclusive supercells and call kernel with the field index.
func (m *Model) forEachSuperCell(activeOnly bool, kernel func(superCell int)) {
	mapping := m.Registry.Mapping
	computeflow := make(chan [3]int, len(m.superCells))
	for _, superCell := range m.superCells {
		computeflow <- superCell
	}
	close(computeflow)

	var computeWg sync.WaitGroup
	for range max(1, min(m.Parameters.Threads, len(m.superCells))) {
		computeWg.Add(1)
		go func() {
			defer computeWg.Done()
			for superCell := range computeflow {
				index, local := mapping.FieldIndex(superCell)
				if !local {
					continue
				}
				if activeOnly && m.Registry.TimeRemaining[index] <= 0 {
					continue
				}
				kernel(index)
			}
		}()
	}
	computeWg.Wait()
}

func (m *Model) anyActive() bool {
	for _, tr := range m.Registry.TimeRemaining {
		if tr > 0 {
			return true
		}
	}
	return false
}

// Run advances the atomic states of all ions over outer step.
func (m *Model) Run(step uint32) {
	m.beginStep(step)
	for m.anyActive() {
		m.subStep()
	}
	m.forEachSuperCell(false, m.decelerateElectrons)
	if m.Parameters.Verbose {
		fmt.Printf("step %d: %d sub-steps at most, %d accepted, %d rejected, %d IPD ionizations\n",
			step, maxSubSteps(m.Registry.SubSteps), m.stats.accepted.Load(), m.stats.rejected.Load(), m.stats.ipdIonizations.Load())
	}
}

func (m *Model) beginStep(step uint32) {
	m.step = step
	m.stats.accepted.Store(0)
	m.stats.rejected.Store(0)
	m.stats.overSubscribed.Store(0)
	m.stats.ipdIonizations.Store(0)
	timeRemaining := m.Parameters.TimeStep
	if len(m.Species) == 0 {
		timeRemaining = 0
	}
	m.forEachSuperCell(false, func(superCell int) {
		m.Registry.TimeRemaining[superCell] = timeRemaining
		m.Registry.SubSteps[superCell] = 0
		m.binElectrons(superCell)
		m.calculateIPDInput(superCell)
	})
}

func (m *Model) subStep() {
	m.forEachSuperCell(true, m.resetTimeStep)
	m.forEachSuperCell(true, m.resetRateCache)
	m.forEachSuperCell(true, m.fillRateCache)
	m.forEachSuperCell(true, m.chooseTimeStep)
	m.forEachSuperCell(true, m.chooseTransition)
	for pass := range m.Parameters.AtomicPhysics.MaxRejectionPasses {
		var flagged atomic.Int64
		m.forEachSuperCell(true, func(superCell int) {
			flagged.Add(int64(m.checkForOverSubscription(superCell)))
		})
		if flagged.Load() == 0 {
			break
		}
		m.stats.overSubscribed.Add(flagged.Load())
		m.forEachSuperCell(true, func(superCell int) {
			m.rollForOverSubscription(superCell, pass)
		})
	}
	m.forEachSuperCell(true, m.recordChanges)
	m.ipdIonization()
	m.forEachSuperCell(true, m.updateTimeRemaining)
}

func maxSubSteps(subSteps []uint32) (r uint32) {
	for _, s := range subSteps {
		r = max(r, s)
	}
	return
}
