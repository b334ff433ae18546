package model

import (
	"math"
	"sync"

	"github.com/wildstyl3r/apcycle/internal/atomicdata"
	"github.com/wildstyl3r/apcycle/internal/particles"
	"github.com/wildstyl3r/apcycle/internal/rng"
)

// resetTimeStep assumes the supercell finishes within one sub-step.
func (m *Model) resetTimeStep(superCell int) {
	m.Registry.TimeStep[superCell] = m.Registry.TimeRemaining[superCell]
}

// resetRateCache clears the caches and marks the states held by at least one ion.
func (m *Model) resetRateCache(superCell int) {
	for _, s := range m.Species {
		cache := &s.rateCaches[superCell]
		cache.Reset()
		for i := range s.Ions.SuperCells[superCell] {
			cache.SetPresent(s.Ions.SuperCells[superCell][i].State)
		}
	}
}

func (m *Model) fillRateCache(superCell int) {
	c := m.cell(superCell)
	for _, s := range m.Species {
		cache := &s.rateCaches[superCell]
		for state := range uint32(cache.NumberStates()) {
			if !cache.Present(state) {
				continue
			}
			for _, ch := range s.channels {
				ch.candidates(s, c, state, func(_ particles.Transition, rate float64) {
					cache.Add(state, rate)
				})
			}
		}
	}
}

// chooseTimeStep shrinks the sub-step until the fastest state transitions with
// probability of at most ProbabilityApproximationMax.
func (m *Model) chooseTimeStep(superCell int) {
	p := m.Parameters.AtomicPhysics
	timeRemaining := m.Registry.TimeRemaining[superCell]
	dt := m.Registry.TimeStep[superCell]

	var maxRate float64
	for _, s := range m.Species {
		maxRate = max(maxRate, s.rateCaches[superCell].MaxRate())
	}
	if maxRate > 0 {
		dt = min(dt, p.ProbabilityApproximationMax/maxRate)
	}
	dt = max(dt, min(p.MinimumTimeStep, timeRemaining))
	if timeRemaining-dt < p.TimeRemainingTolerance*m.Parameters.TimeStep {
		dt = timeRemaining
	}
	m.Registry.TimeStep[superCell] = dt
}

type candidate struct {
	transition particles.Transition
	cumulative float64
}

// chooseTransition rolls every ion once; accepted ions draw their electron
// weight from the histogram bin of the chosen transition.
func (m *Model) chooseTransition(superCell int) {
	c := m.cell(superCell)
	dt := m.Registry.TimeStep[superCell]
	subStep := m.Registry.SubSteps[superCell]

	for _, s := range m.Species {
		cache := &s.rateCaches[superCell]
		roll := func(ions []particles.Ion) {
			var candidates []candidate
			for i := range ions {
				ion := &ions[i]
				ion.Accepted = false
				rate := cache.Rate(ion.State)
				if rate <= 0 {
					continue
				}
				r := rng.Stream(m.Parameters.Seed, m.step, ion.ID, subStep, rng.Selection)
				if r.Float64() >= -math.Expm1(-rate*dt) {
					continue
				}

				candidates = candidates[:0]
				var total float64
				for _, ch := range s.channels {
					ch.candidates(s, c, ion.State, func(t particles.Transition, rate float64) {
						total += rate
						candidates = append(candidates, candidate{transition: t, cumulative: total})
					})
				}
				if len(candidates) == 0 {
					continue
				}
				pick := r.Float64() * total
				chosen := candidates[len(candidates)-1].transition
				for _, cand := range candidates {
					if pick < cand.cumulative {
						chosen = cand.transition
						break
					}
				}

				ion.Accepted = true
				ion.Chosen = chosen
				if chosen.Bin >= 0 {
					c.histogram.Deplete(chosen.Bin, ion.Weight)
				}
				m.stats.accepted.Add(1)
			}
		}

		ions := s.Ions.SuperCells[superCell]
		lanes := max(1, m.Parameters.Lanes)
		if lanes == 1 || len(ions) < 2 {
			roll(ions)
			continue
		}
		chunk := (len(ions) + lanes - 1) / lanes
		var laneWg sync.WaitGroup
		for lo := 0; lo < len(ions); lo += chunk {
			laneWg.Add(1)
			go func(part []particles.Ion) {
				defer laneWg.Done()
				roll(part)
			}(ions[lo:min(lo+chunk, len(ions))])
		}
		laneWg.Wait()
	}
}

// checkForOverSubscription flags the bins whose requested depletion exceeds
// their weight and caches the rejection probability. It returns the number of
// flagged bins.
func (m *Model) checkForOverSubscription(superCell int) (flagged int) {
	h := &m.Registry.Histograms[superCell]
	tolerance := m.Parameters.AtomicPhysics.OverSubscriptionTolerance
	for b := range h.Bins {
		over, p := h.OverSubscribed(b, tolerance)
		m.Registry.OverSubscribed[superCell][b] = over
		m.Registry.RejectionProbability[superCell][b] = p
		if over {
			flagged++
		}
	}
	return
}

// rollForOverSubscription rejects accepted transitions drawing from flagged
// bins with the bin's rejection probability.
func (m *Model) rollForOverSubscription(superCell int, pass int) {
	h := &m.Registry.Histograms[superCell]
	flags := m.Registry.OverSubscribed[superCell]
	probabilities := m.Registry.RejectionProbability[superCell]
	subStep := m.Registry.SubSteps[superCell]
	for _, s := range m.Species {
		ions := s.Ions.SuperCells[superCell]
		for i := range ions {
			ion := &ions[i]
			bin := ion.Chosen.Bin
			if !ion.Accepted || bin < 0 || !flags[bin] {
				continue
			}
			r := rng.Stream(m.Parameters.Seed, m.step, ion.ID, subStep, rng.Rejection, uint64(pass))
			if r.Float64() < probabilities[bin] {
				ion.Accepted = false
				h.Restore(bin, ion.Weight)
				m.stats.rejected.Add(1)
			}
		}
	}
}

// recordChanges applies the accepted transitions, hands the transition energy
// to the bins and commits the bin depletion.
func (m *Model) recordChanges(superCell int) {
	c := m.cell(superCell)
	for _, s := range m.Species {
		ions := s.Ions.SuperCells[superCell]
		for i := range ions {
			ion := &ions[i]
			if !ion.Accepted {
				continue
			}
			t := ion.Chosen
			switch t.Class {
			case atomicdata.BoundBound:
				deltaE := s.Data.BoundBoundEnergy(t.Index)
				if t.Bin >= 0 {
					if t.Target == s.Data.BoundBound[t.Index].Upper {
						c.histogram.AddEnergy(t.Bin, -deltaE*ion.Weight)
					} else {
						c.histogram.AddEnergy(t.Bin, deltaE*ion.Weight)
					}
				}
			case atomicdata.BoundFree:
				if t.Bin >= 0 {
					c.histogram.AddEnergy(t.Bin, -s.ionizationEnergy(c, t.Index)*ion.Weight)
				}
				m.spawnElectrons(superCell, ion, s.Data.ChargeChange(ion.State, t.Target), 0)
			case atomicdata.Autonomous:
				m.spawnElectrons(superCell, ion, s.Data.ChargeChange(ion.State, t.Target), s.Data.AutonomousEnergy(t.Index))
			}
			ion.State = t.Target
		}
	}
	c.histogram.Commit()
}

func (m *Model) updateTimeRemaining(superCell int) {
	dt := m.Registry.TimeStep[superCell]
	if dt >= m.Registry.TimeRemaining[superCell] {
		m.Registry.TimeRemaining[superCell] = 0
	} else {
		m.Registry.TimeRemaining[superCell] -= dt
	}
	m.Registry.SubSteps[superCell]++
}
