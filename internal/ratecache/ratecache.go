// Package ratecache stores, per supercell and ion species, the total outgoing
// transition rate of every atomic state.
package ratecache

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/wildstyl3r/apcycle/internal/utils"
)

type RateCache struct {
	rates   []utils.AtomicFloat64 // [1/s]
	present []bool
}

func New(numberStates int) RateCache {
	return RateCache{
		rates:   make([]utils.AtomicFloat64, numberStates),
		present: make([]bool, numberStates),
	}
}

func (c *RateCache) NumberStates() int {
	return len(c.rates)
}

func (c *RateCache) Reset() {
	for i := range c.rates {
		c.rates[i].Store(0)
		c.present[i] = false
	}
}

func (c *RateCache) SetPresent(state uint32) {
	c.present[state] = true
}

func (c *RateCache) Present(state uint32) bool {
	return c.present[state]
}

// Add accumulates rate into state; rates of absent states are dropped.
func (c *RateCache) Add(state uint32, rate float64) {
	if !c.present[state] || rate == 0 {
		return
	}
	if math.IsNaN(rate) || rate < 0 {
		panic("invalid transition rate")
	}
	c.rates[state].Add(rate)
}

func (c *RateCache) Rate(state uint32) float64 {
	return c.rates[state].Load()
}

func (c *RateCache) Rates() []float64 {
	r := make([]float64, len(c.rates))
	for i := range c.rates {
		r[i] = c.rates[i].Load()
	}
	return r
}

// MaxRate is the fastest total rate over present states.
func (c *RateCache) MaxRate() float64 {
	if len(c.rates) == 0 {
		return 0
	}
	return floats.Max(c.Rates())
}
