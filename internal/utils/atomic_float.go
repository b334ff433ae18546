package utils

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 is a float64 accumulator safe for concurrent Add.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

func (f *AtomicFloat64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *AtomicFloat64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *AtomicFloat64) Add(delta float64) float64 {
	for {
		old := f.bits.Load()
		next := math.Float64frombits(old) + delta
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}
