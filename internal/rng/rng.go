// Package rng derives independent, reproducible random streams from a run seed
// and the identity of the draw.
package rng

import (
	"golang.org/x/exp/rand"
)

type Purpose uint64

const (
	Selection Purpose = iota + 1
	Rejection
	Setup
)

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Key hashes the seed and the key words into one stream seed.
func Key(seed uint64, words ...uint64) uint64 {
	h := splitmix(seed)
	for _, w := range words {
		h = splitmix(h ^ w)
	}
	return h
}

// Stream is the generator of one particle for one purpose in one sub-step.
// Extra words distinguish repeated draws of the same purpose, e.g. rejection passes.
func Stream(seed uint64, outerStep uint32, particleID uint64, subStep uint32, purpose Purpose, extra ...uint64) *rand.Rand {
	words := append([]uint64{uint64(outerStep), particleID, uint64(subStep), uint64(purpose)}, extra...)
	return rand.New(rand.NewSource(Key(seed, words...)))
}
