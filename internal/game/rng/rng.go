// Package rng is the single source of randomness for the engine.
//
// Every operation that rolls dice, draws cards or breaks ties takes a Source.
// Seeding the source with a fixed value makes a whole game replayable.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Source is the subset of *rand.Rand the engine consumes
type Source interface {
	Intn(n int) int
	Float64() float64
}

// New returns a deterministic source for the seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// RollD6 rolls one six-sided die.
func RollD6(src Source) int {
	return src.Intn(6) + 1
}

// Range returns a uniform value in [lo, hi).
func Range(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Chance returns true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Pick returns a uniform index in [0, n), or -1 when n is 0.
func Pick(src Source, n int) int {
	if n <= 0 {
		return -1
	}
	return src.Intn(n)
}

// WeightedIndex picks an index with probability proportional to its weight.
// Non-positive weights are never chosen; -1 means nothing can be chosen.
func WeightedIndex(src Source, weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return -1
	}
	roll := src.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if roll < w {
			return i
		}
		roll -= w
	}
	return len(weights) - 1
}
