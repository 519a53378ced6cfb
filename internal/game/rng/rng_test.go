package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedIndexFrequencyOrdering(t *testing.T) {
	src := New(42)
	counts := make([]int, 3)
	for i := 0; i < 20000; i++ {
		counts[WeightedIndex(src, []int{90, 9, 1})]++
	}
	assert.Greater(t, counts[0], counts[1])
	assert.Greater(t, counts[1], counts[2])
}

func TestWeightedIndexSkipsEmptyWeights(t *testing.T) {
	src := New(1)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1, WeightedIndex(src, []int{0, 5, 0}))
	}
	assert.Equal(t, -1, WeightedIndex(src, []int{0, 0}))
	assert.Equal(t, -1, WeightedIndex(src, nil))
}

func TestSameSeedSameSequence(t *testing.T) {
	a, b := New(7), New(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, RollD6(a), RollD6(b))
	}
}

func TestRangeAndDie(t *testing.T) {
	src := New(3)
	for i := 0; i < 1000; i++ {
		r := Range(src, 0.2, 0.4)
		assert.GreaterOrEqual(t, r, 0.2)
		assert.Less(t, r, 0.4)

		d := RollD6(src)
		assert.GreaterOrEqual(t, d, 1)
		assert.LessOrEqual(t, d, 6)
	}
	assert.Equal(t, -1, Pick(src, 0))
}

func TestNewSeed(t *testing.T) {
	_, err := NewSeed()
	assert.NoError(t, err)
}
