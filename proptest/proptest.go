// Package proptest provides property-based testing utilities with seeded
// random generation for reproducible tests.
//
// Property-based testing generates random inputs and verifies that certain
// invariants (properties) always hold. When a test fails, the seed is logged
// so the failure can be reproduced.
package proptest

import (
	"math/rand"
	"time"
)

// Generator wraps a seeded random number generator for reproducible
// random value generation. The seed is stored so it can be logged
// on test failure for reproducibility.
type Generator struct {
	rng  *rand.Rand
	seed int64
}

// New creates a new Generator with the given seed.
// If seed is 0, uses the current time as the seed.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed used by this generator.
// This is useful for logging on test failure so the failure can be reproduced.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Intn returns a random int in [0, n).
// Panics if n <= 0.
func (g *Generator) Intn(n int) int {
	return g.rng.Intn(n)
}

// IntRange returns a random int in [lo, hi] inclusive.
// Panics if lo > hi.
func (g *Generator) IntRange(lo, hi int) int {
	if lo > hi {
		panic("proptest: IntRange lo > hi")
	}
	return lo + g.rng.Intn(hi-lo+1)
}

// Float64 returns a random float64 in [0.0, 1.0).
func (g *Generator) Float64() float64 {
	return g.rng.Float64()
}

// Bool returns a random boolean with 50% probability for each value.
func (g *Generator) Bool() bool {
	return g.rng.Intn(2) == 1
}

// OneOf returns a random element from the provided values.
// Panics if values is empty.
func OneOf[T any](g *Generator, values ...T) T {
	if len(values) == 0 {
		panic("proptest: OneOf called with no values")
	}
	return values[g.Intn(len(values))]
}

// Weighted returns a random element from values, with selection probability
// proportional to the given weights. Weights don't need to sum to 1.
// Panics if weights and values have different lengths or are empty.
func Weighted[T any](g *Generator, weights []float64, values []T) T {
	if len(weights) != len(values) {
		panic("proptest: Weighted weights and values must have same length")
	}
	if len(values) == 0 {
		panic("proptest: Weighted called with no values")
	}

	var total float64
	for _, w := range weights {
		total += w
	}

	point := g.Float64() * total

	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if point < cumulative {
			return values[i]
		}
	}

	// Floating point edge case: return last element
	return values[len(values)-1]
}

// SliceExact generates a slice of exactly the given length.
func SliceExact[T any](g *Generator, length int, gen func(*Generator) T) []T {
	result := make([]T, length)
	for i := 0; i < length; i++ {
		result[i] = gen(g)
	}
	return result
}
