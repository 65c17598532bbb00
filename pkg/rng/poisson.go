package rng

import (
	"math"
	"math/rand"
)

var _ RNG = &PoissonRNG{}

// PoissonRNG generates Poisson distributed numbers using Knuth's algorithm.  The simulator
// uses it for the number of heartbeats lost in a row.
type PoissonRNG struct {
	lambda float64
	r      *rand.Rand
}

func (r *PoissonRNG) Rand() float64 {
	// Knuth's algorithm
	L := math.Exp(-r.lambda)
	var k int64 = 0
	var p float64 = 1.0

	for p > L {
		k++
		p = p * r.r.Float64()
	}
	return float64(k - 1)
}

// NewPoissonRNG returns a generator with rate lambda.  A zero seed uses the current time.
func NewPoissonRNG(lambda float64, seed int64) *PoissonRNG {
	return &PoissonRNG{
		lambda: lambda,
		r:      newSource(seed),
	}
}
