package rng

import "math/rand"

var _ RNG = &NormalRNG{}

// NormalRNG generates normally distributed numbers
type NormalRNG struct {
	mean  float64
	stdev float64
	r     *rand.Rand
}

func (r *NormalRNG) Rand() float64 {
	return r.r.NormFloat64()*r.stdev + r.mean
}

// NewNormalRNG returns a generator seeded with seed, or with the current time if seed is zero
func NewNormalRNG(mean float64, stdev float64, seed int64) *NormalRNG {
	return &NormalRNG{
		mean:  mean,
		stdev: stdev,
		r:     newSource(seed),
	}
}
