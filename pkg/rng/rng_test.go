package rng

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func moments(r RNG, n int, f func(float64) float64) (mean, stdev float64) {
	val := make([]float64, n)
	sum := 0.0
	for i := 0; i < n; i++ {
		val[i] = f(r.Rand())
		sum += val[i]
	}
	mean = sum / float64(n)

	variance := 0.0
	for _, v := range val {
		variance += math.Pow(v-mean, 2.0)
	}
	variance = variance / float64(n-1)
	return mean, math.Sqrt(variance)
}

func identity(x float64) float64 { return x }

func TestDistributions(t *testing.T) {
	tt := []struct {
		name  string
		r     RNG
		f     func(float64) float64
		mean  float64
		stdev float64
		delta float64
	}{
		{name: "normal", r: NewNormalRNG(1000, 100, 1), f: identity, mean: 1000, stdev: 100, delta: 5},
		{name: "log normal", r: NewLogNormalRNG(5.0, 1.0, 1), f: math.Log, mean: 5, stdev: 1, delta: 0.05},
		{name: "poisson", r: NewPoissonRNG(4, 1), f: identity, mean: 4, stdev: 2, delta: 0.1},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			mean, stdev := moments(tc.r, 10000, tc.f)
			assert.InDelta(t, tc.mean, mean, tc.delta)
			assert.InDelta(t, tc.stdev, stdev, tc.delta)
		})
	}
}

func TestSeeded(t *testing.T) {
	a := NewNormalRNG(1000, 100, 42)
	b := NewNormalRNG(1000, 100, 42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Rand(), b.Rand())
	}
}

func TestLogNormalFor(t *testing.T) {
	mu, sigma := LogNormalFor(1000, 200)
	mean, stdev := moments(NewLogNormalRNG(mu, sigma, 7), 20000, identity)
	assert.InDelta(t, 1000, mean, 10)
	assert.InDelta(t, 200, stdev, 10)
}

type constant float64

func (c constant) Rand() float64 { return float64(c) }

func TestInterval(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, Interval(constant(1500), 0))
	assert.Equal(t, time.Millisecond, Interval(constant(-20), time.Millisecond))
}
