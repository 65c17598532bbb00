package rng

import (
	"math"
	"math/rand"
)

var _ RNG = &LogNormalRNG{}

// LogNormalRNG generates Log Normal random numbers.  Heartbeats crossing a congested network
// have a long right tail that a normal distribution does not capture.
type LogNormalRNG struct {
	mean  float64
	stdev float64
	r     *rand.Rand
}

func (r *LogNormalRNG) Rand() float64 {
	return math.Exp(r.r.NormFloat64()*r.stdev + r.mean)
}

// NewLogNormalRNG returns a generator whose logarithm has the given mean and standard
// deviation.  A zero seed uses the current time.
func NewLogNormalRNG(mean float64, stdev float64, seed int64) *LogNormalRNG {
	return &LogNormalRNG{
		mean:  mean,
		stdev: stdev,
		r:     newSource(seed),
	}
}

// LogNormalFor returns the parameters of a log normal distribution with the given mean and
// standard deviation in linear space
func LogNormalFor(mean, stdev float64) (mu, sigma float64) {
	v := 1 + (stdev*stdev)/(mean*mean)
	sigma = math.Sqrt(math.Log(v))
	mu = math.Log(mean) - sigma*sigma/2
	return mu, sigma
}
