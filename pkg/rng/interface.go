// Package rng generates random heartbeat inter-arrival intervals for simulating a monitored
// resource.
package rng

import (
	"math/rand"
	"time"
)

// RNG is a random number generator
type RNG interface {
	Rand() float64
}

// Interval draws a value from r and interprets it as milliseconds.  Draws below min are
// clamped to min so that simulated heartbeats never go back in time.
func Interval(r RNG, min time.Duration) time.Duration {
	d := time.Duration(r.Rand() * float64(time.Millisecond))
	if d < min {
		return min
	}
	return d
}

func newSource(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
