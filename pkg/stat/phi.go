package stat

import "math"

// Phi returns the suspicion level that a heartbeat expected with the given mean and standard
// deviation has still not arrived after timeDiff.  All arguments are in milliseconds.
//
//	φ = -log10(1 - F(timeDiff))
//
// F is the cumulative distribution function of the normal distribution, approximated with the
// logistic function so that no error function is needed.  The two branches keep the
// subtraction away from 1 - 1 where precision would be lost.
func Phi(timeDiff, mean, stdDeviation float64) float64 {
	y := (timeDiff - mean) / stdDeviation
	e := math.Exp(-y * (1.5976 + 0.070566*y*y))

	if timeDiff > mean {
		return -math.Log10(e / (1.0 + e))
	}
	return -math.Log10(1.0 - 1.0/(1.0+e))
}
