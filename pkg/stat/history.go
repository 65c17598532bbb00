// Package stat holds the statistics behind the phi accrual failure detector: heartbeat
// inter-arrival history maintained in constant time per update, and the phi estimate itself.
package stat

import (
	"fmt"
	"math"
	"time"

	"github.com/BTBurke/accrual/pkg/metric"
)

// History is a sliding window of heartbeat inter-arrival intervals in milliseconds.  The sum
// and sum of squares are kept in step with the window so the mean and variance never require a
// rescan.
//
// The statistics are not defined for an empty history.  Mean and Variance divide by the total
// number of intervals ever added, not by the number currently held in the window.
type History struct {
	intervals    *metric.Series
	sum          float64
	sumOfSquares float64
}

// NewHistory returns an empty history holding at most capacity intervals
func NewHistory(capacity int) (*History, error) {
	s, err := metric.NewSeries(capacity)
	if err != nil {
		return nil, fmt.Errorf("unable to create heartbeat history: %w", err)
	}
	return &History{intervals: s}, nil
}

// Bootstrap returns a history seeded with two intervals around the first heartbeat estimate so
// that the statistics are defined before any real heartbeat arrives.  The seeded mean is the
// estimate and the standard deviation a quarter of it.
func Bootstrap(capacity int, firstHeartbeatEstimate time.Duration) (*History, error) {
	h, err := NewHistory(capacity)
	if err != nil {
		return nil, err
	}
	mean := float64(firstHeartbeatEstimate.Milliseconds())
	stdDeviation := mean / 4
	h.Add(mean - stdDeviation)
	h.Add(mean + stdDeviation)
	return h, nil
}

// Add records an interval, evicting the oldest one from the accumulators when the window is full
func (h *History) Add(interval float64) {
	h.sum += interval
	h.sumOfSquares += pow2(interval)

	if oldest, ok := h.intervals.Record(interval); ok {
		h.sum -= oldest
		h.sumOfSquares -= pow2(oldest)
	}
}

// Mean of the recorded intervals
func (h *History) Mean() float64 {
	return h.sum / float64(h.intervals.Count())
}

// Variance of the recorded intervals
func (h *History) Variance() float64 {
	return h.sumOfSquares/float64(h.intervals.Count()) - pow2(h.Mean())
}

// StdDeviation of the recorded intervals
func (h *History) StdDeviation() float64 {
	return math.Sqrt(h.Variance())
}

// Count returns the number of intervals ever added
func (h *History) Count() int {
	return h.intervals.Count()
}

// Intervals returns the intervals currently in the window, oldest first
func (h *History) Intervals() []float64 {
	return h.intervals.Values()
}

func pow2(x float64) float64 {
	return x * x
}
