package stat

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStatistics(t *testing.T) {
	tt := []struct {
		name     string
		capacity int
		add      []float64
		mean     float64
		variance float64
		count    int
	}{
		{name: "single", capacity: 10, add: []float64{1000}, mean: 1000, variance: 0, count: 1},
		{name: "pair", capacity: 10, add: []float64{750, 1250}, mean: 1000, variance: 62500, count: 2},
		{name: "uniform", capacity: 10, add: []float64{1, 1, 1, 2, 2, 2}, mean: 1.5, variance: 0.25, count: 6},
		// after overflow the sums cover only the window, but the divisor keeps growing
		{name: "overflow", capacity: 2, add: []float64{10, 20, 30, 40}, mean: 17.5, variance: 625 - 306.25, count: 4},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			h, err := NewHistory(tc.capacity)
			require.NoError(t, err)
			for _, v := range tc.add {
				h.Add(v)
			}
			assert.InDelta(t, tc.mean, h.Mean(), 1e-9)
			assert.InDelta(t, tc.variance, h.Variance(), 1e-9)
			assert.InDelta(t, math.Sqrt(tc.variance), h.StdDeviation(), 1e-9)
			assert.Equal(t, tc.count, h.Count())
		})
	}
}

func TestHistoryAccumulatorsTrackWindow(t *testing.T) {
	h, err := NewHistory(3)
	require.NoError(t, err)
	for _, v := range []float64{1, 2, 3, 4, 5, 6, 7} {
		h.Add(v)
	}
	assert.Equal(t, []float64{5, 6, 7}, h.Intervals())
	assert.InDelta(t, 18.0, h.sum, 1e-9)
	assert.InDelta(t, 25.0+36.0+49.0, h.sumOfSquares, 1e-9)
	assert.Equal(t, 7, h.Count())
}

func TestBootstrap(t *testing.T) {
	h, err := Bootstrap(100, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []float64{750, 1250}, h.Intervals())
	assert.InDelta(t, 1000.0, h.Mean(), 1e-9)
	assert.InDelta(t, 250.0, h.StdDeviation(), 1e-9)

	_, err = Bootstrap(0, time.Second)
	assert.Error(t, err)
}
