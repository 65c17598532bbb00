package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLossSeed(t *testing.T) {
	tt := []struct {
		name string
		seed int64
		exp  int64
	}{
		{name: "time seeded", seed: 0, exp: 0},
		{name: "fixed", seed: 5, exp: 6},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, lossSeed(tc.seed))
		})
	}
}

func TestErrorRate(t *testing.T) {
	p := params{
		loops:      5,
		heartbeats: 50,
		mean:       time.Second,
		stdev:      10 * time.Millisecond,
		pause:      time.Second,
		minStd:     100 * time.Millisecond,
		sampleSize: 100,
		seed:       42,
	}
	r, err := errorRate(8.0, p, p.seed)
	require.NoError(t, err)
	assert.Equal(t, 8.0, r.threshold)
	assert.Equal(t, 0.0, r.errorRate)
	assert.Greater(t, r.latency, 2*time.Second)
}
