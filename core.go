package accrual

import (
	"time"

	"github.com/BTBurke/accrual/pkg/clock"
	"github.com/BTBurke/accrual/pkg/stat"
)

// core is the unsynchronized detector state.  The holder in state.go decides how access to
// it is guarded.
type core[T any] struct {
	last    *T
	history *stat.History

	threshold         float64
	minStdDeviationMS float64
	acceptablePauseMS float64
}

func newCore[T any](c Config) (*core[T], error) {
	h, err := stat.Bootstrap(c.MaxSampleSize, c.FirstHeartbeatEstimate)
	if err != nil {
		return nil, err
	}
	return &core[T]{
		history:           h,
		threshold:         c.Threshold,
		minStdDeviationMS: milliseconds(c.MinStdDeviation),
		acceptablePauseMS: milliseconds(c.AcceptableHeartbeatPause),
	}, nil
}

// heartbeat records the arrival of a heartbeat at now.  The interval since the previous
// heartbeat only enters the history when the resource was still considered available at
// now, so a long outage does not inflate the mean.
func (c *core[T]) heartbeat(now T, clk clock.Clock[T]) (interval time.Duration, recorded bool) {
	if c.last != nil && c.isAvailable(now, clk) {
		interval = clk.Elapsed(*c.last, now)
		c.history.Add(milliseconds(interval))
		recorded = true
	}
	c.last = &now
	return interval, recorded
}

// phi is zero until the first heartbeat arrives
func (c *core[T]) phi(now T, clk clock.Clock[T]) float64 {
	if c.last == nil {
		return 0
	}

	elapsed := milliseconds(clk.Elapsed(*c.last, now))
	mean := c.history.Mean() + c.acceptablePauseMS
	stdDeviation := c.history.StdDeviation()
	if !(stdDeviation > c.minStdDeviationMS) {
		stdDeviation = c.minStdDeviationMS
	}
	return stat.Phi(elapsed, mean, stdDeviation)
}

func (c *core[T]) isAvailable(now T, clk clock.Clock[T]) bool {
	return c.phi(now, clk) < c.threshold
}

func (c *core[T]) monitoring() bool {
	return c.last != nil
}

// milliseconds truncates to whole milliseconds before converting
func milliseconds(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
