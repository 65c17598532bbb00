// Package clock abstracts the time source used by the failure detector so that heartbeat
// arrival can be replayed deterministically in tests.
package clock

import (
	"sync"
	"time"
)

var _ Clock[time.Time] = Monotonic{}
var _ Clock[time.Duration] = &Fake{}

// Clock produces opaque timestamps of type T.  Timestamps are only ever compared through
// Elapsed, which must never return a negative duration.
type Clock[T any] interface {
	Timestamp() T
	Elapsed(before, after T) time.Duration
}

// Monotonic is the production clock.  Timestamps returned by time.Now carry a monotonic
// clock reading, so wall clock adjustments do not affect Elapsed.
type Monotonic struct{}

// NewMonotonic returns the system monotonic clock
func NewMonotonic() Monotonic {
	return Monotonic{}
}

// Timestamp returns the current time
func (Monotonic) Timestamp() time.Time {
	return time.Now()
}

// Elapsed returns the time between before and after, or zero if after is earlier than before
func (Monotonic) Elapsed(before, after time.Time) time.Duration {
	return clamp(after.Sub(before))
}

// Fake is a deterministic clock that advances by a fixed sequence of intervals.  The first
// call to Timestamp returns the first interval, every later call adds the next interval to
// the previous timestamp.  Once the sequence is exhausted it starts again from the beginning.
type Fake struct {
	mu        sync.Mutex
	intervals []time.Duration
	index     int
	now       time.Duration
}

// NewFake returns a fake clock advancing by intervals expressed in milliseconds
func NewFake(intervals ...int) *Fake {
	d := make([]time.Duration, len(intervals))
	for i, v := range intervals {
		d[i] = time.Duration(v) * time.Millisecond
	}
	return NewFakeDurations(d...)
}

// NewFakeDurations returns a fake clock advancing by the supplied intervals.  A fake clock
// without intervals never advances.
func NewFakeDurations(intervals ...time.Duration) *Fake {
	return &Fake{intervals: intervals}
}

// Timestamp advances the clock by the next interval and returns the new offset from the
// fake epoch
func (c *Fake) Timestamp() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.intervals) == 0 {
		return c.now
	}
	c.now += c.intervals[c.index%len(c.intervals)]
	c.index++
	return c.now
}

// Elapsed returns the time between before and after, or zero if after is earlier than before
func (c *Fake) Elapsed(before, after time.Duration) time.Duration {
	return clamp(after - before)
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
