// Package accrual implements the phi accrual failure detector.
//
// Instead of a boolean up/down judgement, the detector outputs a suspicion level phi on a
// continuous scale.  Phi is derived from the history of heartbeat inter-arrival times: the
// longer the silence relative to what the history predicts, the higher phi climbs.  The
// monitored resource is considered available while phi stays below the configured threshold.
//
//	d, errs := accrual.New(accrual.Threshold(8), accrual.AcceptableHeartbeatPause(time.Second))
//	if len(errs) > 0 {
//		...
//	}
//	d.Heartbeat()
//	if !d.IsAvailable() {
//		...
//	}
//
// See Hayashibara et al., "The φ Accrual Failure Detector".
package accrual

import (
	"time"

	"github.com/BTBurke/accrual/pkg/clock"
)

// Detector is a phi accrual failure detector over timestamps of type T produced by its clock
type Detector[T any] struct {
	clock clock.Clock[T]
	state state[T]

	onSlowHeartbeat  func(time.Duration)
	slowHeartbeatLim time.Duration
}

// New returns a detector using the system monotonic clock.  All configuration errors are
// returned together.
func New(options ...ConfigOption) (*Detector[time.Time], []error) {
	return NewWithClock[time.Time](clock.NewMonotonic(), options...)
}

// NewWithClock returns a detector reading timestamps from clk
func NewWithClock[T any](clk clock.Clock[T], options ...ConfigOption) (*Detector[T], []error) {
	c, errs := newConfig(options...)
	if len(errs) > 0 {
		return nil, errs
	}

	cr, err := newCore[T](c)
	if err != nil {
		return nil, []error{err}
	}

	d := &Detector[T]{
		clock:            clk,
		onSlowHeartbeat:  c.onSlowHeartbeat,
		slowHeartbeatLim: c.AcceptableHeartbeatPause / 2,
	}
	switch c.Policy {
	case PolicyShared:
		d.state = &sharedState[T]{c: cr}
	default:
		d.state = &exclusiveState[T]{c: cr}
	}
	return d, nil
}

// Heartbeat notifies the detector that a heartbeat arrived from the monitored resource
func (d *Detector[T]) Heartbeat() {
	var interval time.Duration
	var recorded bool
	d.state.write(func(c *core[T]) {
		interval, recorded = c.heartbeat(d.clock.Timestamp(), d.clock)
	})

	if recorded && d.onSlowHeartbeat != nil && interval >= d.slowHeartbeatLim {
		d.onSlowHeartbeat(interval)
	}
}

// Phi returns the current suspicion level.  A detector that has not yet received a heartbeat
// reports zero.
func (d *Detector[T]) Phi() float64 {
	var phi float64
	d.state.read(func(c *core[T]) {
		phi = c.phi(d.clock.Timestamp(), d.clock)
	})
	return phi
}

// IsAvailable reports whether the monitored resource is considered up
func (d *Detector[T]) IsAvailable() bool {
	var ok bool
	d.state.read(func(c *core[T]) {
		ok = c.isAvailable(d.clock.Timestamp(), d.clock)
	})
	return ok
}

// IsMonitoring reports whether at least one heartbeat has been received
func (d *Detector[T]) IsMonitoring() bool {
	var ok bool
	d.state.read(func(c *core[T]) {
		ok = c.monitoring()
	})
	return ok
}

// Status returns phi and availability computed from a single clock reading, so the two
// always agree
func (d *Detector[T]) Status() (phi float64, available bool) {
	d.state.read(func(c *core[T]) {
		phi = c.phi(d.clock.Timestamp(), d.clock)
		available = phi < c.threshold
	})
	return phi, available
}
