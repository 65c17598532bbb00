package monitor

import (
	"time"

	"github.com/BTBurke/accrual/pkg/eventbus"
	"github.com/BTBurke/accrual/pkg/fsm"
)

// Events dispatched on the monitor bus
const (
	EventMonitoring    eventbus.EventType = "monitoring"
	EventAvailable     eventbus.EventType = "available"
	EventUnavailable   eventbus.EventType = "unavailable"
	EventSlowHeartbeat eventbus.EventType = "slow_heartbeat"
	EventSourceError   eventbus.EventType = "source_error"
	EventPhi           eventbus.EventType = "phi"
)

// Transition is the data of monitoring, available and unavailable events
type Transition struct {
	From fsm.State
	To   fsm.State
	Phi  float64
}

// SlowHeartbeat is the data of slow_heartbeat events
type SlowHeartbeat struct {
	Interval time.Duration
}

// SourceError is the data of source_error events
type SourceError struct {
	Source string
	Err    error
}

// PhiSample is the data of phi events
type PhiSample struct {
	Phi       float64
	Available bool
}
