package monitor

import (
	"github.com/BTBurke/accrual/pkg/eventbus"
	"github.com/BTBurke/accrual/pkg/fsm"
	"github.com/BTBurke/accrual/pkg/metric"
)

// States of the monitored resource
const (
	StateUnmonitored fsm.State = "unmonitored"
	StateUp          fsm.State = "up"
	StateDown        fsm.State = "down"
)

// Detector is the failure detector driven by the monitor
type Detector interface {
	Heartbeat()
	IsMonitoring() bool
	Status() (phi float64, available bool)
}

// availability turns periodic detector readings into changes of state of the resource
type availability struct {
	machine     *fsm.Machine
	detector    Detector
	bus         *eventbus.EventBus
	verbose     bool
	transitions *metric.ConcurrentCounter
}

func newAvailability(d Detector, bus *eventbus.EventBus, verbose bool) (*availability, error) {
	a := &availability{
		detector:    d,
		bus:         bus,
		verbose:     verbose,
		transitions: metric.NewConcurrentCounter(),
	}
	m, err := fsm.NewMachine(StateUnmonitored,
		fsm.WithTransitions(
			fsm.T(StateUnmonitored, StateUp, StateDown),
			fsm.T(StateUp, StateDown),
			fsm.T(StateDown, StateUp),
		),
		fsm.WithObserver(func(from, to fsm.State) { a.transitions.Add(1) }),
	)
	if err != nil {
		return nil, err
	}
	a.machine = m
	return a, nil
}

// state returns the last evaluated state
func (a *availability) state() fsm.State {
	return a.machine.State()
}

// check reads the detector once and dispatches an event for each change of state.  Nothing
// happens until the first heartbeat arrives.
func (a *availability) check() (fsm.State, error) {
	if !a.detector.IsMonitoring() {
		return a.machine.State(), nil
	}

	phi, available := a.detector.Status()
	if a.verbose {
		if err := a.bus.Dispatch(eventbus.NewEvent(EventPhi, PhiSample{Phi: phi, Available: available})); err != nil {
			return a.machine.State(), err
		}
	}

	to := StateDown
	if available {
		to = StateUp
	}
	from := a.machine.State()
	changed, err := a.machine.Transition(to)
	if err != nil || !changed {
		return a.machine.State(), err
	}

	for _, t := range eventsFor(from, to) {
		if err := a.bus.Dispatch(eventbus.NewEvent(t, Transition{From: from, To: to, Phi: phi})); err != nil {
			return to, err
		}
	}
	return to, nil
}

func eventsFor(from, to fsm.State) []eventbus.EventType {
	var events []eventbus.EventType
	if from == StateUnmonitored {
		events = append(events, EventMonitoring)
	}
	switch {
	case to == StateDown:
		events = append(events, EventUnavailable)
	case from == StateDown:
		events = append(events, EventAvailable)
	}
	return events
}
