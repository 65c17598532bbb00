// Package fsm implements a finite state machine tracking the state of a monitored resource
package fsm

import (
	"fmt"
	"sync"
)

// State represents a possible transition state for the FSM
type State string

// Machine is a basic finite state machine.  It is safe for concurrent use.
type Machine struct {
	mu        sync.RWMutex
	current   State
	initial   State
	allowable map[State][]State
	observers []Observer
}

// Observer is called after every successful change of state with the lock released
type Observer func(from, to State)

// NewMachine returns a new basic Machine with configured options.  If you do not utilize any
// options, the machine will not have any configured transitions.
func NewMachine(initial State, opts ...MachineOption) (*Machine, error) {
	machine := &Machine{
		current:   initial,
		initial:   initial,
		allowable: map[State][]State{},
	}
	for _, opt := range opts {
		if err := opt(machine); err != nil {
			return nil, err
		}
	}
	return machine, nil
}

// State returns the current state of the Machine
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Allowable checks whether a transition between two states is allowable
func (m *Machine) Allowable(from, to State) bool {
	return contains(to, m.allowable[from])
}

// Transition will change the current state of the machine if it is allowable.  Moving to the
// current state is a no-op and reports changed as false.
func (m *Machine) Transition(to State) (changed bool, err error) {
	m.mu.Lock()
	from := m.current
	switch {
	case from == to:
		m.mu.Unlock()
		return false, nil
	case !m.Allowable(from, to):
		m.mu.Unlock()
		return false, TransitionNotAllowed{Msg: fmt.Sprintf("transition not allowed: %s", Transition{From: from, To: to})}
	}
	m.current = to
	observers := append([]Observer{}, m.observers...)
	m.mu.Unlock()

	for _, o := range observers {
		o(from, to)
	}
	return true, nil
}

// Reset will reset the machine to its initial state without notifying observers
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

func contains(s State, all []State) bool {
	for _, a := range all {
		if s == a {
			return true
		}
	}
	return false
}
