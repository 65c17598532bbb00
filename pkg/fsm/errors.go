package fsm

// TransitionNotAllowed is an error type caused by attempting to transition to a state that is
// not allowed by the FSM
type TransitionNotAllowed struct {
	Msg string
}

func (e TransitionNotAllowed) Error() string {
	return e.Msg
}
