package accrual

// InvalidThreshold is returned when the phi threshold is not greater than zero
type InvalidThreshold struct {
	Msg string
}

func (e InvalidThreshold) Error() string {
	return e.Msg
}

// InvalidMaxSampleSize is returned when the heartbeat history would hold no samples
type InvalidMaxSampleSize struct {
	Msg string
}

func (e InvalidMaxSampleSize) Error() string {
	return e.Msg
}

// InvalidMinStdDeviation is returned when the minimum standard deviation is not greater than zero
type InvalidMinStdDeviation struct {
	Msg string
}

func (e InvalidMinStdDeviation) Error() string {
	return e.Msg
}

// InvalidAcceptableHeartbeatPause is returned when the acceptable heartbeat pause is negative
type InvalidAcceptableHeartbeatPause struct {
	Msg string
}

func (e InvalidAcceptableHeartbeatPause) Error() string {
	return e.Msg
}

// InvalidFirstHeartbeatEstimate is returned when the first heartbeat estimate is not greater than zero
type InvalidFirstHeartbeatEstimate struct {
	Msg string
}

func (e InvalidFirstHeartbeatEstimate) Error() string {
	return e.Msg
}

// PoisonedState is the panic value raised by every operation on a shared detector after a
// heartbeat panicked while holding the write lock.  The detector cannot be used again; the
// statistics may have been left half updated.
type PoisonedState struct {
	Msg   string
	Cause interface{}
}

func (e PoisonedState) Error() string {
	return e.Msg
}
