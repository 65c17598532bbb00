package monitor

import "context"

// Source produces heartbeats for the monitored resource.  Run blocks until the source
// finishes or ctx is done.  Errors that do not stop the source are passed to the sink.
type Source interface {
	Name() string
	Run(ctx context.Context, sink Sink) error
}

// Sink receives the output of a heartbeat source
type Sink interface {
	Heartbeat()
	Error(err error)
}
