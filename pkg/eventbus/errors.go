package eventbus

import "fmt"

// ErrShutdownTimeout is returned if calling eventbus.Shutdown(ctx) causes the context to timeout before all subscribers
// have exited
var ErrShutdownTimeout error = fmt.Errorf("eventbus: context timeout or cancelled before all subscribers exited")

// ErrClosed is returned when dispatching on a bus that has been shut down
var ErrClosed error = fmt.Errorf("eventbus: dispatch on closed bus")
