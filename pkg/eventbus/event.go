package eventbus

import (
	"fmt"
	"time"
)

// EventType represents the type of event being passed on the bus.  It allows subscribers to
// filter the events they receive and to decide how to interpret the data.
type EventType string

// Event is passed on the event bus to every interested subscriber
type Event struct {
	Type EventType
	Time time.Time
	Data interface{}
}

// NewEvent returns an event stamped with the current time
func NewEvent(t EventType, data interface{}) Event {
	return Event{Type: t, Time: time.Now(), Data: data}
}

// Decode copies the event data into v, which must be a non-nil pointer to a value of the same
// type as the data
func Decode[T any](e Event, v *T) error {
	if v == nil {
		return fmt.Errorf("eventbus: decode into nil pointer")
	}
	data, ok := e.Data.(T)
	if !ok {
		return fmt.Errorf("eventbus: event %s carries %T, not %T", e.Type, e.Data, *v)
	}
	*v = data
	return nil
}
