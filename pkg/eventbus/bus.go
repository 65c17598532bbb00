package eventbus

import (
	"context"
	"sync"
)

// EventBus delivers events to every subscriber interested in the event type.  Events are
// delivered to each subscriber in the order they were dispatched.
type EventBus struct {
	subscribers []*Subscription
	closed      bool
	mutex       sync.RWMutex
}

// Subscription receives events on C until the bus is shut down, at which point C is closed.
// Subscribers should finish any work left from the events they received and then call Done
// so that Shutdown can return.
type Subscription struct {
	C <-chan Event

	c     chan Event
	types map[EventType]struct{}
	done  chan struct{}
	once  sync.Once
}

// Done signals that the subscriber has finished all work.  It is safe to call more than once.
func (s *Subscription) Done() {
	s.once.Do(func() { close(s.done) })
}

func (s *Subscription) wants(t EventType) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// New returns a new event bus
func New() *EventBus {
	return &EventBus{}
}

// Subscribe returns a subscription receiving events of the given types, or all events if no
// type is given.  buffer sets the channel capacity; Dispatch blocks while a subscriber's
// buffer is full.
func (e *EventBus) Subscribe(buffer int, types ...EventType) *Subscription {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if buffer < 0 {
		buffer = 0
	}
	c := make(chan Event, buffer)
	s := &Subscription{
		C:     c,
		c:     c,
		types: make(map[EventType]struct{}, len(types)),
		done:  make(chan struct{}),
	}
	for _, t := range types {
		s.types[t] = struct{}{}
	}

	if e.closed {
		close(c)
		s.Done()
		return s
	}
	e.subscribers = append(e.subscribers, s)
	return s
}

// Unsubscribe stops delivery to the subscriber and closes its event channel
func (e *EventBus) Unsubscribe(s *Subscription) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	for i, sub := range e.subscribers {
		if sub == s {
			close(sub.c)
			sub.Done()
			e.subscribers = append(e.subscribers[0:i], e.subscribers[i+1:]...)
			return
		}
	}
}

// Dispatch sends the event to every interested subscriber.  Events dispatched after Shutdown
// are dropped and ErrClosed is returned.
func (e *EventBus) Dispatch(event Event) error {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.closed {
		return ErrClosed
	}
	for _, s := range e.subscribers {
		if s.wants(event.Type) {
			s.c <- event
		}
	}
	return nil
}

// Shutdown closes every subscriber channel and blocks until all subscribers have called Done
// or the context ends.  ErrShutdownTimeout is returned in the latter case.
func (e *EventBus) Shutdown(ctx context.Context) error {
	e.mutex.Lock()
	if e.closed {
		e.mutex.Unlock()
		return nil
	}
	e.closed = true

	all := make([]chan struct{}, 0, len(e.subscribers))
	for _, s := range e.subscribers {
		close(s.c)
		all = append(all, s.done)
	}
	e.subscribers = nil
	e.mutex.Unlock()

	done := make(chan struct{})
	go shutdownNotify(done, all)

	select {
	case <-ctx.Done():
		return ErrShutdownTimeout
	case <-done:
		return nil
	}
}

// shutdownNotify closes done once every channel in all has been closed by its subscriber
func shutdownNotify(done chan struct{}, all []chan struct{}) {
	var wg sync.WaitGroup
	for _, ch := range all {
		wg.Add(1)
		go func(c chan struct{}) {
			defer wg.Done()
			<-c
		}(ch)
	}
	wg.Wait()
	close(done)
}
