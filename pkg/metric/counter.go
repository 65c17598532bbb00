package metric

import (
	"sync"
)

var _ CounterI = &Counter{}
var _ CounterI = &ConcurrentCounter{}

// CounterI is the basic interface for a counter that returns its current value and adds new observations
type CounterI interface {
	Value() int
	Add(i uint)
	Reset()
}

// Counter is a monotonically increasing counter
type Counter struct {
	value int
}

// NewCounter returns a new monotonically increasing counter
func NewCounter() *Counter {
	return &Counter{}
}

// Value returns the current value of the counter
func (c *Counter) Value() int {
	return c.value
}

// Add will increase the current count by i
func (c *Counter) Add(i uint) {
	c.value += int(i)
}

// Reset sets the value of the counter to zero
func (c *Counter) Reset() {
	c.value = 0
}

// ConcurrentCounter is a Counter that is safe for concurrent use.  The monitor increments it
// from the heartbeat source while the evaluator reads it.
type ConcurrentCounter struct {
	mu sync.RWMutex
	c  Counter
}

// NewConcurrentCounter returns a zero-valued counter safe for concurrent use
func NewConcurrentCounter() *ConcurrentCounter {
	return &ConcurrentCounter{}
}

func (c *ConcurrentCounter) Value() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.c.Value()
}

func (c *ConcurrentCounter) Add(i uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.Add(i)
}

func (c *ConcurrentCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.Reset()
}
