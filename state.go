package accrual

import (
	"fmt"
	"sync"
)

// state guards access to the detector core.  Implementations are only built by NewWithClock.
type state[T any] interface {
	read(f func(c *core[T]))
	write(f func(c *core[T]))
}

// exclusiveState has a single owner and performs no synchronization
type exclusiveState[T any] struct {
	c *core[T]
}

func (s *exclusiveState[T]) read(f func(c *core[T])) {
	f(s.c)
}

func (s *exclusiveState[T]) write(f func(c *core[T])) {
	f(s.c)
}

// sharedState allows many concurrent readers or a single writer.  A writer that panics
// leaves the core in an unknown state, so the holder is poisoned and every later access
// panics with PoisonedState.
type sharedState[T any] struct {
	mu       sync.RWMutex
	c        *core[T]
	poisoned bool
	cause    interface{}
}

func (s *sharedState[T]) read(f func(c *core[T])) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.checkPoisoned()
	f(s.c)
}

func (s *sharedState[T]) write(f func(c *core[T])) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkPoisoned()
	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			s.cause = r
			panic(r)
		}
	}()
	f(s.c)
}

// checkPoisoned must be called with the lock held
func (s *sharedState[T]) checkPoisoned() {
	if s.poisoned {
		panic(PoisonedState{
			Msg:   fmt.Sprintf("detector state poisoned by a panic during heartbeat: %v", s.cause),
			Cause: s.cause,
		})
	}
}
