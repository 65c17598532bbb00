package metric

import (
	"fmt"
)

// Series is a fixed capacity ring buffer of observations.  Once the series is full, each new
// observation overwrites the oldest one.
type Series struct {
	capacity int
	count    int
	values   []float64
}

type SeriesOption func(s *Series) error

// NewSeries creates a new series with a capacity of cap
func NewSeries(cap int, opts ...SeriesOption) (*Series, error) {
	if cap <= 0 {
		return nil, fmt.Errorf("series must be initialized with a capacity >= 1")
	}

	s := &Series{
		capacity: cap,
		values:   make([]float64, 0, cap),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Record adds a new observation to the series.  If the series was already full, the
// overwritten observation is returned with ok set to true.
func (s *Series) Record(p float64) (evicted float64, ok bool) {
	defer func() { s.count++ }()

	if len(s.values) < s.capacity {
		s.values = append(s.values, p)
		return 0, false
	}

	i := s.nextIndex()
	evicted = s.values[i]
	s.values[i] = p
	return evicted, true
}

// Values returns a copy of the current values in the series in temporal order from oldest to most recent
func (s *Series) Values() []float64 {
	out := make([]float64, 0, len(s.values))
	if len(s.values) < s.capacity {
		return append(out, s.values...)
	}
	oldest := s.nextIndex()
	return append(append(out, s.values[oldest:]...), s.values[:oldest]...)
}

// nextIndex returns the index of the oldest observation in a full series
func (s *Series) nextIndex() int {
	return s.count % s.capacity
}

// Count returns the total number of observations ever recorded in this series.  It keeps
// growing after the series is full and is never reduced by eviction.
func (s *Series) Count() int {
	return s.count
}

// Capacity returns the maximum number of observations held by the series
func (s *Series) Capacity() int {
	return s.capacity
}

// Len returns the number of observations currently held, at most Capacity()
func (s *Series) Len() int {
	return len(s.values)
}

// Reset discards all observations and the insert count
func (s *Series) Reset() {
	s.values = s.values[:0]
	s.count = 0
}

// WithValues initializes a series from an existing set of observations.  The number of observations does not
// have to be equal to the capacity.
func WithValues(values []float64) SeriesOption {
	return func(s *Series) error {
		for _, v := range values {
			s.Record(v)
		}
		return nil
	}
}
