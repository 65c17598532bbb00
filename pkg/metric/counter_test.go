package metric

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter(t *testing.T) {
	tt := []struct {
		name   string
		values []uint
		expect int
	}{
		{name: "positive", values: []uint{1, 1, 2, 3, 4}, expect: 11},
		{name: "zeros", values: []uint{1, 1, 0, 0, 0}, expect: 2},
	}
	for _, tc := range tt {
		for _, c := range []CounterI{NewCounter(), NewConcurrentCounter()} {
			t.Run(tc.name, func(t *testing.T) {
				for _, i := range tc.values {
					c.Add(i)
				}
				assert.Equal(t, tc.expect, c.Value())
				c.Reset()
				assert.Equal(t, 0, c.Value())
				c.Add(1)
				assert.Equal(t, 1, c.Value())
			})
		}
	}
}

func TestConcurrentCounter(t *testing.T) {
	c := NewConcurrentCounter()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Add(1)
				_ = c.Value()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000, c.Value())
}
