package monitor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
)

// test helper silences superfluous logging calls from the mock package
type foo struct {
	t *testing.T
}

func (f foo) Logf(format string, args ...interface{}) {
	// makes mock calls to log a no op to prevent a lot of superfluous logging calls
}
func (f foo) Errorf(format string, args ...interface{}) {
	f.t.Errorf(format, args...)
}
func (f foo) FailNow() {
	f.t.FailNow()
}

func silenceT(t *testing.T) mock.TestingT {
	return foo{t}
}

type mockErrorReporter struct {
	mock.Mock
}

func (m *mockErrorReporter) ReportError(err error) {
	m.Called(err)
}

// fakeDetector becomes monitoring after the first heartbeat and reports the configured
// availability
type fakeDetector struct {
	mu         sync.Mutex
	heartbeats int
	available  bool
	phi        float64
}

func (d *fakeDetector) Heartbeat() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.heartbeats++
}

func (d *fakeDetector) IsMonitoring() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.heartbeats > 0
}

func (d *fakeDetector) Status() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phi, d.available
}

func (d *fakeDetector) set(available bool, phi float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.available = available
	d.phi = phi
}

// recordingSink keeps everything a source produced
type recordingSink struct {
	mu         sync.Mutex
	heartbeats int
	errors     []error
}

func (s *recordingSink) Heartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartbeats++
}

func (s *recordingSink) Error(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeats
}

// scriptedSource sends a number of heartbeats and then returns err
type scriptedSource struct {
	heartbeats int
	errs       []error
	err        error
	block      bool
}

func (s *scriptedSource) Name() string {
	return "scripted"
}

func (s *scriptedSource) Run(ctx context.Context, sink Sink) error {
	for i := 0; i < s.heartbeats; i++ {
		sink.Heartbeat()
	}
	for _, err := range s.errs {
		sink.Error(err)
	}
	if s.block {
		<-ctx.Done()
	}
	return s.err
}
