// Package monitor watches a single resource with a phi accrual failure detector.  Heartbeats
// come either from the output of a user command or from polling a gRPC health service, and
// every change of availability is written as a logfmt record.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/BTBurke/accrual"
	"github.com/BTBurke/accrual/pkg/eventbus"
	"github.com/BTBurke/accrual/pkg/fsm"
	"github.com/BTBurke/accrual/pkg/metric"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Monitor drives a failure detector from a heartbeat source
type Monitor struct {
	Config Config

	detector     Detector
	source       Source
	bus          *eventbus.EventBus
	log          *Logger
	errors       ErrorReporter
	availability *availability
	heartbeats   *metric.ConcurrentCounter
}

// Result summarizes a finished monitor run
type Result struct {
	State       fsm.State
	Heartbeats  int
	Transitions int
	ExitCode    int
	Duration    time.Duration
}

// Failed reports whether the resource ended down or the command exited unsuccessfully
func (r Result) Failed() bool {
	return r.State == StateDown || r.ExitCode != 0
}

// New prepares a monitor for the user's command, or for the health service selected with
// the Probe option when command is empty
func New(command []string, options ...ConfigOption) (*Monitor, []error) {
	cfg, errs := newConfig(command, options...)
	if len(errs) > 0 {
		return nil, errs
	}

	bus := eventbus.New()
	detectorOptions := append(append([]accrual.ConfigOption{}, cfg.detector...),
		accrual.Shared(),
		accrual.OnSlowHeartbeat(func(interval time.Duration) {
			_ = bus.Dispatch(eventbus.NewEvent(EventSlowHeartbeat, SlowHeartbeat{Interval: interval}))
		}),
	)
	d, errs := accrual.New(detectorOptions...)
	if len(errs) > 0 {
		return nil, errs
	}

	var src Source
	switch cfg.source() {
	case "probe":
		src = newProbeSource(cfg)
	default:
		src = newCommandSource(cfg)
	}

	m, err := newMonitor(cfg, d, src, bus, newErrorReporter(cfg))
	if err != nil {
		return nil, []error{err}
	}
	return m, nil
}

func newMonitor(cfg Config, d Detector, src Source, bus *eventbus.EventBus, reporter ErrorReporter) (*Monitor, error) {
	a, err := newAvailability(d, bus, cfg.Verbose)
	if err != nil {
		return nil, err
	}
	return &Monitor{
		Config:       cfg,
		detector:     d,
		source:       src,
		bus:          bus,
		log:          NewLogger(cfg.out, LevelInfo, "id", cfg.ID),
		errors:       reporter,
		availability: a,
		heartbeats:   metric.NewConcurrentCounter(),
	}, nil
}

// Run monitors the resource until the heartbeat source finishes or ctx is done.  The detector
// is evaluated every check interval and once more after the source finishes.
func (m *Monitor) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	labels := map[string]string{"id": m.Config.ID, "source": m.source.Name()}
	if len(m.Config.Hostname) > 0 {
		labels["host"] = m.Config.Hostname
	}
	r := newReporter(m.bus, m.log, metric.NewName("phi", labels), m.errors)
	go r.run()

	m.logOrReport(m.log.Info("monitor starting", "source", m.source.Name(), "threshold", m.Config.threshold, "check_interval", m.Config.CheckInterval))

	var exitCode int
	sourceDone := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(sourceDone)
		err := m.source.Run(gctx, monitorSink{m})
		var exit ExitError
		if errors.As(err, &exit) {
			exitCode = exit.Code
			return nil
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(m.Config.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-sourceDone:
				_, err := m.availability.check()
				return err
			case <-ticker.C:
				if _, err := m.availability.check(); err != nil {
					return err
				}
			}
		}
	})
	err := g.Wait()
	if err != nil {
		m.errors.ReportError(err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := m.bus.Shutdown(sctx); serr != nil {
		m.errors.ReportError(serr)
	}

	res := Result{
		State:       m.availability.state(),
		Heartbeats:  m.heartbeats.Value(),
		Transitions: m.availability.transitions.Value(),
		ExitCode:    exitCode,
		Duration:    time.Since(start),
	}
	m.logOrReport(m.log.Info("monitor finished",
		"state", res.State,
		"heartbeats", res.Heartbeats,
		"transitions", res.Transitions,
		"exit_code", res.ExitCode,
		"duration", res.Duration,
	))
	return res, err
}

func (m *Monitor) logOrReport(err error) {
	if err != nil {
		m.errors.ReportError(err)
	}
}

// monitorSink feeds source output to the detector and the bus
type monitorSink struct {
	m *Monitor
}

func (s monitorSink) Heartbeat() {
	s.m.heartbeats.Add(1)
	s.m.detector.Heartbeat()
}

func (s monitorSink) Error(err error) {
	_ = s.m.bus.Dispatch(eventbus.NewEvent(EventSourceError, SourceError{Source: s.m.source.Name(), Err: err}))
}

// Wait blocks until unexpected errors have been sent to the crash reporting service
func (m *Monitor) Wait() {
	if w, ok := m.errors.(interface{ Wait() }); ok {
		w.Wait()
	}
}
