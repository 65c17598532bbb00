package monitor

import (
	"fmt"

	"github.com/BTBurke/accrual/pkg/eventbus"
	"github.com/BTBurke/accrual/pkg/metric"
)

// reporter writes a log record for every event on the monitor bus
type reporter struct {
	log    *Logger
	sub    *eventbus.Subscription
	phi    metric.Name
	errors ErrorReporter
}

func newReporter(bus *eventbus.EventBus, log *Logger, phi metric.Name, errors ErrorReporter) *reporter {
	return &reporter{
		log:    log,
		sub:    bus.Subscribe(64),
		phi:    phi,
		errors: errors,
	}
}

// run reports events until the bus shuts down
func (r *reporter) run() {
	defer r.sub.Done()
	for e := range r.sub.C {
		if err := r.report(e); err != nil {
			r.errors.ReportError(err)
		}
	}
}

func (r *reporter) report(e eventbus.Event) error {
	switch e.Type {
	case EventMonitoring, EventAvailable, EventUnavailable:
		var t Transition
		if err := eventbus.Decode(e, &t); err != nil {
			return err
		}
		switch e.Type {
		case EventMonitoring:
			return r.log.Info("monitoring started", "state", t.To, "phi", t.Phi)
		case EventAvailable:
			return r.log.Info("resource available", "from", t.From, "to", t.To, "phi", t.Phi)
		default:
			return r.log.Warn("resource unavailable", "from", t.From, "to", t.To, "phi", t.Phi)
		}
	case EventSlowHeartbeat:
		var s SlowHeartbeat
		if err := eventbus.Decode(e, &s); err != nil {
			return err
		}
		return r.log.Warn("slow heartbeat", "interval", s.Interval)
	case EventSourceError:
		var s SourceError
		if err := eventbus.Decode(e, &s); err != nil {
			return err
		}
		return r.log.Error("heartbeat source error", "source", s.Source, "err", s.Err)
	case EventPhi:
		var s PhiSample
		if err := eventbus.Decode(e, &s); err != nil {
			return err
		}
		return r.log.Info("phi", "metric", r.phi, "value", s.Phi, "available", s.Available)
	default:
		return fmt.Errorf("unknown monitor event: %s", e.Type)
	}
}
