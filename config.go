package accrual

import (
	"fmt"
	"time"
)

// Policy selects how the detector state is guarded
type Policy int

const (
	// PolicyExclusive state has a single owner and no internal synchronization.  A detector
	// built with this policy must not be shared between goroutines.
	PolicyExclusive Policy = iota
	// PolicyShared state is guarded by a reader/writer lock.  Heartbeats take the write side,
	// phi and availability checks take the read side and may run concurrently.
	PolicyShared
)

func (p Policy) String() string {
	switch p {
	case PolicyExclusive:
		return "exclusive"
	case PolicyShared:
		return "shared"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Config holds the detector parameters.  It is validated once when the detector is created.
//
// Threshold - A low threshold is prone to generate many wrong suspicions but ensures a quick
// detection in the event of a real crash. Conversely, a high threshold generates fewer
// mistakes but needs more time to detect actual crashes.
//
// MaxSampleSize - Number of samples to use for calculation of mean and standard deviation of
// inter-arrival times.
//
// MinStdDeviation - Minimum standard deviation to use for the normal distribution used when
// calculating phi. Too low standard deviation might result in too much sensitivity for
// sudden, but normal, deviations in heartbeat inter arrival times.
//
// AcceptableHeartbeatPause - Duration corresponding to number of potentially lost/delayed
// heartbeats that will be accepted before considering it to be an anomaly. This margin is
// important to be able to survive sudden, occasional, pauses in heartbeat arrivals, due to
// for example garbage collection or network drop.
//
// FirstHeartbeatEstimate - Bootstrap the stats with heartbeats that correspond to this
// duration, with a rather high standard deviation, since the environment is unknown in the
// beginning.
type Config struct {
	Threshold                float64
	MaxSampleSize            int
	MinStdDeviation          time.Duration
	AcceptableHeartbeatPause time.Duration
	FirstHeartbeatEstimate   time.Duration
	Policy                   Policy

	onSlowHeartbeat func(time.Duration)
}

// ConfigOption modifies the default configuration
type ConfigOption func(c *Config) error

// DefaultConfig returns the configuration used when no options are supplied
func DefaultConfig() Config {
	return Config{
		Threshold:                8.0,
		MaxSampleSize:            100,
		MinStdDeviation:          100 * time.Millisecond,
		AcceptableHeartbeatPause: 3 * time.Second,
		FirstHeartbeatEstimate:   1 * time.Second,
		Policy:                   PolicyExclusive,
	}
}

// newConfig applies every option to the defaults and validates the result.  All option and
// validation errors are returned together.
func newConfig(options ...ConfigOption) (Config, []error) {
	c := DefaultConfig()

	var errors []error
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(&c); err != nil {
			errors = append(errors, err)
		}
	}
	errors = append(errors, c.validate()...)

	if len(errors) > 0 {
		return Config{}, errors
	}
	return c, nil
}

func (c Config) validate() []error {
	var errors []error
	if !(c.Threshold > 0) {
		errors = append(errors, InvalidThreshold{Msg: fmt.Sprintf("threshold must be > 0, got %v", c.Threshold)})
	}
	if c.MaxSampleSize <= 0 {
		errors = append(errors, InvalidMaxSampleSize{Msg: fmt.Sprintf("max sample size must be > 0, got %d", c.MaxSampleSize)})
	}
	if c.MinStdDeviation <= 0 {
		errors = append(errors, InvalidMinStdDeviation{Msg: fmt.Sprintf("min standard deviation must be > 0, got %s", c.MinStdDeviation)})
	}
	if c.AcceptableHeartbeatPause < 0 {
		errors = append(errors, InvalidAcceptableHeartbeatPause{Msg: fmt.Sprintf("acceptable heartbeat pause must be >= 0, got %s", c.AcceptableHeartbeatPause)})
	}
	if c.FirstHeartbeatEstimate <= 0 {
		errors = append(errors, InvalidFirstHeartbeatEstimate{Msg: fmt.Sprintf("first heartbeat estimate must be > 0, got %s", c.FirstHeartbeatEstimate)})
	}
	return errors
}

// Threshold for considering the monitored resource unavailable.  Default: 8.0
func Threshold(threshold float64) ConfigOption {
	return func(c *Config) error {
		c.Threshold = threshold
		return nil
	}
}

// MaxSampleSize is the number of intervals kept in the heartbeat history.  Default: 100
func MaxSampleSize(size int) ConfigOption {
	return func(c *Config) error {
		c.MaxSampleSize = size
		return nil
	}
}

// MinStdDeviation floors the standard deviation used to calculate phi.  Default: 100ms
func MinStdDeviation(d time.Duration) ConfigOption {
	return func(c *Config) error {
		c.MinStdDeviation = d
		return nil
	}
}

// AcceptableHeartbeatPause is added to the mean interval before calculating phi.  Default: 3s
func AcceptableHeartbeatPause(d time.Duration) ConfigOption {
	return func(c *Config) error {
		c.AcceptableHeartbeatPause = d
		return nil
	}
}

// FirstHeartbeatEstimate seeds the heartbeat history before the first real heartbeat.  Default: 1s
func FirstHeartbeatEstimate(d time.Duration) ConfigOption {
	return func(c *Config) error {
		c.FirstHeartbeatEstimate = d
		return nil
	}
}

// WithPolicy selects how the detector state is guarded.  Default: PolicyExclusive
func WithPolicy(p Policy) ConfigOption {
	return func(c *Config) error {
		switch p {
		case PolicyExclusive, PolicyShared:
			c.Policy = p
			return nil
		default:
			return fmt.Errorf("unknown state policy: %s", p)
		}
	}
}

// Exclusive builds a detector for a single owner
func Exclusive() ConfigOption {
	return WithPolicy(PolicyExclusive)
}

// Shared builds a detector that is safe to share between goroutines
func Shared() ConfigOption {
	return WithPolicy(PolicyShared)
}

// OnSlowHeartbeat registers a callback invoked synchronously by Heartbeat when a recorded
// interval is at least half of the acceptable heartbeat pause.  The callback runs after the
// detector state is released, so it may query the detector.
func OnSlowHeartbeat(f func(interval time.Duration)) ConfigOption {
	return func(c *Config) error {
		c.onSlowHeartbeat = f
		return nil
	}
}
