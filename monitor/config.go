package monitor

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BTBurke/accrual"
	"github.com/google/uuid"
)

// Config holds the settings for monitoring a single resource
type Config struct {
	ID            string
	Hostname      string
	Rules         []rule
	Command       []string
	Probe         string
	ProbeService  string
	ProbeInterval time.Duration
	CheckInterval time.Duration
	Verbose       bool
	Shell         string

	detector       []accrual.ConfigOption
	threshold      float64
	useTLS         bool
	noErrorReports bool
	out            io.Writer
}

type rule struct {
	Field string
	Regex *regexp.Regexp
}

// ConfigOption modifies the monitor configuration.  Most options take the string form of
// their value as found on the command line or in a configuration file.
type ConfigOption func(c *Config) error

func newConfig(command []string, options ...ConfigOption) (Config, []error) {
	host, err := os.Hostname()
	if err != nil {
		host = ""
	}
	c := Config{
		ID:            uuid.New().String(),
		Hostname:      host,
		Command:       command,
		ProbeInterval: 1 * time.Second,
		CheckInterval: 500 * time.Millisecond,
		threshold:     accrual.DefaultConfig().Threshold,
		useTLS:        true,
		out:           os.Stdout,
	}

	var errors []error
	for _, option := range options {
		err := option(&c)
		if err != nil {
			errors = append(errors, err)
		}
	}

	switch {
	case len(c.Command) > 0 && len(c.Probe) > 0:
		errors = append(errors, fmt.Errorf("choose one heartbeat source: either a command or --probe, not both"))
	case len(c.Command) == 0 && len(c.Probe) == 0:
		errors = append(errors, fmt.Errorf("no heartbeat source, use phimon <options> -- mycommand or phimon --probe host:port"))
	}
	if len(c.Command) > 0 && c.Shell == "" {
		shell, err := exec.LookPath("bash")
		if err != nil {
			errors = append(errors, fmt.Errorf("no default shell found, specify path to shell using option --shell"))
		}
		c.Shell = shell
	}
	if len(c.Probe) > 0 && len(c.Rules) > 0 {
		errors = append(errors, fmt.Errorf("rules only apply to command output, not to --probe"))
	}
	if c.ProbeInterval <= 0 {
		errors = append(errors, fmt.Errorf("probe interval must be > 0, got %s", c.ProbeInterval))
	}
	if c.CheckInterval <= 0 {
		errors = append(errors, fmt.Errorf("check interval must be > 0, got %s", c.CheckInterval))
	}
	if _, errs := accrual.New(c.detector...); len(errs) > 0 {
		errors = append(errors, errs...)
	}

	if len(errors) > 0 {
		return Config{}, errors
	}
	return c, nil
}

// source returns the name of the configured heartbeat source
func (c Config) source() string {
	if len(c.Probe) > 0 {
		return "probe"
	}
	return "command"
}

// ID sets the identifier used in log records and metric names
func ID(id string) ConfigOption {
	return func(c *Config) error {
		if len(strings.TrimSpace(id)) == 0 {
			return fmt.Errorf("id must not be blank")
		}
		c.ID = id
		return nil
	}
}

// Threshold sets the phi threshold of the detector
func Threshold(threshold string) ConfigOption {
	return func(c *Config) error {
		t, err := strconv.ParseFloat(threshold, 64)
		if err != nil {
			return fmt.Errorf("could not convert threshold to a number: %s", threshold)
		}
		c.threshold = t
		c.detector = append(c.detector, accrual.Threshold(t))
		return nil
	}
}

// MaxSampleSize sets the number of heartbeat intervals kept by the detector
func MaxSampleSize(size string) ConfigOption {
	return func(c *Config) error {
		n, err := strconv.Atoi(size)
		if err != nil {
			return fmt.Errorf("could not convert max-sample-size to integer: %s", size)
		}
		c.detector = append(c.detector, accrual.MaxSampleSize(n))
		return nil
	}
}

// MinStdDeviation sets the floor of the standard deviation used to calculate phi
func MinStdDeviation(d string) ConfigOption {
	return durationOption("min-std-deviation", d, accrual.MinStdDeviation)
}

// AcceptableHeartbeatPause sets the margin for lost or delayed heartbeats
func AcceptableHeartbeatPause(d string) ConfigOption {
	return durationOption("acceptable-heartbeat-pause", d, accrual.AcceptableHeartbeatPause)
}

// FirstHeartbeatEstimate bootstraps the detector before the first heartbeats arrive
func FirstHeartbeatEstimate(d string) ConfigOption {
	return durationOption("first-heartbeat-estimate", d, accrual.FirstHeartbeatEstimate)
}

func durationOption(name string, value string, f func(time.Duration) accrual.ConfigOption) ConfigOption {
	return func(c *Config) error {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("unrecognized %s duration: %s", name, value)
		}
		c.detector = append(c.detector, f(duration))
		return nil
	}
}

// Rule counts every line of output matching regex as a heartbeat
func Rule(regex string) ConfigOption {
	return func(c *Config) error {
		reg, err := regexp.Compile(regex)
		if err != nil {
			return fmt.Errorf("invalid rule %s: %w", regex, err)
		}
		c.Rules = append(c.Rules, rule{Regex: reg})
		return nil
	}
}

// JSONRule counts every JSON line whose field matches regex as a heartbeat.  Nested fields
// are addressed with a dotted path.
func JSONRule(field string, regex string) ConfigOption {
	return func(c *Config) error {
		reg, err := regexp.Compile(regex)
		if err != nil {
			return fmt.Errorf("invalid json rule %s:%s: %w", field, regex, err)
		}
		c.Rules = append(c.Rules, rule{
			Field: field,
			Regex: reg,
		})
		return nil
	}
}

// Probe selects the gRPC health service at host:port as the heartbeat source
func Probe(hostport string) ConfigOption {
	return func(c *Config) error {
		if _, _, err := net.SplitHostPort(hostport); err != nil {
			return fmt.Errorf("probe should be in the form host:port, got %s", hostport)
		}
		c.Probe = hostport
		return nil
	}
}

// ProbeService sets the service name sent with each health check
func ProbeService(service string) ConfigOption {
	return func(c *Config) error {
		c.ProbeService = service
		return nil
	}
}

// ProbeInterval sets how often the health service is polled
func ProbeInterval(interval string) ConfigOption {
	return func(c *Config) error {
		duration, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("unrecognized probe interval duration: %s", interval)
		}
		c.ProbeInterval = duration
		return nil
	}
}

// CheckInterval sets how often the detector is evaluated
func CheckInterval(interval string) ConfigOption {
	return func(c *Config) error {
		duration, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("unrecognized check interval duration: %s", interval)
		}
		c.CheckInterval = duration
		return nil
	}
}

// Insecure probes the health service without TLS
func Insecure() ConfigOption {
	return func(c *Config) error {
		c.useTLS = false
		return nil
	}
}

// Verbose writes a phi sample on every check
func Verbose() ConfigOption {
	return func(c *Config) error {
		c.Verbose = true
		return nil
	}
}

// NoErrorReports disables crash reporting of unexpected errors
func NoErrorReports() ConfigOption {
	return func(c *Config) error {
		c.noErrorReports = true
		return nil
	}
}

// Shell sets the shell used to run commands with pipes or redirects
func Shell(shellPath string) ConfigOption {
	return func(c *Config) error {
		shell, err := exec.LookPath(shellPath)
		if err != nil {
			return fmt.Errorf("no shell found at path %s", shellPath)
		}
		c.Shell = shell
		return nil
	}
}

// Output sets the destination of log records.  Default: os.Stdout
func Output(w io.Writer) ConfigOption {
	return func(c *Config) error {
		c.out = w
		return nil
	}
}
