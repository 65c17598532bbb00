package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-yaml/yaml"
	"github.com/spf13/pflag"
)

type options struct {
	options []ConfigOption
	err     error
}

// ParseCommandLine configures the monitor from command line options or from a YAML or TOML
// configuration file passed with the -c flag.  Returns the user command and a slice of
// functional options that can be applied to the configuration.
func ParseCommandLine() ([]string, []ConfigOption, error) {
	pf := createFlagSet()
	return parse(os.Args[1:], pf)
}

func parse(args []string, pf *pflag.FlagSet) ([]string, []ConfigOption, error) {
	options := options{}
	if err := pf.ParseAll(args, parseFlag(&options)); err != nil {
		return pf.Args(), options.options, err
	}
	return pf.Args(), options.options, options.err
}

func createFlagSet() *pflag.FlagSet {
	pf := pflag.NewFlagSet("phimon", pflag.ContinueOnError)
	pf.Usage = func() {
		fmt.Printf("Usage of phimon:\nphimon -i <identifier> <options> -- mycommand <mycommand-options>\nphimon -i <identifier> <options> --probe host:port\n")
		fmt.Printf("\n%s", pf.FlagUsagesWrapped(10))
		fmt.Printf("\n\nFor unknown flag errors, add an empty flag separator (--) between the flags for phimon and your command.  Example:\n\nphimon -i id -c config.yml -- mycommand --otherflag\n")
	}

	pf.StringP("id", "i", "", "Identifier for this monitor (default random)")
	pf.StringP("config", "c", "", "Use yaml or toml configuration file")
	pf.Float64("threshold", 8.0, "Phi threshold above which the resource is considered down")
	pf.Int("max-sample-size", 100, "Number of heartbeat intervals used to estimate the arrival distribution")
	pf.Duration("min-std-deviation", 100*time.Millisecond, "Minimum standard deviation of heartbeat intervals")
	pf.Duration("acceptable-heartbeat-pause", 3*time.Second, "Number of lost or delayed heartbeats, as a duration, accepted before suspecting the resource")
	pf.Duration("first-heartbeat-estimate", time.Second, "Expected heartbeat interval used before any heartbeats arrive")
	pf.String("rule", "", "A line of output matching this regex is a heartbeat.  Without rules every line is a heartbeat.")
	pf.String("rule-json", "", "A JSON line whose field matches is a heartbeat.  Accepts the field and a regular expression or simple text separated by a colon (e.g. field:value).  Nested JSON structures are accessed using a flattened path with a dot (e.g. field.nested:value).")
	pf.String("probe", "", "Poll the gRPC health service at host:port instead of running a command")
	pf.String("probe-service", "", "Service name sent with each health check")
	pf.Duration("probe-interval", time.Second, "Time between health checks")
	pf.Bool("insecure", false, "Do not use TLS to secure the health check connection")
	pf.Duration("check-interval", 500*time.Millisecond, "Time between evaluations of the detector")
	pf.Bool("verbose", false, "Write the phi value on every evaluation")
	pf.Bool("no-error-reports", false, "Do not send reports when there are unexpected errors in the client")
	pf.String("shell", "", "Shell to use to execute command")

	return pf
}

func parseFlag(o *options) func(*pflag.Flag, string) error {
	return func(flag *pflag.Flag, value string) error {
		switch flag.Name {
		case "config":
			opts, err := parseFromFile(value)
			if err != nil {
				o.err = err
				return err
			}
			o.options = append(o.options, opts...)
		default:
			option, err := handleOption(flag.Name, value)
			if err != nil {
				o.err = err
				return err
			}
			o.options = append(o.options, option)
		}
		return nil
	}
}

func handleOption(name string, value string) (ConfigOption, error) {
	switch name {
	case "id":
		return ID(value), nil
	case "threshold":
		return Threshold(value), nil
	case "max-sample-size":
		return MaxSampleSize(value), nil
	case "min-std-deviation":
		return MinStdDeviation(value), nil
	case "acceptable-heartbeat-pause":
		return AcceptableHeartbeatPause(value), nil
	case "first-heartbeat-estimate":
		return FirstHeartbeatEstimate(value), nil
	case "rule":
		return Rule(value), nil
	case "rule-json":
		jrule := strings.SplitAfterN(value, ":", 2)
		if len(jrule) != 2 {
			return nil, fmt.Errorf("invalid format for json rule, should be field:value only in %s", value)
		}
		return JSONRule(jrule[0][0:len(jrule[0])-1], jrule[1]), nil
	case "probe":
		return Probe(value), nil
	case "probe-service":
		return ProbeService(value), nil
	case "probe-interval":
		return ProbeInterval(value), nil
	case "insecure":
		return Insecure(), nil
	case "check-interval":
		return CheckInterval(value), nil
	case "verbose":
		return Verbose(), nil
	case "no-error-reports":
		return NoErrorReports(), nil
	case "shell":
		return Shell(value), nil
	default:
		return nil, fmt.Errorf("Unknown option: %s", name)
	}
}

func parseFromFile(fpath string) ([]ConfigOption, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	cfg := make(map[string]interface{})
	switch ext := strings.ToLower(filepath.Ext(fpath)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("could not parse toml config %s: %w", fpath, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("could not parse yaml config %s: %w", fpath, err)
		}
	default:
		return nil, fmt.Errorf("unknown config file type %s, use .yaml, .yml or .toml", ext)
	}
	return optionsFromMap(cfg)
}

// optionsFromMap converts decoded configuration keys to options.  Keys are the long flag names.
func optionsFromMap(cfg map[string]interface{}) ([]ConfigOption, error) {
	var options []ConfigOption
	for k, v := range cfg {
		values, err := stringValues(k, v)
		if err != nil {
			return options, err
		}
		for _, val := range values {
			opt, err := handleOption(k, val)
			if err != nil {
				return options, err
			}
			options = append(options, opt)
		}
	}
	return options, nil
}

// stringValues flattens a decoded value into its command line form.  Boolean flags are
// only applied when true.
func stringValues(k string, v interface{}) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case int:
		return []string{strconv.Itoa(val)}, nil
	case int64:
		return []string{strconv.FormatInt(val, 10)}, nil
	case float64:
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}, nil
	case bool:
		if !val {
			return nil, nil
		}
		return []string{""}, nil
	// handles the case of a list of rules
	case []interface{}:
		if k != "rule" && k != "rule-json" {
			return nil, fmt.Errorf("Could not process config key %s, only rules may be lists", k)
		}
		var out []string
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("Could not process config key %s, rules must be strings", k)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("Could not process config key %s, unknown type", k)
	}
}
