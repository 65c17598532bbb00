package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var _ Source = &commandSource{}

// ExitError is returned by the command source when the user's command exits unsuccessfully
type ExitError struct {
	Code int
	Msg  string
}

func (e ExitError) Error() string {
	return e.Msg
}

// commandSource runs the user's command and treats lines of its output as heartbeats
type commandSource struct {
	command []string
	shell   string
	rules   []rule
	stdout  io.Writer
	stderr  io.Writer
}

func newCommandSource(c Config) *commandSource {
	return &commandSource{
		command: c.Command,
		shell:   c.Shell,
		rules:   c.Rules,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

func (s *commandSource) Name() string {
	return "command"
}

// Run executes the command in a forked process.  Output is passed through unchanged and every
// line matching a rule, or every line when there are no rules, is a heartbeat.
func (s *commandSource) Run(ctx context.Context, sink Sink) error {
	wrappedCmd, cleanup, err := wrapComplexCommand(s.shell, s.command)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				sink.Error(fmt.Errorf("could not remove wrapped command: %w", err))
			}
		}()
	}

	cmd := exec.CommandContext(ctx, wrappedCmd[0], wrappedCmd[1:]...)
	stdoutReader, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderrReader, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not start command %s: %w", strings.Join(s.command, " "), err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.scan(stdoutReader, s.stdout, sink)
	}()
	go func() {
		defer wg.Done()
		s.scan(stderrReader, s.stderr, sink)
	}()
	wg.Wait()

	err = cmd.Wait()
	switch {
	case ctx.Err() != nil:
		return nil
	case err == nil:
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ExitError{Code: exitErr.ExitCode(), Msg: fmt.Sprintf("command exited with status %d", exitErr.ExitCode())}
	}
	return err
}

// maxRuleLength bounds the part of a line matched against the rules.  Longer lines are still
// passed through in full.
const maxRuleLength = 1 << 20

// scan copies r to w line by line and reports heartbeats.  Lines of any length are read, and
// after a read error the rest of r is discarded so the command never blocks on a full pipe.
func (s *commandSource) scan(r io.Reader, w io.Writer, sink Sink) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err != io.EOF && !errors.Is(err, os.ErrClosed) {
				sink.Error(fmt.Errorf("error reading command output: %w", err))
				_, _ = io.Copy(io.Discard, r)
			}
			return
		}
		if _, err := w.Write(chunk); err != nil {
			sink.Error(fmt.Errorf("error writing log line: %w", err))
		}
		if room := maxRuleLength - len(line); room > 0 {
			line = append(line, chunk[:min(room, len(chunk))]...)
		}
		if isPrefix {
			continue
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			sink.Error(fmt.Errorf("error writing log line: %w", err))
		}
		if isHeartbeat(line, s.rules) {
			sink.Heartbeat()
		}
		line = line[:0]
	}
}

// isHeartbeat reports whether the line satisfies any rule.  Without rules every line counts.
func isHeartbeat(line []byte, rules []rule) bool {
	if len(rules) == 0 {
		return true
	}
	for _, rule := range rules {
		text := line
		if len(rule.Field) > 0 {
			text = extractTextFromJSON(line, rule.Field)
		}
		if rule.Regex.Match(text) {
			return true
		}
	}
	return false
}

// extractTextFromJSON returns the text form of the value at a dotted field path, or nothing if
// the line is not JSON or the field does not exist.  Lists are joined with newlines.
func extractTextFromJSON(raw []byte, field string) []byte {
	fieldPath := strings.SplitN(field, ".", 2)
	switch {
	case len(fieldPath) > 1:
		res := make(map[string]json.RawMessage)
		if err := json.Unmarshal(raw, &res); err != nil {
			return []byte{}
		}
		return extractTextFromJSON(res[fieldPath[0]], fieldPath[1])
	default:
		res := make(map[string]interface{})
		if err := json.Unmarshal(raw, &res); err != nil {
			return []byte{}
		}
		switch value := res[field].(type) {
		case []interface{}:
			var out []string
			for _, val := range value {
				if s, ok := jsonText(val); ok {
					out = append(out, s)
				}
			}
			return []byte(strings.Join(out, "\n"))
		default:
			s, _ := jsonText(value)
			return []byte(s)
		}
	}
}

func jsonText(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

var complexCommand = regexp.MustCompile("(&&|\x7C|<|>)")

// wrapComplexCommand writes commands using pipes, redirects or chaining to a temporary script
// run by the shell.  The returned cleanup removes the script.
func wrapComplexCommand(shell string, args []string) ([]string, func() error, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("no command to run")
	}

	var match []byte
	for _, arg := range args {
		match = complexCommand.Find([]byte(arg))
		if match != nil {
			break
		}
	}

	switch match {
	case nil:
		return args, nil, nil
	default:
		f, err := os.CreateTemp("", "phimon")
		if err != nil {
			return args, nil, err
		}
		cleanup := func() error { return os.Remove(f.Name()) }
		if _, err := f.Write([]byte(strings.Join(args, " "))); err != nil {
			f.Close()
			cleanup()
			return args, nil, err
		}
		if err := f.Close(); err != nil {
			cleanup()
			return args, nil, err
		}
		return []string{shell, f.Name()}, cleanup, nil
	}
}
