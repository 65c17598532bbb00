package monitor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHeartbeat(t *testing.T) {
	tt := []struct {
		Name   string
		Line   string
		Rules  []rule
		Expect bool
	}{
		{Name: "no rules", Line: "anything", Expect: true},
		{Name: "empty line no rules", Line: "", Expect: true},
		{Name: "simple match", Line: "heartbeat ok", Rules: []rule{{Regex: regexp.MustCompile("ok$")}}, Expect: true},
		{Name: "no match", Line: "heartbeat failed", Rules: []rule{{Regex: regexp.MustCompile("ok$")}}, Expect: false},
		{Name: "any rule", Line: "pong", Rules: []rule{{Regex: regexp.MustCompile("ping")}, {Regex: regexp.MustCompile("pong")}}, Expect: true},
		{Name: "json field", Line: `{"level":"info","msg":"tick"}`, Rules: []rule{{Field: "msg", Regex: regexp.MustCompile("^tick$")}}, Expect: true},
		{Name: "json other field", Line: `{"level":"tick","msg":"other"}`, Rules: []rule{{Field: "msg", Regex: regexp.MustCompile("^tick$")}}, Expect: false},
		{Name: "json not json", Line: `msg=tick`, Rules: []rule{{Field: "msg", Regex: regexp.MustCompile("tick")}}, Expect: false},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Expect, isHeartbeat([]byte(tc.Line), tc.Rules))
		})
	}
}

func TestExtractTextFromJSON(t *testing.T) {
	tt := []struct {
		Name   string
		JSON   string
		Field  string
		Expect string
	}{
		{Name: "string", JSON: `{"a":"text"}`, Field: "a", Expect: "text"},
		{Name: "number", JSON: `{"a":1.5}`, Field: "a", Expect: "1.5"},
		{Name: "integer", JSON: `{"a":42}`, Field: "a", Expect: "42"},
		{Name: "bool", JSON: `{"a":true}`, Field: "a", Expect: "true"},
		{Name: "list", JSON: `{"a":["x", 2, false]}`, Field: "a", Expect: "x\n2\nfalse"},
		{Name: "nested", JSON: `{"a":{"b":{"c":"deep"}}}`, Field: "a.b.c", Expect: "deep"},
		{Name: "missing", JSON: `{"a":"text"}`, Field: "b", Expect: ""},
		{Name: "missing nested", JSON: `{"a":"text"}`, Field: "a.b", Expect: ""},
		{Name: "object", JSON: `{"a":{"b":1}}`, Field: "a", Expect: ""},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Expect, string(extractTextFromJSON([]byte(tc.JSON), tc.Field)))
		})
	}
}

func TestWrapComplexCommand(t *testing.T) {
	tt := []struct {
		Name    string
		Args    []string
		Wrapped bool
	}{
		{Name: "simple", Args: []string{"echo", "hello"}, Wrapped: false},
		{Name: "pipe", Args: []string{"echo", "hello", "|", "grep", "h"}, Wrapped: true},
		{Name: "and", Args: []string{"true", "&&", "echo", "ok"}, Wrapped: true},
		{Name: "redirect", Args: []string{"echo", "hi", ">", "/dev/null"}, Wrapped: true},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			cmd, cleanup, err := wrapComplexCommand("/bin/sh", tc.Args)
			require.NoError(t, err)
			if !tc.Wrapped {
				assert.Equal(t, tc.Args, cmd)
				assert.Nil(t, cleanup)
				return
			}
			require.Len(t, cmd, 2)
			assert.Equal(t, "/bin/sh", cmd[0])
			script, err := os.ReadFile(cmd[1])
			require.NoError(t, err)
			assert.Contains(t, string(script), tc.Args[0])
			require.NoError(t, cleanup())
			_, err = os.Stat(cmd[1])
			assert.True(t, os.IsNotExist(err))
		})
	}

	_, _, err := wrapComplexCommand("/bin/sh", nil)
	assert.Error(t, err)
}

func TestCommandSource(t *testing.T) {
	tt := []struct {
		Name       string
		Command    []string
		Rules      []rule
		Heartbeats int
		ExitCode   int
		Stdout     string
	}{
		{Name: "every line", Command: []string{"sh", "-c", "echo one; echo two; echo three"}, Heartbeats: 3, Stdout: "one\ntwo\nthree\n"},
		{Name: "wrapped pipeline", Command: []string{"echo", "tick", "|", "cat"}, Heartbeats: 1, Stdout: "tick\n"},
		{Name: "rules", Command: []string{"sh", "-c", "echo tick; echo noise; echo tick"}, Rules: []rule{{Regex: regexp.MustCompile("^tick$")}}, Heartbeats: 2, Stdout: "tick\nnoise\ntick\n"},
		{Name: "exit code", Command: []string{"sh", "-c", "echo tick; exit 3"}, Heartbeats: 1, ExitCode: 3, Stdout: "tick\n"},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			s := &commandSource{command: tc.Command, shell: "/bin/sh", rules: tc.Rules, stdout: &stdout, stderr: &stderr}
			sink := &recordingSink{}

			err := s.Run(context.Background(), sink)
			switch tc.ExitCode {
			case 0:
				assert.NoError(t, err)
			default:
				var exit ExitError
				require.ErrorAs(t, err, &exit)
				assert.Equal(t, tc.ExitCode, exit.Code)
			}
			assert.Equal(t, tc.Heartbeats, sink.count())
			assert.Equal(t, tc.Stdout, stdout.String())
			assert.Empty(t, sink.errors)
		})
	}
}

func TestCommandSourceCancel(t *testing.T) {
	var stdout bytes.Buffer
	s := &commandSource{command: []string{"sleep", "10"}, shell: "/bin/sh", stdout: &stdout, stderr: &stdout}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.NoError(t, s.Run(ctx, &recordingSink{}))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCommandSourceNotFound(t *testing.T) {
	s := &commandSource{command: []string{"/does/not/exist"}, shell: "/bin/sh", stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	assert.Error(t, s.Run(context.Background(), &recordingSink{}))
}

func TestCommandSourceLongLines(t *testing.T) {
	var stdout bytes.Buffer
	// a 131072 byte line, then 5000 heartbeats
	script := `s=x; i=0; while [ $i -lt 17 ]; do s=$s$s; i=$((i+1)); done; echo $s; i=0; while [ $i -lt 5000 ]; do echo hb; i=$((i+1)); done`
	s := &commandSource{
		command: []string{"sh", "-c", script},
		shell:   "/bin/sh",
		rules:   []rule{{Regex: regexp.MustCompile("^hb$")}},
		stdout:  &stdout,
		stderr:  &bytes.Buffer{},
	}
	sink := &recordingSink{}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx, sink))
	require.NoError(t, ctx.Err())
	assert.Equal(t, 5000, sink.count())
	assert.Empty(t, sink.errors)
	assert.Equal(t, 131073+5000*3, stdout.Len())
}

func TestScan(t *testing.T) {
	long := strings.Repeat("x", 3*maxRuleLength)
	tt := []struct {
		Name       string
		Input      io.Reader
		Rules      []rule
		Heartbeats int
		Errors     int
		Out        string
	}{
		{Name: "line longer than the reader buffer", Input: strings.NewReader(long + "\nhb\n"), Rules: []rule{{Regex: regexp.MustCompile("^hb$")}}, Heartbeats: 1, Out: long + "\nhb\n"},
		{Name: "long line matches on its prefix", Input: strings.NewReader("hb" + long + "\n"), Rules: []rule{{Regex: regexp.MustCompile("^hbx")}}, Heartbeats: 1, Out: "hb" + long + "\n"},
		{Name: "missing final newline", Input: strings.NewReader("hb\nhb"), Heartbeats: 2, Out: "hb\nhb\n"},
		{Name: "read error", Input: io.MultiReader(strings.NewReader("hb\n"), iotest.ErrReader(errors.New("boom"))), Heartbeats: 1, Errors: 1, Out: "hb\n"},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			var out bytes.Buffer
			sink := &recordingSink{}
			s := &commandSource{rules: tc.Rules}
			s.scan(tc.Input, &out, sink)
			assert.Equal(t, tc.Heartbeats, sink.count())
			assert.Len(t, sink.errors, tc.Errors)
			assert.Equal(t, tc.Out, out.String())
		})
	}
}
