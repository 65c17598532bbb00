package monitor

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(min Level, keyvals ...interface{}) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(&buf, min, keyvals...)
	l.now = func() time.Time { return time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l, &buf
}

func TestLogger(t *testing.T) {
	tt := []struct {
		name   string
		min    Level
		log    func(l *Logger) error
		expect string
	}{
		{
			name:   "info",
			min:    LevelInfo,
			log:    func(l *Logger) error { return l.Info("monitor starting", "source", "probe") },
			expect: "ts=2020-01-02T03:04:05Z level=info msg=\"monitor starting\" id=web1 source=probe\n",
		},
		{
			name:   "below minimum",
			min:    LevelInfo,
			log:    func(l *Logger) error { return l.Debug("hidden") },
			expect: "",
		},
		{
			name:   "warn with duration",
			min:    LevelDebug,
			log:    func(l *Logger) error { return l.Warn("slow heartbeat", "interval", 1500*time.Millisecond) },
			expect: "ts=2020-01-02T03:04:05Z level=warn msg=\"slow heartbeat\" id=web1 interval=1.5s\n",
		},
		{
			name:   "error value",
			min:    LevelDebug,
			log:    func(l *Logger) error { return l.Error("failed", "err", errors.New("connection refused")) },
			expect: "ts=2020-01-02T03:04:05Z level=error msg=failed id=web1 err=\"connection refused\"\n",
		},
		{
			name:   "odd keyvals",
			min:    LevelDebug,
			log:    func(l *Logger) error { return l.Info("odd", "key") },
			expect: "ts=2020-01-02T03:04:05Z level=info msg=odd id=web1 key=(MISSING)\n",
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			l, buf := testLogger(tc.min, "id", "web1")
			require.NoError(t, tc.log(l))
			assert.Equal(t, tc.expect, buf.String())
		})
	}
}

func TestLoggerUnsupportedValue(t *testing.T) {
	l, buf := testLogger(LevelDebug)
	require.NoError(t, l.Info("bad", "value", struct{ A int }{1}))
	require.NoError(t, l.Info("next"))
	assert.Contains(t, buf.String(), "msg=bad value=")
	assert.Contains(t, buf.String(), "\nts=2020-01-02T03:04:05Z level=info msg=next\n")
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "level(9)", Level(9).String())
}
