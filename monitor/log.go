package monitor

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-logfmt/logfmt"
)

// Level is the severity of a log record
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Logger writes one logfmt record per call.  Every record starts with ts, level and msg
// followed by the logger's context and then the key/value pairs of the call.
type Logger struct {
	mu      sync.Mutex
	enc     *logfmt.Encoder
	min     Level
	context []interface{}
	now     func() time.Time
}

// NewLogger returns a logger writing records at or above min to w
func NewLogger(w io.Writer, min Level, keyvals ...interface{}) *Logger {
	return &Logger{
		enc:     logfmt.NewEncoder(w),
		min:     min,
		context: keyvals,
		now:     time.Now,
	}
}

// Log writes a record.  An odd number of keyvals is padded with a missing value marker.
func (l *Logger) Log(level Level, msg string, keyvals ...interface{}) error {
	if level < l.min {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "(MISSING)")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	record := make([]interface{}, 0, 6+len(l.context)+len(keyvals))
	record = append(record, "ts", l.now().UTC().Format(time.RFC3339Nano), "level", level, "msg", msg)
	record = append(record, l.context...)
	record = append(record, keyvals...)

	if err := l.enc.EncodeKeyvals(record...); err != nil {
		l.enc.EndRecord()
		return fmt.Errorf("could not encode log record: %w", err)
	}
	return l.enc.EndRecord()
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) error {
	return l.Log(LevelDebug, msg, keyvals...)
}

func (l *Logger) Info(msg string, keyvals ...interface{}) error {
	return l.Log(LevelInfo, msg, keyvals...)
}

func (l *Logger) Warn(msg string, keyvals ...interface{}) error {
	return l.Log(LevelWarn, msg, keyvals...)
}

func (l *Logger) Error(msg string, keyvals ...interface{}) error {
	return l.Log(LevelError, msg, keyvals...)
}
