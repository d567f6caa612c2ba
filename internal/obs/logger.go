package obs

import (
	"fmt"
	"log"

	"github.com/rs/zerolog"
)

// Level orders log severities; the zero value is Debug.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var levels = [...]struct {
	name string
	zl   zerolog.Level
}{
	Debug: {"DEBUG", zerolog.DebugLevel},
	Info:  {"INFO", zerolog.InfoLevel},
	Warn:  {"WARN", zerolog.WarnLevel},
	Error: {"ERROR", zerolog.ErrorLevel},
}

func (l Level) valid() bool { return l >= Debug && l <= Error }

func (l Level) String() string {
	if !l.valid() {
		return "UNKNOWN"
	}
	return levels[l].name
}

// zerologLevel maps l onto zerolog's scale. Unknown levels log as errors.
func (l Level) zerologLevel() zerolog.Level {
	if !l.valid() {
		return zerolog.ErrorLevel
	}
	return levels[l].zl
}

// Logger is the logging interface the server writes through.
type Logger interface {
	Logf(level Level, format string, args ...any)
}

// NopLogger discards all logs.
type NopLogger struct{}

func (NopLogger) Logf(Level, string, ...any) {}

// StdLogger adapts the standard library logger.
type StdLogger struct {
	L   *log.Logger
	Min Level
}

func (s StdLogger) Logf(level Level, format string, args ...any) {
	if s.L == nil || level < s.Min {
		return
	}
	s.L.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

// Zerolog routes log lines into a zerolog.Logger. Fields carries
// key/value context added to every event, e.g. a component name.
type Zerolog struct {
	L      zerolog.Logger
	Fields map[string]any
}

func (z Zerolog) Logf(level Level, format string, args ...any) {
	ev := z.L.WithLevel(level.zerologLevel())
	if len(z.Fields) > 0 {
		ev = ev.Fields(z.Fields)
	}
	ev.Msgf(format, args...)
}
