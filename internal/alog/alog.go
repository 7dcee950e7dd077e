// Package alog defines the leveled logging contract the core depends on,
// and a github.com/sirupsen/logrus-backed implementation. The core never
// imports logrus directly; it only sees the Logger interface, so it can be
// driven by a fake in tests without dragging a real logging backend along.
package alog

import (
	"github.com/sirupsen/logrus"
)

// Logger is the leveled logging surface the core and stack discovery
// depend on. kv is an even-length list of alternating keys and values,
// matching logrus's structured-field convention.
type Logger interface {
	Trace(msg string, kv ...any)
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// Level is one of five severities: trace, debug, info, warn, error.
// logrus's own level set matches this verbatim, which is the reason it
// was picked over the stdlib's unleveled log package.
type Level string

const (
	LevelTrace Level = "trace"
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel converts a config-file or CLI-flag string into a logrus
// level, defaulting to Info on an empty string.
func ParseLevel(s string) (logrus.Level, error) {
	if s == "" {
		return logrus.InfoLevel, nil
	}
	return logrus.ParseLevel(s)
}

// Logrus adapts a *logrus.Logger to the Logger interface.
type Logrus struct {
	entry *logrus.Entry
}

// NewLogrus builds a Logrus logger at the given level, writing to the
// underlying logrus.Logger's configured output (stderr by default).
func NewLogrus(level logrus.Level) *Logrus {
	l := logrus.New()
	l.SetLevel(level)
	return &Logrus{entry: logrus.NewEntry(l)}
}

func fields(kv []any) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}

func (l *Logrus) Trace(msg string, kv ...any) { l.entry.WithFields(fields(kv)).Trace(msg) }
func (l *Logrus) Debug(msg string, kv ...any) { l.entry.WithFields(fields(kv)).Debug(msg) }
func (l *Logrus) Info(msg string, kv ...any)  { l.entry.WithFields(fields(kv)).Info(msg) }
func (l *Logrus) Warn(msg string, kv ...any)  { l.entry.WithFields(fields(kv)).Warn(msg) }
func (l *Logrus) Error(msg string, kv ...any) { l.entry.WithFields(fields(kv)).Error(msg) }

// Nop discards every call. Used by tests and by callers that configured no
// logger.
type Nop struct{}

func (Nop) Trace(string, ...any) {}
func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}
