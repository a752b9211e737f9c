// Package persist carries the core's logging surface: a single object
// threaded into every long-lived object (engines, streams, back-ends) that
// call-sites log through without caring what's underneath, backed here by
// logrus.
package persist

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is a thin, structured wrapper over a logrus entry. It exists so
// that call-sites depend on this package's small surface rather than on
// logrus directly.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger returns a Logger writing to w at the given level ("debug",
// "info", "warn", "error"). An empty level defaults to "info".
func NewLogger(w io.Writer, module string, level string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return &Logger{entry: l.WithField("module", module)}
}

// With returns a child Logger with an additional structured field, used to
// stamp a stream's trace ID onto every line it produces.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// Debugln logs at debug level.
func (l *Logger) Debugln(args ...interface{}) { l.entry.Debugln(args...) }

// Println logs at info level, for routine operational messages.
func (l *Logger) Println(args ...interface{}) { l.entry.Infoln(args...) }

// Warnln logs at warn level.
func (l *Logger) Warnln(args ...interface{}) { l.entry.Warnln(args...) }

// Severe logs at error level, for failures that should draw operator
// attention.
func (l *Logger) Severe(args ...interface{}) { l.entry.Errorln(args...) }

// Critical logs at error level and is used for internal invariant
// violations.
func (l *Logger) Critical(args ...interface{}) { l.entry.Errorln(append([]interface{}{"CRITICAL:"}, args...)...) }

// Discard returns a Logger that drops everything, for use in tests that
// don't want log noise.
func Discard() *Logger {
	return NewLogger(io.Discard, "discard", "error")
}
