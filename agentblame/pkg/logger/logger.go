package logger

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the minimal logging surface engine components depend on.
type Logger interface {
	Info(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type defaultLogger struct {
	l *charmlog.Logger
}

// NewDefaultLogger returns a Logger writing human-readable output to wr.
func NewDefaultLogger(wr io.Writer) Logger {
	return NewDefaultLoggerLevel(wr, false)
}

// NewDefaultLoggerLevel is NewDefaultLogger with debug output enabled when
// debug is true.
func NewDefaultLoggerLevel(wr io.Writer, debug bool) Logger {
	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}
	l := charmlog.NewWithOptions(wr, charmlog.Options{
		Level:        level,
		ReportCaller: false,
	})
	return &defaultLogger{l: l}
}

func (s *defaultLogger) Info(msg string, args ...interface{}) {
	s.l.Info(msg, args...)
}

func (s *defaultLogger) Debug(msg string, args ...interface{}) {
	s.l.Debug(msg, args...)
}

func (s *defaultLogger) Error(msg string, args ...interface{}) {
	s.l.Error(msg, args...)
}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything. Used in tests.
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Error(msg string, args ...interface{}) {}
