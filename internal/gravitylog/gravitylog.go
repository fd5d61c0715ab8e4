// Package gravitylog is the leveled logger every generation stage writes
// diagnostics through. It mirrors the shape of
// github.com/bytecodealliance/wasm-tools-go/wit/logging so the CLI's
// --verbose/--debug flags behave exactly as their wit-bindgen-go
// counterparts do.
package gravitylog

import (
	"io"
	"log"
	"math"
)

// Level is a logging severity, ordered the same way as [log/slog.Level].
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
	LevelNever Level = math.MaxInt
)

// Logger is the logging interface every Gravity package depends on.
type Logger interface {
	Level() Level
	Logf(level Level, format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Discard returns a Logger that drops every message.
func Discard() Logger {
	return &logger{level: LevelNever}
}

// New returns a Logger that writes messages at or above level to out.
func New(out io.Writer, level Level) Logger {
	return &logger{level: level, std: log.New(out, "", 0)}
}

type logger struct {
	level Level
	std   *log.Logger
}

func (l *logger) Level() Level { return l.level }

func (l *logger) Logf(level Level, format string, args ...any) {
	if l.std == nil || level < l.level {
		return
	}
	l.std.Printf(format, args...)
}

func (l *logger) Debugf(format string, args ...any) { l.Logf(LevelDebug, format, args...) }
func (l *logger) Infof(format string, args ...any)   { l.Logf(LevelInfo, format, args...) }
func (l *logger) Warnf(format string, args ...any)   { l.Logf(LevelWarn, format, args...) }
func (l *logger) Errorf(format string, args ...any)  { l.Logf(LevelError, format, args...) }

// FromFlags returns the Logger implied by the CLI's --verbose and --debug
// flags, writing to out.
func FromFlags(out io.Writer, verbose, debug bool) Logger {
	level := LevelWarn
	switch {
	case debug:
		level = LevelDebug
	case verbose:
		level = LevelInfo
	}
	return New(out, level)
}
