// Package nebulalog provides the minimal leveled logging interface used
// across the store, registry, and node packages.
package nebulalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Level is a logging verbosity threshold.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// ParseLevel parses the spec's log level names (error, warn, info, debug,
// trace), defaulting to LevelInfo for unrecognized input.
func ParseLevel(s string) Level {
	switch s {
	case "error":
		return LevelError
	case "warn":
		return LevelWarn
	case "debug":
		return LevelDebug
	case "trace":
		return LevelTrace
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "info"
	}
}

// Logger is the logging interface used throughout the module.
type Logger interface {
	Errorf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Tracef(format string, args ...interface{})
}

// slogLevel maps our five-level scheme onto slog's four built-in levels;
// LevelTrace logs at slog.LevelDebug with a "trace" tag so it still shows up
// under a debug-enabled handler without a custom slog.Leveler.
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelDebug, LevelTrace:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// slogLogger adapts slog's structured logger to the module's printf-style
// Logger interface, filtering by level before formatting the message.
type slogLogger struct {
	level Level
	log   *slog.Logger
}

// New creates a Logger writing structured text records to os.Stderr at the
// given level.
func New(level Level) Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level.slogLevel()})
	return &slogLogger{level: level, log: slog.New(handler)}
}

func (l *slogLogger) logf(level Level, tag, format string, args ...interface{}) {
	if level > l.level {
		return
	}
	l.log.Log(context.Background(), level.slogLevel(), fmt.Sprintf(format, args...), "tag", tag)
}

func (l *slogLogger) Errorf(format string, args ...interface{}) { l.logf(LevelError, "error", format, args...) }
func (l *slogLogger) Warnf(format string, args ...interface{})  { l.logf(LevelWarn, "warn", format, args...) }
func (l *slogLogger) Infof(format string, args ...interface{})  { l.logf(LevelInfo, "info", format, args...) }
func (l *slogLogger) Debugf(format string, args ...interface{}) { l.logf(LevelDebug, "debug", format, args...) }
func (l *slogLogger) Tracef(format string, args ...interface{}) { l.logf(LevelTrace, "trace", format, args...) }

// noopLogger discards everything; it is the package default so library
// consumers opt into logging rather than inheriting stderr chatter.
type noopLogger struct{}

func (noopLogger) Errorf(string, ...interface{}) {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Tracef(string, ...interface{}) {}

var defaultLogger Logger = noopLogger{}

// SetDefault sets the package-wide default logger.
func SetDefault(l Logger) {
	defaultLogger = l
}

// Default returns the package-wide default logger.
func Default() Logger {
	return defaultLogger
}
