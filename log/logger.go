package log

import (
	"fmt"
	"strings"
)

// Level is a logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelOff silences the logger entirely.
	LevelOff
)

// ParseLevel maps a configuration string to a Level. The empty string
// means LevelInfo.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "off", "none", "disable":
		return LevelOff, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// String returns the level's configuration name.
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
	case LevelOff:
		return "off"
	default:
		return fmt.Sprintf("level(%d)", l)
	}
}

// Logger is the printf-style surface the bot's components log through.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Noop discards every message. Useful to silence a component under test.
type Noop struct{}

var _ Logger = Noop{}

func (Noop) Debug(string, ...any) {}
func (Noop) Info(string, ...any)  {}
func (Noop) Warn(string, ...any)  {}
func (Noop) Error(string, ...any) {}

var defaultLogger Logger = NewGologLogger(LevelInfo)

// SetDefaultLogger replaces the logger components pick up when they are
// built without an explicit one.
func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the package-level logger.
func GetDefaultLogger() Logger {
	return defaultLogger
}
