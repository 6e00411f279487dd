package log

import (
	"io"

	"github.com/kataras/golog"
)

// GologLogger adapts kataras/golog to the Logger interface. Level
// filtering is delegated to golog, so messages below the level are never
// formatted.
type GologLogger struct {
	logger *golog.Logger
}

var _ Logger = (*GologLogger)(nil)

// NewGologLogger creates a golog-backed logger at the given level.
func NewGologLogger(level Level) *GologLogger {
	logger := golog.New()
	logger.SetPrefix("[slackbot] ")
	logger.SetLevel(gologName(level))
	return &GologLogger{logger: logger}
}

// Wrap adapts an existing golog.Logger, keeping whatever prefix, level
// and output the caller configured on it.
func Wrap(logger *golog.Logger) *GologLogger {
	return &GologLogger{logger: logger}
}

// SetLevel changes the level at runtime.
func (l *GologLogger) SetLevel(level Level) {
	l.logger.SetLevel(gologName(level))
}

// SetOutput redirects log output.
func (l *GologLogger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

func (l *GologLogger) Debug(format string, args ...any) {
	l.logger.Debugf(format, args...)
}

func (l *GologLogger) Info(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *GologLogger) Warn(format string, args ...any) {
	l.logger.Warnf(format, args...)
}

func (l *GologLogger) Error(format string, args ...any) {
	l.logger.Errorf(format, args...)
}

// gologName maps a Level to golog's level keyword.
func gologName(level Level) string {
	switch level {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelOff:
		return "disable"
	default:
		return "info"
	}
}
