package utils

import (
	"io"
	"log/slog"
	"os"

	"github.com/jmylchreest/radiotoggle/internal/config"
)

// LogLevel defines log level types
type LogLevel string

const (
	LogLevelDebug LogLevel = LogLevel(config.LogLevelDebug)
	LogLevelInfo  LogLevel = LogLevel(config.LogLevelInfo)
	LogLevelWarn  LogLevel = LogLevel(config.LogLevelWarn)
	LogLevelError LogLevel = LogLevel(config.LogLevelError)
)

// LogFormat defines log format types
type LogFormat string

const (
	LogFormatText LogFormat = LogFormat(config.LogFormatText)
	LogFormatJSON LogFormat = LogFormat(config.LogFormatJSON)
)

// level is shared by every logger built here so SetLevel applies at runtime.
var level = new(slog.LevelVar)

// GetLogLevel converts a string log level to slog.Level
func GetLogLevel(lvl string) slog.Level {
	switch lvl {
	case string(LogLevelDebug):
		return slog.LevelDebug
	case string(LogLevelWarn), "warning":
		return slog.LevelWarn
	case string(LogLevelError):
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidateLogLevel ensures the provided level is valid, returning a default if not
func ValidateLogLevel(lvl string) string {
	switch lvl {
	case string(LogLevelDebug), string(LogLevelInfo), string(LogLevelWarn), string(LogLevelError):
		return lvl
	default:
		return string(LogLevelInfo)
	}
}

// ValidateLogFormat ensures the provided format is valid, returning a default if not
func ValidateLogFormat(format string) string {
	switch format {
	case string(LogFormatText), string(LogFormatJSON):
		return format
	default:
		return string(LogFormatText)
	}
}

// SetupLogger creates a stderr logger whose level can later be changed with SetLevel.
func SetupLogger(lvl string, format string) *slog.Logger {
	return NewLogger(os.Stderr, lvl, format)
}

// NewLogger builds a logger writing to w at the shared runtime level.
func NewLogger(w io.Writer, lvl string, format string) *slog.Logger {
	level.Set(GetLogLevel(ValidateLogLevel(lvl)))
	opts := &slog.HandlerOptions{Level: level, AddSource: true}

	var handler slog.Handler
	if ValidateLogFormat(format) == string(LogFormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// SetLevel changes the level of every logger created by SetupLogger.
func SetLevel(lvl string) string {
	valid := ValidateLogLevel(lvl)
	level.Set(GetLogLevel(valid))
	return valid
}

// CurrentLevel returns the active level as a config string
func CurrentLevel() string {
	switch level.Level() {
	case slog.LevelDebug:
		return string(LogLevelDebug)
	case slog.LevelWarn:
		return string(LogLevelWarn)
	case slog.LevelError:
		return string(LogLevelError)
	default:
		return string(LogLevelInfo)
	}
}

// SetupErrorLogger creates a simple text logger for reporting errors during startup.
func SetupErrorLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// SetAsDefaultLogger sets a logger as the default logger
func SetAsDefaultLogger(logger *slog.Logger) {
	slog.SetDefault(logger)
}
