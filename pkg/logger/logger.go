// Package logger wraps zerolog so every package logs through one structured
// interface. Output format and level come from configuration.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a structured logger backed by zerolog.
type Logger struct {
	zlog zerolog.Logger
}

// New creates a Logger. format is "json" (default) or "console"; level is
// one of debug/info/warn/error/fatal.
func New(level, format string) *Logger {
	var output io.Writer = os.Stdout
	if format == "console" || format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.SetGlobalLevel(parseLevel(level))

	zlog := zerolog.New(output).
		With().
		Timestamp().
		Logger()

	return &Logger{zlog: zlog}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{zlog: zerolog.New(io.Discard)}
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }

// Info logs an info message.
func (l *Logger) Info(msg string) { l.zlog.Info().Msg(msg) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string) { l.zlog.Warn().Msg(msg) }

// Error logs an error message.
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(msg string) { l.zlog.Fatal().Msg(msg) }

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...interface{}) { l.zlog.Debug().Msgf(format, args...) }

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...interface{}) { l.zlog.Info().Msgf(format, args...) }

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...interface{}) { l.zlog.Warn().Msgf(format, args...) }

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) { l.zlog.Error().Msgf(format, args...) }

// WithField returns a new logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a new logger with multiple fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithError returns a new logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}
