package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger implements ports.Logger on top of zerolog.
type Logger struct {
	zl zerolog.Logger
}

// Config controls level and output format.
type Config struct {
	Level  string    // debug, info, warn, error
	Format string    // json or console
	Output io.Writer // defaults to os.Stderr
}

// ParseLevel converts a level name to a zerolog level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zerolog.WarnLevel
	case "":
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// New creates a Logger.
func New(cfg Config) (*Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json":
	case "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	zl := zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
	return &Logger{zl: zl}, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) write(ev *zerolog.Event, msg string, fields []map[string]interface{}) {
	for _, f := range fields {
		if f != nil {
			ev = ev.Fields(f)
		}
	}
	ev.Msg(msg)
}

// Debug logs a message at Debug level.
func (l *Logger) Debug(_ context.Context, msg string, fields ...map[string]interface{}) {
	l.write(l.zl.Debug(), msg, fields)
}

// Info logs a message at Info level.
func (l *Logger) Info(_ context.Context, msg string, fields ...map[string]interface{}) {
	l.write(l.zl.Info(), msg, fields)
}

// Warn logs a message at Warning level.
func (l *Logger) Warn(_ context.Context, msg string, fields ...map[string]interface{}) {
	l.write(l.zl.Warn(), msg, fields)
}

// Error logs an error message at Error level.
func (l *Logger) Error(_ context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.write(l.zl.Error().Err(err), msg, fields)
}
