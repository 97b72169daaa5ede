package slogger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var (
	DefaultLogLevel = LevelInfo
)

// LogLevel represents the minimum log level
type LogLevel slog.Level

// Available log levels
const (
	LevelDebug LogLevel = LogLevel(slog.LevelDebug)
	LevelInfo  LogLevel = LogLevel(slog.LevelInfo)
	LevelWarn  LogLevel = LogLevel(slog.LevelWarn)
	LevelError LogLevel = LogLevel(slog.LevelError)
)

// Slogger implements the Logger interface using slog
type Slogger struct {
	logger *slog.Logger
}

// New returns a Slogger writing to stderr, coloured when stderr is a terminal.
func New(level LogLevel) *Slogger {
	return NewWriter(os.Stderr, level, isatty.IsTerminal(os.Stderr.Fd()))
}

// NewWriter returns a Slogger writing to w.
func NewWriter(w io.Writer, level LogLevel, color bool) *Slogger {
	tintHandler := tint.NewHandler(w, &tint.Options{
		NoColor:    !color,
		TimeFormat: time.Kitchen,
		Level:      slog.Level(level),
	})
	return &Slogger{
		logger: slog.New(tintHandler),
	}
}

// OpenFile opens the append-only side-channel log at path. Lines carry
// RFC3339 timestamps and no colour. Any failure to create the directory or
// open the file yields a DevNullLogger and a no-op closer.
func OpenFile(path string, level LogLevel) (Logger, io.Closer) {
	if path == "" {
		return NewDevNullLogger(), nopCloser{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return NewDevNullLogger(), nopCloser{}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return NewDevNullLogger(), nopCloser{}
	}
	handler := tint.NewHandler(f, &tint.Options{
		NoColor:    true,
		TimeFormat: time.RFC3339,
		Level:      slog.Level(level),
	})
	return &Slogger{logger: slog.New(handler)}, f
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func (l *Slogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, withCaller(keysAndValues...)...)
}

func (l *Slogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, withCaller(keysAndValues...)...)
}

func (l *Slogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, withCaller(keysAndValues...)...)
}

func (l *Slogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, withCaller(keysAndValues...)...)
}

func (l *Slogger) With(keysAndValues ...any) Logger {
	return &Slogger{logger: l.logger.With(keysAndValues...)}
}

func withCaller(keysAndValues ...any) []any {
	const callerSkip = 2 // Skip withCaller and the logging function
	if _, file, line, ok := runtime.Caller(callerSkip); ok {
		caller := formatCaller(file, line)
		return append([]any{"caller", caller}, keysAndValues...)
	}
	return keysAndValues
}

func formatCaller(file string, line int) string {
	// Last two path components
	parts := strings.Split(file, "/")
	switch len(parts) {
	case 0:
		return "unknown"
	case 1:
		return fmt.Sprintf("%s:%d", parts[0], line)
	default:
		return fmt.Sprintf("%s/%s:%d",
			parts[len(parts)-2],
			parts[len(parts)-1],
			line)
	}
}
