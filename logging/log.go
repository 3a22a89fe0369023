// Package logging provides component-tagged structured logging for the
// driver, its transports, and the host tools.
//
//	logging.SetLevel(slog.LevelDebug)
//	logging.Debug(logging.ComponentFIFO, "reserve", "want", n, "free", free)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Component identifies a subsystem for log filtering.
type Component string

// Driver component identifiers.
const (
	ComponentSession Component = "session"
	ComponentBoot    Component = "boot"
	ComponentFIFO    Component = "fifo"
	ComponentTouch   Component = "touch"
	ComponentMedia   Component = "media"
	ComponentHAL     Component = "hal"
	ComponentMCU     Component = "mcu"
	ComponentCLI     Component = "cli"
)

// Format specifies the output format for logging.
type Format int

// Log format options.
const (
	FormatText Format = iota
	FormatJSON
)

var (
	logger *slog.Logger
	level  = new(slog.LevelVar)
	mu     sync.RWMutex
)

func init() {
	level.Set(slog.LevelWarn)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// SetLevel sets the minimum level for all driver logging.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Level returns the current minimum level.
func Level() slog.Level {
	return level.Level()
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat maps "text" and "json" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// SetLogger replaces the package logger.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// SetOutput points the package logger at w using the given format.
func SetOutput(w io.Writer, f Format) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch f {
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	SetLogger(slog.New(h))
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func with(c Component, args []any) []any {
	return append([]any{"component", string(c)}, args...)
}

// Debug logs a debug message for the given component.
func Debug(c Component, msg string, args ...any) {
	current().Debug(msg, with(c, args)...)
}

// Info logs an info message for the given component.
func Info(c Component, msg string, args ...any) {
	current().Info(msg, with(c, args)...)
}

// Warn logs a warning for the given component.
func Warn(c Component, msg string, args ...any) {
	current().Warn(msg, with(c, args)...)
}

// Error logs an error for the given component.
func Error(c Component, msg string, args ...any) {
	current().Error(msg, with(c, args)...)
}
