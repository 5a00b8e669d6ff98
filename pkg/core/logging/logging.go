// Package logging provides structured logging setup using Go's standard library log/slog package.
//
// Loggers write logfmt (human-readable key=value pairs) by default, or JSON lines
// when requested, and map string log levels (ERROR, WARNING, INFO, DEBUG) to slog levels.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats accepted by NewLoggerWithWriter.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewLogger creates a new structured logger with the specified log level.
// Supported levels (case-insensitive): ERROR, WARNING, INFO, DEBUG.
// Invalid levels default to INFO. Uses logfmt format for output on stdout.
func NewLogger(level string) *slog.Logger {
	return NewLoggerWithWriter(os.Stdout, level, FormatText)
}

// NewLoggerWithWriter creates a logger writing to w. format is "text" (logfmt)
// or "json"; anything else falls back to text.
func NewLoggerWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ValidLevel reports whether level is one of the recognised level names.
func ValidLevel(level string) bool {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "ERROR", "WARNING", "WARN", "INFO", "DEBUG":
		return true
	default:
		return false
	}
}

// ValidFormat reports whether format is a supported output format.
func ValidFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatText, FormatJSON:
		return true
	default:
		return false
	}
}

// parseLogLevel converts string log level to slog.Level.
// Returns slog.LevelInfo for invalid or empty levels (safe default).
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "ERROR":
		return slog.LevelError
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "INFO":
		return slog.LevelInfo
	case "DEBUG":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
