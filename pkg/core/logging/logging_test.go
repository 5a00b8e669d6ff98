package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"ERROR", "warning", "Info", "debug", "", "INVALID"} {
		logger := NewLogger(level)
		assert.NotNil(t, logger, "Failed for level: %s", level)
	}
}

func TestParseLogLevel(t *testing.T) {
	testCases := []struct {
		input string
		want  slog.Level
	}{
		{"ERROR", slog.LevelError},
		{"error", slog.LevelError},
		{"WARNING", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"INFO", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"  DEBUG  ", slog.LevelDebug},
		{"INVALID", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, parseLogLevel(tc.input))
		})
	}
}

func TestNewLoggerWithWriter_Logfmt(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "INFO", FormatText)

	logger.Info("Rendering users/show", "render_id", "abc", "depth", 2)

	output := buf.String()
	assert.Contains(t, output, "time=")
	assert.Contains(t, output, "level=INFO")
	assert.Contains(t, output, "msg=\"Rendering users/show\"")
	assert.Contains(t, output, "render_id=abc")
	assert.Contains(t, output, "depth=2")
	assert.NotContains(t, output, "{")
}

func TestNewLoggerWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "DEBUG", "JSON")

	logger.Debug("resolved template", "name", "users/show")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "resolved template", entry["msg"])
	assert.Equal(t, "users/show", entry["name"])
}

func TestNewLoggerWithWriter_UnknownFormatFallsBackToText(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter(&buf, "INFO", "xml").Info("hello")
	assert.True(t, strings.HasPrefix(buf.String(), "time="))
}

// TestLoggerFiltering verifies that log level filtering works.
func TestLoggerFiltering(t *testing.T) {
	testCases := []struct {
		loggerLevel string
		logLevel    slog.Level
		shouldLog   bool
	}{
		{"ERROR", slog.LevelError, true},
		{"ERROR", slog.LevelWarn, false},
		{"ERROR", slog.LevelInfo, false},

		{"WARNING", slog.LevelWarn, true},
		{"WARNING", slog.LevelInfo, false},

		{"INFO", slog.LevelInfo, true},
		{"INFO", slog.LevelDebug, false},

		{"DEBUG", slog.LevelDebug, true},
	}

	for _, tc := range testCases {
		t.Run(tc.loggerLevel+"_logs_"+tc.logLevel.String(), func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(&buf, tc.loggerLevel, FormatText)

			logger.Log(context.Background(), tc.logLevel, "test message")

			if tc.shouldLog {
				assert.NotEmpty(t, buf.String(), "Expected log output for %s logger at %s level", tc.loggerLevel, tc.logLevel)
			} else {
				assert.Empty(t, buf.String(), "Expected no log output for %s logger at %s level", tc.loggerLevel, tc.logLevel)
			}
		})
	}
}

func TestValidLevelAndFormat(t *testing.T) {
	assert.True(t, ValidLevel("warn"))
	assert.True(t, ValidLevel("DEBUG"))
	assert.False(t, ValidLevel("trace"))

	assert.True(t, ValidFormat("text"))
	assert.True(t, ValidFormat("JSON"))
	assert.False(t, ValidFormat("logfmt"))
}
