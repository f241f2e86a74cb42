package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"libdb.so/lirc/internal/logging"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	assert.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("sent lircd command", "command", "VERSION")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 1, len(lines))

	var entry map[string]any
	assert.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "sent lircd command", entry["msg"])
	assert.Equal(t, "VERSION", entry["command"])
	_, ok := entry["ts"]
	assert.True(t, ok, "expected ts field")
}

func TestNewConsoleDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Output: &buf})
	assert.NoError(t, err)

	logger.Debug("abandoning lircd connection")
	assert.Contains(t, buf.String(), "logger_test.go:")
	assert.Contains(t, buf.String(), "abandoning lircd connection")
}

func TestNewConsoleInfoOmitsSource(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	assert.NoError(t, err)

	logger.Info("lircd has been reloaded")
	assert.NotContains(t, buf.String(), ".go:")
}

func TestNewRejectsUnknownValues(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	assert.Error(t, err)

	_, err = logging.New(logging.Options{Level: "loud"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := logging.ParseLevel(in)
		assert.NoError(t, err, "%q", in)
		assert.Equal(t, want, got, "%q", in)
	}
}
