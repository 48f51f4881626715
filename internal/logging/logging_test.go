package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), "ParseLevel(%q)", name)
	}
}

func TestNewConsoleFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsole(zapcore.WarnLevel, &buf)

	logger.Info("hidden")
	logger.Named("ws").Warn("session error", zap.String("session", "abc"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "ws")
	assert.Contains(t, out, `"session": "abc"`)
}

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delaine.log")

	logger, err := New("debug", path)
	require.NoError(t, err)
	logger.Debug("navigate", zap.String("page", "pricing"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "navigate", entry["message"])
	assert.Equal(t, "pricing", entry["page"])
}

func TestNewConsoleDefault(t *testing.T) {
	logger, err := New("info", "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
