package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetup_JSON(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	logger := Setup(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("pixel type mismatch", "series", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "pixel type mismatch", entry["msg"])
	assert.Equal(t, float64(2), entry["series"])
	assert.Same(t, logger, slog.Default())
}

func TestSetup_Text(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	Setup(&buf, "debug", "text").Debug("resolved file set", "files", 3)
	assert.Contains(t, buf.String(), "files=3")
}
