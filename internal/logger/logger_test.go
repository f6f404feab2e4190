package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "json", Level: slog.LevelInfo})

	logger.Info("catalog loaded", "products", 12)

	out := buf.String()
	assert.Contains(t, out, `"msg":"catalog loaded"`)
	assert.Contains(t, out, `"products":12`)
}

func TestNewTextFormatDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Level: slog.LevelInfo})

	logger.Info("listening", "port", 8080)

	out := buf.String()
	assert.Contains(t, out, "msg=listening")
	assert.Contains(t, out, "port=8080")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Level: slog.LevelWarn})

	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"garbage", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "json"})

	logger.WithError(errors.New("connection refused")).Error("request failed")

	out := buf.String()
	assert.Contains(t, out, "connection refused")
	assert.Contains(t, out, "request failed")
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "json"})

	logger.WithField("shop", "parts.msautoparts.example").Info("client ready")

	assert.Contains(t, buf.String(), "parts.msautoparts.example")
}
