package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"WARNING", LevelWarn},
		{"ERROR", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "input %q", tt.in)
	}
}

func TestStdLoggerThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := newStdLogger(&buf, LevelWarn)
	ctx := context.Background()

	l.Debug(ctx, "below threshold")
	l.Info(ctx, "also below")
	assert.Empty(t, buf.String())

	l.Warn(ctx, "kept")
	assert.Contains(t, buf.String(), "[WARN] kept")
}

func TestStdLoggerRendersErrorAndSortedFields(t *testing.T) {
	var buf bytes.Buffer
	l := newStdLogger(&buf, LevelDebug)

	l.Error(context.Background(), errors.New("boom"), "stream ended", map[string]interface{}{
		"symbol": "ETHUSDT",
		"delay":  "5s",
	})

	line := buf.String()
	assert.Contains(t, line, "[ERROR] stream ended")
	assert.Contains(t, line, "error: boom")
	assert.Contains(t, line, "delay=5s symbol=ETHUSDT", "fields render in sorted key order")
}
