package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf})

	logger.WithComponent("reconcile").
		With("pass_id", "abc").
		Warn(context.Background(), errors.New("boom"), "registration failed", "key", "Ctrl+A")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "registration failed", entry["msg"])
	assert.Equal(t, "reconcile", entry["component"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "abc", entry["pass_id"])
	assert.Equal(t, "Ctrl+A", entry["key"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Format: "text", Output: &buf})
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, nil, "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "text", Output: &buf})
	_ = parent.With("child", true)

	parent.Info(context.Background(), "from parent")
	assert.NotContains(t, buf.String(), "child=")
}

func TestPerfLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "text", Output: &buf})

	op := StartOperation(logger, "reconcile", "pass_id", "p1")
	d := op.End(context.Background(), "registered", 3)

	out := buf.String()
	assert.GreaterOrEqual(t, int64(d), int64(0))
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, "operation=reconcile")
	assert.Contains(t, out, "pass_id=p1")
	assert.Contains(t, out, "registered=3")
	assert.True(t, strings.Contains(out, "duration_ms="))
}

func TestPerfLoggerEndWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "text", Output: &buf})

	op := StartOperation(logger, "reconcile", "pass_id", "p2")
	d := op.EndWithError(context.Background(), errors.New("folder vanished"), "folder", "/templates")

	out := buf.String()
	assert.GreaterOrEqual(t, int64(d), int64(0))
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "Operation failed")
	assert.Contains(t, out, `error="folder vanished"`)
	assert.Contains(t, out, "pass_id=p2")
	assert.Contains(t, out, "folder=/templates")
	assert.Contains(t, out, "duration_ms=")
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l = l.With("a", 1).WithComponent("x")
	l.Error(context.Background(), errors.New("ignored"), "nothing happens")
}
