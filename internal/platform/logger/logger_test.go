package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/taskboard/internal/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		level slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warn ", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}
	for _, tc := range tests {
		level, ok := ParseLevel(tc.in)
		assert.Equal(t, tc.level, level, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &LogBuffer{}
	l, err := SetupWithWriter(config.ServerConfig{LogLevel: "warn"}, buf)
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Info("hidden")
	l.Warn("shown", "task_id", 7)
	slog.Error("via default")

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "shown", entries[0]["msg"])
	assert.Equal(t, float64(7), entries[0]["task_id"])
	assert.Equal(t, "via default", entries[1]["msg"])
}

func TestSetupInvalidLevelWarns(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &LogBuffer{}
	_, err := SetupWithWriter(config.ServerConfig{LogLevel: "chatty"}, buf)
	require.NoError(t, err)

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "chatty", entries[0]["configured_level"])
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Equal(t, slog.Default(), FromContextOrDefault(context.Background(), nil))
	fallback, _ := NewCapture()
	assert.Equal(t, fallback, FromContextOrDefault(context.Background(), fallback))

	l, buf := NewCapture()
	ctx := WithContext(context.Background(), l.With("trace_id", "abc"))

	got, ok := FromContext(ctx)
	require.True(t, ok)
	got.Info("hello")

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0]["trace_id"])
}
