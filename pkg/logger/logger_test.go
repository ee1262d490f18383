package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestInit(t *testing.T) {
	require.NoError(t, Init("debug", "development"))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("warn", "production"))
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))
	_ = Sync()
}

func TestSet_RestoresPrevious(t *testing.T) {
	require.NoError(t, Init("info", "production"))
	prev := Get()

	core, logs := observer.New(zapcore.DebugLevel)
	restore := Set(zap.New(core))
	Debug("captured", Int("n", 3))
	restore()

	require.Equal(t, 1, logs.FilterMessage("captured").Len())
	assert.Equal(t, int64(3), logs.All()[0].ContextMap()["n"])
	assert.Same(t, prev, Get())
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RunID(ctx))
	assert.Empty(t, RequestID(ctx))

	ctx = WithRunID(ctx, "run-1")
	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, "run-1", RunID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.NotNil(t, WithContext(ctx))
}
