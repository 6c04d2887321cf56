package logger

import (
	"context"
	"testing"

	"focusflow/pkg/trace"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuild(t *testing.T) {
	cfg := Build(Options{Service: "recurrence-runner", Level: "DEBUG", Format: "console"})
	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	assert.Equal(t, "recurrence-runner", cfg.InitialFields["service"])

	def := Build(Options{Level: "nonsense"})
	assert.Equal(t, "json", def.Encoding)
	assert.Equal(t, zapcore.InfoLevel, def.Level.Level())
	assert.Empty(t, def.InitialFields)
}

func TestWithTrace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithTrace(trace.WithContext(context.Background(), "t-1"), base).Info("with")
	WithTrace(context.Background(), base).Info("without")

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "t-1", entries[0].ContextMap()["trace_id"])
	assert.NotContains(t, entries[1].ContextMap(), "trace_id")
}
