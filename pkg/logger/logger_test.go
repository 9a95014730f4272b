package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "motodealer/internal/core/context"
)

func TestFromContext_AttachesRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core)

	ctx := WithLogger(context.Background(), log)
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext("trace-1", "req-1"))
	ctx = appctx.WithOperator(ctx, &appctx.OperatorContext{OperatorID: "seller-7", Branch: "centro"})

	Warn(ctx, "exchange rate missing", "sale_currency", "USD")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "exchange rate missing", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "trace-1", fields["trace_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "seller-7", fields["operator_id"])
	assert.Equal(t, "USD", fields["sale_currency"])
}

func TestWithComponent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewFromCore(core).WithComponent("quote").Infow("built")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "quote", logs.All()[0].ContextMap()["component"])
}

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	log, err := New(Config{Level: "loud", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
}
