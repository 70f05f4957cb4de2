package workerpresentation

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/shophub/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/shophub/internal/observability/logctx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithEventContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zaplogger.New(zap.New(core))

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	ctx = WithEventContext(ctx, base, map[string]string{
		"event_id":  "evt-1",
		"source":    "webhook",
		"component": "payment_worker",
		"empty":     "",
	})
	logctx.From(ctx).Info("handled")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].Context
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"event_id", "trace_id", "span_id", "component", "source"}, keys)
	m := logs.All()[0].ContextMap()
	assert.Equal(t, "evt-1", m["event_id"])
	assert.Equal(t, traceID.String(), m["trace_id"])
}

func TestWithEventContextDefaults(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logctx.With(context.Background(), zaplogger.New(zap.New(core)))

	ctx = WithEventContext(ctx, nil, nil)
	logctx.From(ctx).Info("tick")

	m := logs.All()[0].ContextMap()
	assert.NotEmpty(t, m["event_id"])
	assert.NotContains(t, m, "trace_id")
}
