package oteltrace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordingProvider struct {
	embedded.TracerProvider
	name    string
	version string
	tracer  *recordingTracer
}

func (p *recordingProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	p.name = name
	p.version = trace.NewTracerConfig(opts...).InstrumentationVersion()
	p.tracer = &recordingTracer{}
	return p.tracer
}

type recordingTracer struct {
	embedded.Tracer
	spans []string
	cfg   trace.SpanConfig
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	t.spans = append(t.spans, name)
	t.cfg = trace.NewSpanStartConfig(opts...)
	return noop.NewTracerProvider().Tracer("").Start(ctx, name)
}

func TestTracerAddsFixedAttributes(t *testing.T) {
	p := &recordingProvider{}
	tr := New("", WithProvider(p), WithVersion("1.2.3"), WithAttributes(attribute.String("deployment.environment", "test")))

	_, span := tr.Start(context.Background(), "UC.PlaceOrder", attribute.String("use_case", "order.place"))
	span.End()

	assert.Equal(t, "shophub", p.name)
	assert.Equal(t, "1.2.3", p.version)
	require.Equal(t, []string{"UC.PlaceOrder"}, p.tracer.spans)
	assert.Equal(t, trace.SpanKindInternal, p.tracer.cfg.SpanKind())
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("deployment.environment", "test"),
		attribute.String("use_case", "order.place"),
	}, p.tracer.cfg.Attributes())
}
