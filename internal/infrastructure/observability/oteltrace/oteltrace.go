package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/shophub/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type config struct {
	provider trace.TracerProvider
	version  string
	attrs    []attribute.KeyValue
}

type Option func(*config)

// WithProvider uses tp instead of the global provider.
func WithProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.provider = tp }
}

// WithVersion sets the instrumentation version reported with every span.
func WithVersion(v string) Option {
	return func(c *config) { c.version = v }
}

// WithAttributes adds attributes to every span, e.g. the deployment environment.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *config) { c.attrs = append(c.attrs, attrs...) }
}

type tracer struct {
	t     trace.Tracer
	attrs []attribute.KeyValue
}

// New returns a tracer named name. Without WithProvider it uses the global provider, whose
// spans are no-ops until one is installed with otel.SetTracerProvider.
func New(name string, opts ...Option) observability.Tracer {
	if name == "" {
		name = "shophub"
	}
	c := config{}
	for _, opt := range opts {
		opt(&c)
	}
	if c.provider == nil {
		c.provider = otel.GetTracerProvider()
	}
	var topts []trace.TracerOption
	if c.version != "" {
		topts = append(topts, trace.WithInstrumentationVersion(c.version))
	}
	return &tracer{t: c.provider.Tracer(name, topts...), attrs: c.attrs}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(t.attrs)+len(attrs))
	all = append(append(all, t.attrs...), attrs...)
	return t.t.Start(ctx, name, trace.WithAttributes(all...), trace.WithSpanKind(trace.SpanKindInternal))
}
