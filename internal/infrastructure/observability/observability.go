// Package observability assembles the observability ports from concrete adapters.
package observability

import (
	"maps"

	"github.com/Zhima-Mochi/shophub/internal/observability"
)

type bundle struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

func (b *bundle) Tracer() observability.Tracer   { return b.tracer }
func (b *bundle) Logger() observability.Logger   { return b.logger }
func (b *bundle) Metrics() observability.Metrics { return b.metrics }

// instruments resolves metric keys registered at startup. Unknown keys get no-op instruments.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m instruments) Counter(key observability.MetricKey) observability.Counter {
	if c := m.counters[key]; c != nil {
		return c
	}
	return observability.NopCounter()
}

func (m instruments) Histogram(key observability.MetricKey) observability.Histogram {
	if h := m.histograms[key]; h != nil {
		return h
	}
	return observability.NopHistogram()
}

// New bundles a tracer, a logger and the registered instruments. Any of them may be nil.
func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) observability.Observability {
	b := &bundle{tracer: tracer, logger: logger, metrics: observability.NopMetrics()}
	if b.tracer == nil {
		b.tracer = observability.NopTracer()
	}
	if b.logger == nil {
		b.logger = observability.NopLogger()
	}
	if len(counters) > 0 || len(histograms) > 0 {
		b.metrics = instruments{counters: maps.Clone(counters), histograms: maps.Clone(histograms)}
	}
	return b
}
