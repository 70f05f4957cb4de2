package application

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	"github.com/Zhima-Mochi/shophub/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	SpanPrefix     = "UC."
	PublishPeer    = "outbox"
	PublishTimeout = 300 * time.Millisecond
)

// Instruments bundles the RED metrics, tracer and base logger shared by use cases.
// Instruments are resolved once at construction; never create metrics inside Execute.
type Instruments struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstruments(tel observability.Observability, service string) Instruments {
	tel = observability.Resolve(tel)
	metrics := tel.Metrics()
	return Instruments{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

func (in Instruments) Logger() observability.Logger { return in.log }

// Run tracks a single use case execution from Start to End.
type Run struct {
	in      Instruments
	useCase string
	span    trace.Span
	logger  observability.Logger
	start   time.Time
	outcome string
	status  string
	fields  []observability.Field
}

// Start opens the use case span and binds a use-case scoped logger into ctx.
func (in Instruments) Start(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))

	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := in.tracer.Start(ctx, SpanPrefix+spanName, attrs...)
	ctx = logctx.With(ctx, logger)

	return ctx, &Run{
		in:      in,
		useCase: useCase,
		span:    span,
		logger:  logger,
		start:   time.Now(),
		outcome: "success",
		status:  "OK",
	}
}

func (r *Run) Span() trace.Span { return r.span }

func (r *Run) Logger() observability.Logger { return r.logger }

// Fail marks the run as an error with the given status code.
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

// Ignore marks the run as a no-op, e.g. an event the handler does not care about.
func (r *Run) Ignore(status string) {
	r.outcome, r.status = "ignored", status
}

// Outcome reports the outcome label End will record for err.
func (r *Run) Outcome(err error) string {
	if err != nil && r.outcome == "success" {
		return "error"
	}
	return r.outcome
}

// Status overrides the status text while keeping the outcome.
func (r *Run) Status(status string) {
	r.status = status
}

func (r *Run) Field(key string, value any) {
	r.fields = append(r.fields, observability.F(key, value))
}

// End records metrics, closes the span and writes the use_case_done line.
func (r *Run) End(err error) {
	if err != nil && r.outcome == "success" {
		r.outcome = "error"
		if r.status == "OK" {
			r.status = "FAILED"
		}
	}
	lat := time.Since(r.start).Seconds()

	observability.FinishSpan(r.span, err, r.status)

	if r.in.reqCounter != nil {
		r.in.reqCounter.Add(1,
			observability.L("use_case", r.useCase),
			observability.L("outcome", r.outcome),
		)
	}
	if r.in.durHistogram != nil {
		r.in.durHistogram.Observe(lat,
			observability.L("use_case", r.useCase),
		)
	}

	fields := []observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}
	if r.span != nil {
		if sc := r.span.SpanContext(); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
	}
	fields = append(fields, r.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}

	r.logger.Info("use_case_done", fields...)
}

// Publish enqueues e with a short timeout and records it as an external call to the outbox.
// A nil publisher is treated as success.
func (in Instruments) Publish(ctx context.Context, publisher domoutbox.Publisher, e domoutbox.Event) error {
	if publisher == nil || e == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	start := time.Now()
	err := publisher.Publish(pubCtx, e)
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case pubCtx.Err() != nil:
		outcome = "canceled"
		err = pubCtx.Err()
	}
	in.ObserveExternal(PublishPeer, e.EventName(), outcome, start)
	return err
}

// ObserveExternal records one call to a dependency outside the process.
func (in Instruments) ObserveExternal(peer, endpoint, outcome string, start time.Time) {
	if in.extCounter != nil {
		in.extCounter.Add(1,
			observability.L("peer", peer),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
	}
	if in.extHistogram != nil {
		in.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", peer),
			observability.L("endpoint", endpoint),
		)
	}
}

// Outcome maps an error to the outcome label used by external request metrics.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
