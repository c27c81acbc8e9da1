package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer delegates to the first tracer provider installed globally, so
// batch and generate spans reach a provider set after package init.
var tracer = otel.Tracer("dynaprompt")

// SpanManager opens the two span levels of prompt generation: one span per
// batch and one child span per generated prompt, with expansion rounds
// recorded as events on the prompt span.
type SpanManager interface {
	// StartBatchSpan starts a span for a whole batch.
	StartBatchSpan(ctx context.Context, runID string, count int) (context.Context, trace.Span)

	// StartGenerateSpan starts a span for one prompt generation.
	// Inside a batch it is a child of the batch span.
	StartGenerateSpan(ctx context.Context) (context.Context, trace.Span)

	// EndSpanWithError ends span. A non-nil err (unknown wildcard,
	// round ceiling) is recorded and marks the span as failed.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent records name on the span carried by ctx, if it is recording.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager backed by the global OTel tracer
// provider.
//
// Example:
//
//	otel.SetTracerProvider(tp)
//	gen := dynaprompt.New(loader, dynaprompt.WithTracing(true))
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartBatchSpan tags the span with the run ID and requested output count.
func (m *otelSpanManager) StartBatchSpan(ctx context.Context, runID string, count int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "dynaprompt.batch",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("batch.count", count),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartGenerateSpan starts a prompt span under whatever span ctx carries.
func (m *otelSpanManager) StartGenerateSpan(ctx context.Context) (context.Context, trace.Span) {
	return tracer.Start(ctx, "dynaprompt.generate",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError sets the span status from err and ends it.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent is used for per-round events during expansion.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
