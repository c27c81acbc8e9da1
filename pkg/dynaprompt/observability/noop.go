package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics discards generation and batch measurements. Generators and
// orchestrators use it until WithMetrics(true) is given.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

func (NoopMetrics) RecordGeneration(_ context.Context, _ int, _ time.Duration, _ error) {}

func (NoopMetrics) RecordBatch(_ context.Context, _ int, _ bool, _ time.Duration) {}

// NoopSpanManager leaves ctx untouched, so prompts generated without
// WithTracing(true) never appear as spans.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

func (NoopSpanManager) StartBatchSpan(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan
}

func (NoopSpanManager) StartGenerateSpan(ctx context.Context) (context.Context, trace.Span) {
	return ctx, noopSpan
}

func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
