package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest installs an in-memory tracer provider and rebinds the
// package tracer to it.
func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	originalTracer := tracer
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("dynaprompt")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = originalTracer
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartBatchSpan(t *testing.T) {
	exporter := setupTracingTest(t)
	m := NewSpanManager()

	_, span := m.StartBatchSpan(context.Background(), "run-9", 5)
	m.EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "dynaprompt.batch", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	v, ok := spanAttr(spans[0].Attributes, "run.id")
	require.True(t, ok)
	assert.Equal(t, "run-9", v.AsString())
	v, ok = spanAttr(spans[0].Attributes, "batch.count")
	require.True(t, ok)
	assert.Equal(t, int64(5), v.AsInt64())
}

func TestStartGenerateSpan_ChildOfBatch(t *testing.T) {
	exporter := setupTracingTest(t)
	m := NewSpanManager()

	ctx, batchSpan := m.StartBatchSpan(context.Background(), "run-1", 1)
	_, genSpan := m.StartGenerateSpan(ctx)
	m.EndSpanWithError(genSpan, nil)
	m.EndSpanWithError(batchSpan, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "dynaprompt.generate", spans[0].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
}

func TestEndSpanWithError(t *testing.T) {
	exporter := setupTracingTest(t)
	m := NewSpanManager()

	_, span := m.StartGenerateSpan(context.Background())
	m.EndSpanWithError(span, errors.New("no entries for wildcard __x__"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "no entries for wildcard __x__", spans[0].Status.Description)
	require.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "exception", spans[0].Events[0].Name)

	assert.NotPanics(t, func() { m.EndSpanWithError(nil, nil) })
}

func TestAddSpanEvent(t *testing.T) {
	exporter := setupTracingTest(t)
	m := NewSpanManager()

	ctx, span := m.StartGenerateSpan(context.Background())
	m.AddSpanEvent(ctx, "round", attribute.Int("round", 1), attribute.Int("substitutions", 3))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "round", spans[0].Events[0].Name)

	v, ok := spanAttr(spans[0].Events[0].Attributes, "substitutions")
	require.True(t, ok)
	assert.Equal(t, int64(3), v.AsInt64())

	t.Run("no span in context", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.AddSpanEvent(context.Background(), "ignored")
		})
	})
}
