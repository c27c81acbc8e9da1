package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordGeneration(ctx, 3, time.Millisecond, nil)
		m.RecordGeneration(ctx, 20, time.Millisecond, errors.New("x"))
		m.RecordBatch(ctx, 4, true, time.Second)
	})
}

func TestNoopSpanManager(t *testing.T) {
	m := NoopSpanManager{}
	ctx := context.Background()

	batchCtx, span := m.StartBatchSpan(ctx, "run-1", 4)
	assert.Equal(t, ctx, batchCtx)
	assert.False(t, span.IsRecording())

	genCtx, span := m.StartGenerateSpan(ctx)
	assert.Equal(t, ctx, genCtx)
	assert.NotNil(t, span)

	assert.NotPanics(t, func() {
		m.AddSpanEvent(ctx, "round", attribute.Int("round", 1))
		m.EndSpanWithError(span, errors.New("x"))
	})
}
