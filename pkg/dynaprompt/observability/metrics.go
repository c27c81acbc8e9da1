package observability

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records generation metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordGeneration records one prompt generation with its round count,
	// duration and error status.
	RecordGeneration(ctx context.Context, rounds int, duration time.Duration, err error)

	// RecordBatch records a batch run.
	RecordBatch(ctx context.Context, prompts int, success bool, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	generations       metric.Int64Counter
	generationErrors  metric.Int64Counter
	generationRounds  metric.Int64Histogram
	generationLatency metric.Float64Histogram
	batches           metric.Int64Counter
	batchPrompts      metric.Int64Histogram
	batchLatency      metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("dynaprompt")

	generations, err := meter.Int64Counter("dynaprompt.generate.count",
		metric.WithDescription("Number of prompt generations"),
	)
	if err != nil {
		return nil, err
	}

	generationErrors, err := meter.Int64Counter("dynaprompt.generate.errors",
		metric.WithDescription("Number of failed prompt generations"),
	)
	if err != nil {
		return nil, err
	}

	generationRounds, err := meter.Int64Histogram("dynaprompt.generate.rounds",
		metric.WithDescription("Expansion rounds per prompt generation"),
	)
	if err != nil {
		return nil, err
	}

	generationLatency, err := meter.Float64Histogram("dynaprompt.generate.latency_ms",
		metric.WithDescription("Prompt generation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	batches, err := meter.Int64Counter("dynaprompt.batch.runs",
		metric.WithDescription("Number of batch runs"),
	)
	if err != nil {
		return nil, err
	}

	batchPrompts, err := meter.Int64Histogram("dynaprompt.batch.prompts",
		metric.WithDescription("Prompts generated per batch"),
	)
	if err != nil {
		return nil, err
	}

	batchLatency, err := meter.Float64Histogram("dynaprompt.batch.latency_ms",
		metric.WithDescription("Batch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		generations:       generations,
		generationErrors:  generationErrors,
		generationRounds:  generationRounds,
		generationLatency: generationLatency,
		batches:           batches,
		batchPrompts:      batchPrompts,
		batchLatency:      batchLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordGeneration records a prompt generation.
func (m *otelMetrics) RecordGeneration(ctx context.Context, rounds int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))

	m.generations.Add(ctx, 1, attrs)
	m.generationRounds.Record(ctx, int64(rounds), attrs)
	m.generationLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)

	if err != nil {
		m.generationErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error_type", ErrorType(err)),
		))
	}
}

// RecordBatch records a batch run.
func (m *otelMetrics) RecordBatch(ctx context.Context, prompts int, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.batches.Add(ctx, 1, attrs)
	m.batchPrompts.Record(ctx, int64(prompts), attrs)
	m.batchLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// ErrorType classifies err for metric attributes. Errors name their own
// type by implementing ErrorType() string; anything else is "other".
func ErrorType(err error) string {
	var typed interface{ ErrorType() string }
	if errors.As(err, &typed) {
		return typed.ErrorType()
	}
	return "other"
}
