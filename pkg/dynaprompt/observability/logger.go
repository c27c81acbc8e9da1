// Package observability provides structured logging, metrics, and tracing
// for prompt generation.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"fmt"
	"log/slog"
	"time"
)

// EnrichLogger adds batch context to a logger.
// Returns a new logger with run_id and output fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", 4)
//	enriched.Warn("combination count out of range") // includes run_id, output
func EnrichLogger(logger *slog.Logger, runID string, output int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.Int("output", output),
	)
}

// LogGenerateStart logs the start of a prompt generation.
func LogGenerateStart(logger *slog.Logger, templateLen int) {
	if logger == nil {
		return
	}
	logger.Debug("prompt generation starting",
		slog.Int("template_len", templateLen),
	)
}

// LogRound logs the substitutions made by one expansion round.
func LogRound(logger *slog.Logger, round, combinations, wildcards int) {
	if logger == nil {
		return
	}
	logger.Debug("expansion round",
		slog.Int("round", round),
		slog.Int("combinations", combinations),
		slog.Int("wildcards", wildcards),
	)
}

// LogGenerateComplete logs successful prompt generation.
func LogGenerateComplete(logger *slog.Logger, rounds int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("prompt generation completed",
		slog.Int("rounds", rounds),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogGenerateError logs prompt generation failure.
func LogGenerateError(logger *slog.Logger, rounds int, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("prompt generation failed",
		slog.Int("rounds", rounds),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogBatchPlanned logs the size of a planned batch.
func LogBatchPlanned(logger *slog.Logger, runID string, prompts, batches int) {
	if logger == nil {
		return
	}
	logger.Info(fmt.Sprintf("prompt matrix will create %d images using a total of %d batches", prompts, batches),
		slog.String("run_id", runID),
		slog.Int("prompts", prompts),
		slog.Int("batches", batches),
	)
}

// LogBatchComplete logs successful hand-off of a batch to the renderer.
func LogBatchComplete(logger *slog.Logger, runID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("batch completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogBatchError logs batch failure.
func LogBatchError(logger *slog.Logger, runID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("batch failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
