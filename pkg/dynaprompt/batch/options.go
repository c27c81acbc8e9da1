package batch

import (
	"log/slog"
	"math/rand/v2"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/observability"
)

// DefaultConcurrency bounds concurrent prompt generation.
const DefaultConcurrency = 4

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets how many outputs are generated at once.
// Default: 4
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLogger sets the logger. Generation warnings are logged with the
// batch run_id and output index attached.
//
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSeedSource sets the function drawing a base seed for RandomSeed
// requests.
//
// Default: uniform in [0, 4294967294).
func WithSeedSource(fn func() int64) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.drawSeed = fn
		}
	}
}

// WithMetrics enables OpenTelemetry batch metrics.
func WithMetrics(enabled bool) Option {
	return func(o *Orchestrator) {
		if enabled {
			o.metrics = observability.NewMetricsRecorder()
		} else {
			o.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables an OpenTelemetry span per batch. Generator spans
// become its children when the generator traces too.
func WithTracing(enabled bool) Option {
	return func(o *Orchestrator) {
		o.tracingEnabled = enabled
		if enabled {
			o.spans = observability.NewSpanManager()
		} else {
			o.spans = observability.NoopSpanManager{}
		}
	}
}

func defaultSeed() int64 {
	return rand.Int64N(maxRandomSeed)
}
