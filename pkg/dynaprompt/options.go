package dynaprompt

import (
	"log/slog"
	"math/rand/v2"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/observability"
	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/template"
)

// DefaultMaxRounds is the default round ceiling.
const DefaultMaxRounds = 20

// forkStream is the PCG stream used by seeded generators.
const forkStream = 0x9e3779b97f4a7c15

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source for variant and vocabulary picks.
//
// Default: the shared math/rand/v2 source, which is safe for concurrent use.
// A private source is not; Fork a generator per goroutine instead.
func WithRand(r template.Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rng = r
		}
	}
}

// WithSeed uses a PCG source seeded with seed, making output reproducible
// for a fixed template and vocabulary.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = newSeededRand(seed)
	}
}

// WithMaxRounds sets the round ceiling.
// Default: 20
//
// A template still substituting after n rounds fails with
// *NonConvergenceError.
func WithMaxRounds(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxRounds = n
		}
	}
}

// WithReplaceUnderscores replaces every '_' in the converged prompt with a
// space.
func WithReplaceUnderscores(enabled bool) Option {
	return func(g *Generator) {
		g.replaceUnderscores = enabled
	}
}

// WithLogger sets the logger for expression warnings and generation
// progress.
//
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics for generations.
//
// Metrics use the global meter provider.
func WithMetrics(enabled bool) Option {
	return func(g *Generator) {
		if enabled {
			g.metrics = observability.NewMetricsRecorder()
		} else {
			g.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry spans for generations.
//
// Spans use the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(g *Generator) {
		g.tracingEnabled = enabled
		if enabled {
			g.spans = observability.NewSpanManager()
		} else {
			g.spans = observability.NoopSpanManager{}
		}
	}
}

func newSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, forkStream))
}
