package template

import (
	"log/slog"
	"math/rand/v2"
)

// Rand is the source of randomness for variant and vocabulary picks.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// globalRand draws from the top-level math/rand/v2 source, which is safe
// for concurrent use.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Option configures an Expander.
type Option func(*Expander)

// WithRand sets the random source.
//
// Default: the shared math/rand/v2 source.
//
// Example:
//
//	exp := NewExpander(vocab, WithRand(rand.New(rand.NewPCG(1, 2))))
func WithRand(r Rand) Option {
	return func(e *Expander) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithLogger sets the logger for recoverable expression warnings.
//
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(e *Expander) {
		if logger != nil {
			e.logger = logger
		}
	}
}
