package dynaprompt

import (
	"errors"
	"fmt"
)

// ErrNoConvergence is returned when a template is still changing after the
// round ceiling. Use errors.Is to detect it through *NonConvergenceError.
var ErrNoConvergence = errors.New("prompt did not converge")

// NonConvergenceError provides context when the round ceiling is exceeded.
type NonConvergenceError struct {
	// MaxRounds is the configured round ceiling.
	MaxRounds int

	// Last is the prompt after the final permitted round.
	Last string
}

// Error implements the error interface.
func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("prompt did not converge within %d rounds", e.MaxRounds)
}

// Unwrap returns ErrNoConvergence for errors.Is support.
func (e *NonConvergenceError) Unwrap() error {
	return ErrNoConvergence
}

// ErrorType names the error category for metrics.
func (e *NonConvergenceError) ErrorType() string {
	return "no_convergence"
}

// RoundError wraps a failure inside an expansion round.
type RoundError struct {
	// Round is the 1-based round that failed.
	Round int

	// Err is the underlying error, typically a *template.EmptyVocabularyError.
	Err error
}

// Error implements the error interface.
func (e *RoundError) Error() string {
	return fmt.Sprintf("round %d: %v", e.Round, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RoundError) Unwrap() error {
	return e.Err
}
