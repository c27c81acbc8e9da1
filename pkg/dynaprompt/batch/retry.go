package batch

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

// ErrTransient marks a renderer failure worth retrying. Renderers wrap it,
// or return an error with a Temporary() bool method reporting true.
var ErrTransient = errors.New("transient renderer failure")

// RetryPolicy configures how Run retries a failing Renderer.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the wait after each attempt.
	BackoffFactor float64

	// Jitter randomizes each wait by up to this fraction (0.0-1.0).
	Jitter float64
}

// NoRetry renders once. It is the default.
var NoRetry = RetryPolicy{MaxAttempts: 1}

// DefaultRetry suits a remote image service.
var DefaultRetry = RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// WithRetry sets the retry policy for transient renderer failures.
func WithRetry(p RetryPolicy) Option {
	return func(o *Orchestrator) {
		if p.MaxAttempts > 0 {
			o.retry = p
		}
	}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if errors.Is(err, ErrTransient) {
		return true
	}
	var temp interface{ Temporary() bool }
	return errors.As(err, &temp) && temp.Temporary()
}

// render calls r under the retry policy. Returns the result, the number of
// attempts made, and the last error.
func (o *Orchestrator) render(ctx context.Context, r Renderer, plan *Plan) (*Result, int, error) {
	backoff := o.retry.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= o.retry.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt - 1, err
		}

		res, err := r.Render(ctx, plan)
		if err == nil {
			return res, attempt, nil
		}
		lastErr = err
		if !IsTransient(err) || attempt == o.retry.MaxAttempts {
			return nil, attempt, err
		}

		wait := jittered(backoff, o.retry.Jitter)
		o.logger.Warn("render failed, retrying",
			slog.String("run_id", plan.RunID),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, attempt, ctx.Err()
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * o.retry.BackoffFactor)
		if o.retry.MaxBackoff > 0 && backoff > o.retry.MaxBackoff {
			backoff = o.retry.MaxBackoff
		}
	}
	return nil, o.retry.MaxAttempts, lastErr
}

// jittered returns base +/- up to base*jitter.
func jittered(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 || base <= 0 {
		return base
	}
	delta := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + delta)
}
