package batch

import (
	"context"
	"errors"
	"fmt"
)

// RandomSeed requests a freshly drawn base seed.
const RandomSeed int64 = -1

// maxRandomSeed bounds drawn seeds to the range image services accept.
const maxRandomSeed = 4294967294

// ErrInvalidRequest is returned for requests that cannot be planned.
var ErrInvalidRequest = errors.New("invalid batch request")

// Request describes one batch.
type Request struct {
	// Template is expanded once per output.
	Template string

	// Count is the number of outputs. Must be at least 1.
	Count int

	// BatchSize is the number of images the renderer produces per batch.
	// Must be at least 1.
	BatchSize int

	// Seed is the base seed. RandomSeed draws one.
	Seed int64

	// SubseedStrength, when non-zero, gives every output the base seed
	// instead of base+index.
	SubseedStrength float64
}

// Validate reports whether r can be planned.
func (r Request) Validate() error {
	switch {
	case r.Count < 1:
		return fmt.Errorf("%w: count must be at least 1, got %d", ErrInvalidRequest, r.Count)
	case r.BatchSize < 1:
		return fmt.Errorf("%w: batch size must be at least 1, got %d", ErrInvalidRequest, r.BatchSize)
	case r.Seed < RandomSeed:
		return fmt.Errorf("%w: seed must be -1 or non-negative, got %d", ErrInvalidRequest, r.Seed)
	}
	return nil
}

// Plan is what the renderer receives.
type Plan struct {
	// RunID identifies the batch in logs and spans.
	RunID string `json:"run_id" yaml:"run_id"`

	// DisplayPrompt is the unexpanded template, shown in place of the
	// individual prompts.
	DisplayPrompt string `json:"display_prompt" yaml:"display_prompt"`

	// Prompts holds one generated prompt per output.
	Prompts []string `json:"prompts" yaml:"prompts"`

	// Seeds holds one seed per output.
	Seeds []int64 `json:"seeds" yaml:"seeds"`

	// BatchSize echoes the request.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Batches is the number of batches the renderer should run.
	Batches int `json:"batches" yaml:"batches"`

	// DoNotSaveGrid tells the renderer to skip grid aggregation. Always true.
	DoNotSaveGrid bool `json:"do_not_save_grid" yaml:"do_not_save_grid"`
}

// Result is what the renderer returns.
type Result struct {
	// Plan is the plan that was rendered.
	Plan *Plan `json:"plan" yaml:"plan"`

	// Images lists renderer-specific references to produced images.
	Images []string `json:"images,omitempty" yaml:"images,omitempty"`

	// Info is free-form renderer output.
	Info string `json:"info,omitempty" yaml:"info,omitempty"`
}

// Renderer is the external image service.
type Renderer interface {
	Render(ctx context.Context, plan *Plan) (*Result, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, plan *Plan) (*Result, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, plan *Plan) (*Result, error) {
	return f(ctx, plan)
}

// OutputError reports the output whose generation aborted the batch.
type OutputError struct {
	// Index is the 0-based output index.
	Index int

	// Err is the generation error.
	Err error
}

// Error implements the error interface.
func (e *OutputError) Error() string {
	return fmt.Sprintf("output %d: %v", e.Index, e.Err)
}

// Unwrap returns the generation error for errors.Is/As support.
func (e *OutputError) Unwrap() error {
	return e.Err
}

// BatchCount returns the number of batches needed for prompts outputs at
// batchSize images per batch.
func BatchCount(prompts, batchSize int) int {
	if batchSize < 1 {
		return 0
	}
	return (prompts + batchSize - 1) / batchSize
}

// Seeds returns one seed per output: base+i, or base for every output when
// subseedStrength is non-zero.
func Seeds(base int64, count int, subseedStrength float64) []int64 {
	seeds := make([]int64, count)
	for i := range seeds {
		seeds[i] = base
		if subseedStrength == 0 {
			seeds[i] += int64(i)
		}
	}
	return seeds
}
