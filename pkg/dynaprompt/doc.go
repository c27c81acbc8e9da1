// Package dynaprompt expands prompt templates into concrete prompts.
//
// Templates mix literal text with two kinds of expression:
//
//	{red|green|blue}        pick one variant
//	{2$$red|green|blue}     pick two distinct variants, joined by ", "
//	{1-3$$red|green|blue}   pick between one and three
//	__colors__              pick one line from colors.txt under the wildcard dir
//	__animals*cats__        every file whose path contains "animals" and "cats"
//
// Expansion repeats until a round performs no substitutions, so variants
// and vocabulary lines may themselves contain expressions. A template that
// keeps substituting past the round ceiling fails with ErrNoConvergence.
//
// # Basic Usage
//
//	gen := dynaprompt.New(wildcard.NewLoader("scripts/wildcards"))
//	prompt, err := gen.Generate(ctx, "a {cat|dog} wearing a __colors__ hat")
//
// # Reproducibility
//
// WithSeed and Fork give a generator its own seeded source. The batch
// package forks one generator per output so results do not depend on
// scheduling.
//
// # Observability
//
// WithLogger, WithMetrics and WithTracing wire generation into slog and
// OpenTelemetry; see the observability package.
package dynaprompt
