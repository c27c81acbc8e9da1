package dynaprompt

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/config"
	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/observability"
	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/template"
	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/wildcard"
)

// Generator expands templates to a fixed point.
//
// A Generator using the default random source is safe for concurrent use.
// One configured with WithRand or WithSeed is not; Fork one per goroutine.
type Generator struct {
	vocab              template.Vocabulary
	rng                template.Rand
	maxRounds          int
	replaceUnderscores bool
	logger             *slog.Logger

	metrics        observability.MetricsRecorder
	tracingEnabled bool
	spans          observability.SpanManager

	exp *template.Expander
}

// New creates a Generator that resolves wildcards through vocab.
//
// Example:
//
//	gen := dynaprompt.New(wildcard.NewLoader("scripts/wildcards"),
//	    dynaprompt.WithSeed(42),
//	    dynaprompt.WithReplaceUnderscores(true),
//	)
//	prompt, err := gen.Generate(ctx, "a {2$$x|y|z} __animals*cats__")
func New(vocab template.Vocabulary, opts ...Option) *Generator {
	g := &Generator{
		vocab:     vocab,
		maxRounds: DefaultMaxRounds,
		logger:    slog.Default(),
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.exp = g.newExpander()
	return g
}

// NewFromSettings creates a Generator backed by a wildcard.Loader over
// s.WildcardDir. Explicit opts override values taken from s.
func NewFromSettings(s config.Settings, opts ...Option) *Generator {
	base := []Option{
		WithMaxRounds(s.MaxRounds),
		WithReplaceUnderscores(s.ReplaceUnderscores),
	}
	if s.Seed >= 0 {
		base = append(base, WithSeed(uint64(s.Seed)))
	}
	g := New(nil, append(base, opts...)...)
	g.vocab = wildcard.NewLoader(s.WildcardDir, wildcard.WithLogger(g.logger))
	g.exp = g.newExpander()
	return g
}

func (g *Generator) newExpander() *template.Expander {
	opts := []template.Option{template.WithLogger(g.logger)}
	if g.rng != nil {
		opts = append(opts, template.WithRand(g.rng))
	}
	return template.NewExpander(g.vocab, opts...)
}

// Fork returns a copy of g drawing from its own PCG source seeded with
// seed. opts are applied to the copy.
func (g *Generator) Fork(seed uint64, opts ...Option) *Generator {
	cp := *g
	cp.rng = newSeededRand(seed)
	for _, opt := range opts {
		opt(&cp)
	}
	cp.exp = cp.newExpander()
	return &cp
}

// MaxRounds returns the round ceiling.
func (g *Generator) MaxRounds() int {
	return g.maxRounds
}

// Generate expands tmpl until a round performs no substitutions.
//
// Each round runs one combination pass and then one wildcard pass over the
// whole string, so text produced by either pass is expanded again in the
// next round. A template without expressions is returned unchanged after a
// single round.
//
// Errors:
//   - *NonConvergenceError (ErrNoConvergence) once the round ceiling is exceeded
//   - *RoundError wrapping *template.EmptyVocabularyError for unknown wildcards
func (g *Generator) Generate(ctx context.Context, tmpl string) (prompt string, err error) {
	start := time.Now()
	done := observability.TimedOperation()
	observability.LogGenerateStart(g.logger, len(tmpl))

	var span trace.Span
	if g.tracingEnabled {
		ctx, span = g.spans.StartGenerateSpan(ctx)
		defer func() {
			g.spans.EndSpanWithError(span, err)
		}()
	}

	prompt, rounds, err := g.expand(ctx, tmpl)

	g.metrics.RecordGeneration(ctx, rounds, time.Since(start), err)
	if err != nil {
		observability.LogGenerateError(g.logger, rounds, err, done())
		return prompt, err
	}
	observability.LogGenerateComplete(g.logger, rounds, done())
	return prompt, nil
}

// expand runs the fixed-point loop. Returns the prompt, the number of
// rounds run, and any error.
func (g *Generator) expand(ctx context.Context, s string) (string, int, error) {
	rounds := 0
	for {
		rounds++
		if rounds > g.maxRounds {
			return s, g.maxRounds, &NonConvergenceError{
				MaxRounds: g.maxRounds,
				Last:      s,
			}
		}

		next, combinations := g.exp.ExpandCombinations(s)
		next, wildcards, err := g.exp.ExpandWildcards(next)
		if err != nil {
			return s, rounds, &RoundError{Round: rounds, Err: err}
		}

		observability.LogRound(g.logger, rounds, combinations, wildcards)
		if g.tracingEnabled {
			g.spans.AddSpanEvent(ctx, "round",
				attribute.Int("round", rounds),
				attribute.Int("combinations", combinations),
				attribute.Int("wildcards", wildcards),
			)
		}

		s = next
		if combinations+wildcards == 0 {
			break
		}
	}

	if g.replaceUnderscores {
		s = strings.ReplaceAll(s, "_", " ")
	}
	return s, rounds, nil
}
