package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt"
	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/observability"
)

// seedMix spreads output indexes across the generator seed space.
const seedMix = 0x9e3779b97f4a7c15

// Orchestrator plans batches with a Generator and hands them to a Renderer.
// It is safe for concurrent use.
type Orchestrator struct {
	gen         *dynaprompt.Generator
	concurrency int
	logger      *slog.Logger
	drawSeed    func() int64
	retry       RetryPolicy

	metrics        observability.MetricsRecorder
	tracingEnabled bool
	spans          observability.SpanManager
}

// New creates an Orchestrator generating prompts with gen.
func New(gen *dynaprompt.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:         gen,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
		drawSeed:    defaultSeed,
		retry:       NoRetry,
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan generates one prompt and one seed per requested output.
//
// Output i is generated by a generator forked with a seed derived from the
// base seed and i, so a fixed base seed reproduces the same prompts at any
// concurrency. The first failed output cancels the rest and is returned as
// *OutputError.
func (o *Orchestrator) Plan(ctx context.Context, req Request) (plan *Plan, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	start := time.Now()

	var span trace.Span
	if o.tracingEnabled {
		ctx, span = o.spans.StartBatchSpan(ctx, runID, req.Count)
		defer func() {
			o.spans.EndSpanWithError(span, err)
		}()
	}

	base := req.Seed
	if base == RandomSeed {
		base = o.drawSeed()
	}

	prompts, err := o.generate(ctx, runID, req.Template, base, req.Count)
	o.metrics.RecordBatch(ctx, req.Count, err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	plan = &Plan{
		RunID:         runID,
		DisplayPrompt: req.Template,
		Prompts:       prompts,
		Seeds:         Seeds(base, len(prompts), req.SubseedStrength),
		BatchSize:     req.BatchSize,
		Batches:       BatchCount(len(prompts), req.BatchSize),
		DoNotSaveGrid: true,
	}
	observability.LogBatchPlanned(o.logger, runID, len(plan.Prompts), plan.Batches)
	return plan, nil
}

func (o *Orchestrator) generate(ctx context.Context, runID, tmpl string, base int64, count int) ([]string, error) {
	prompts := make([]string, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i := range count {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			gen := o.gen.Fork(outputSeed(base, i),
				dynaprompt.WithLogger(observability.EnrichLogger(o.logger, runID, i)))
			prompt, err := gen.Generate(gctx, tmpl)
			if err != nil {
				return &OutputError{Index: i, Err: err}
			}
			prompts[i] = prompt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prompts, nil
}

// Run plans req and hands the plan to r, retrying transient renderer
// failures under the configured RetryPolicy. The returned Result always
// carries the plan.
func (o *Orchestrator) Run(ctx context.Context, req Request, r Renderer) (*Result, error) {
	done := observability.TimedOperation()

	plan, err := o.Plan(ctx, req)
	if err != nil {
		observability.LogBatchError(o.logger, "", err, done())
		return nil, err
	}

	res, attempts, err := o.render(ctx, r, plan)
	if err != nil {
		err = fmt.Errorf("render batch %s (%d attempts): %w", plan.RunID, attempts, err)
		observability.LogBatchError(o.logger, plan.RunID, err, done())
		return nil, err
	}
	if res == nil {
		res = &Result{}
	}
	res.Plan = plan

	observability.LogBatchComplete(o.logger, plan.RunID, done())
	return res, nil
}

// outputSeed derives the generator seed of output i.
func outputSeed(base int64, i int) uint64 {
	return uint64(base) ^ (uint64(i)+1)*seedMix
}
