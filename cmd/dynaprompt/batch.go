package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/batch"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		count           int
		batchSize       int
		seed            int64
		subseedStrength float64
		concurrency     int
		format          string
	)

	cmd := &cobra.Command{
		Use:   "batch TEMPLATE",
		Short: "Plan an image batch and print it",
		Long: `Plan an image batch: one prompt and one seed per output, plus the
number of batches an image service should run. The plan is printed in
place of sending it to a service.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("batch-size") {
				batchSize = a.settings.BatchSize
			}
			if !flags.Changed("seed") {
				seed = a.settings.Seed
			}
			if !flags.Changed("concurrency") {
				concurrency = a.settings.Concurrency
			}

			renderer, err := printRenderer(cmd.OutOrStdout(), format)
			if err != nil {
				return err
			}

			orch := batch.New(a.generator(),
				batch.WithConcurrency(concurrency),
				batch.WithLogger(a.logger),
			)
			_, err = orch.Run(cmd.Context(), batch.Request{
				Template:        args[0],
				Count:           count,
				BatchSize:       batchSize,
				Seed:            seed,
				SubseedStrength: subseedStrength,
			}, renderer)
			return err
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&count, "count", "n", 1, "number of outputs")
	flags.IntVar(&batchSize, "batch-size", 1, "images per batch")
	flags.Int64Var(&seed, "seed", batch.RandomSeed, "base seed (-1 draws one)")
	flags.Float64Var(&subseedStrength, "subseed-strength", 0, "non-zero gives every output the base seed")
	flags.IntVar(&concurrency, "concurrency", batch.DefaultConcurrency, "prompts generated at once")
	flags.StringVar(&format, "format", "text", "output format: text, json or yaml")
	return cmd
}

// printRenderer returns a Renderer that writes the plan to w.
func printRenderer(w io.Writer, format string) (batch.Renderer, error) {
	var write func(*batch.Plan) error
	switch format {
	case "text":
		write = func(p *batch.Plan) error { return writeText(w, p) }
	case "json":
		write = func(p *batch.Plan) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}
	case "yaml":
		write = func(p *batch.Plan) error {
			enc := yaml.NewEncoder(w)
			defer enc.Close()
			return enc.Encode(p)
		}
	default:
		return nil, fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}

	return batch.RendererFunc(func(_ context.Context, p *batch.Plan) (*batch.Result, error) {
		if err := write(p); err != nil {
			return nil, fmt.Errorf("print plan: %w", err)
		}
		return &batch.Result{Info: "printed"}, nil
	}), nil
}

func writeText(w io.Writer, p *batch.Plan) error {
	if _, err := fmt.Fprintf(w, "run %s: %d prompts in %d batches of %d\n",
		p.RunID, len(p.Prompts), p.Batches, p.BatchSize); err != nil {
		return err
	}
	for i, prompt := range p.Prompts {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", p.Seeds[i], prompt); err != nil {
			return err
		}
	}
	return nil
}
