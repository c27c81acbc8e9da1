package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt"
	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Regenerate prompts whenever a template file or the wildcards change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			gen := a.generator()
			out := cmd.OutOrStdout()

			regenerate := func(ctx context.Context) error {
				return printFromFile(ctx, out, gen, path, count)
			}
			if err := regenerate(cmd.Context()); err != nil {
				a.logger.Warn("generate failed", slog.String("error", err.Error()))
			}

			w, err := watch.New(
				watch.WithFile(path),
				watch.WithTree(a.settings.WildcardDir),
				watch.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			return w.Run(cmd.Context(), regenerate)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "prompts per change")
	return cmd
}

func printFromFile(ctx context.Context, out io.Writer, gen *dynaprompt.Generator, path string, count int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	tmpl := strings.TrimSpace(string(data))

	fmt.Fprintf(out, "--- %s\n", path)
	for range count {
		prompt, err := gen.Generate(ctx, tmpl)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, prompt)
	}
	return nil
}
