package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		count              int
		seed               uint64
		replaceUnderscores bool
	)

	cmd := &cobra.Command{
		Use:   "generate TEMPLATE",
		Short: "Print prompts expanded from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("-n must be at least 1, got %d", count)
			}

			var opts []dynaprompt.Option
			if cmd.Flags().Changed("seed") {
				opts = append(opts, dynaprompt.WithSeed(seed))
			}
			if cmd.Flags().Changed("replace-underscores") {
				opts = append(opts, dynaprompt.WithReplaceUnderscores(replaceUnderscores))
			}
			gen := a.generator(opts...)

			for range count {
				prompt, err := gen.Generate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), prompt)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of prompts")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible output")
	cmd.Flags().BoolVar(&replaceUnderscores, "replace-underscores", false, "replace '_' with spaces in finished prompts")
	return cmd
}
