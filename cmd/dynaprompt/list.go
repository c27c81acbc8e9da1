package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/wildcard"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available wildcards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader := wildcard.NewLoader(a.settings.WildcardDir, wildcard.WithLogger(a.logger))
			names, err := loader.Names()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintf(out, "no wildcards in %s; add NAME.txt files with one entry per line\n", loader.Dir())
				return nil
			}
			for _, name := range names {
				fmt.Fprintf(out, "__%s__\n", name)
			}
			return nil
		},
	}
}
