package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt"
	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/config"
	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/observability"
)

// app holds state shared by every command, set up before any command runs.
type app struct {
	configPath  string
	wildcardDir string
	logFile     string
	verbose     int

	settings config.Settings
	logger   *slog.Logger
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "dynaprompt",
		Short: "Expand dynamic prompt templates",
		Long: `dynaprompt expands prompt templates into concrete prompts.

Templates mix literal text with combinations and wildcards:

  {red|green|blue}        one variant
  {2$$red|green|blue}     two distinct variants, joined by ", "
  {1-3$$red|green|blue}   one to three variants
  __colors__              one line of colors.txt in the wildcard directory

Examples:
  dynaprompt generate "a {cat|dog} in a __colors__ hat" -n 4
  dynaprompt batch "portrait, __styles__" -n 8 --batch-size 4 --seed 1234
  dynaprompt list
  dynaprompt watch prompt.txt`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "settings file (.yaml, .json or .toml)")
	flags.StringVar(&a.wildcardDir, "wildcard-dir", "", "wildcard directory (overrides settings)")
	flags.StringVar(&a.logFile, "log-file", "", "also write JSON logs to this file")
	flags.CountVarP(&a.verbose, "verbose", "v", "increase log verbosity (-v info, -vv debug)")

	cmd.AddCommand(
		newGenerateCmd(a),
		newBatchCmd(a),
		newListCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	settings, err := config.LoadSettings(a.configPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if cmd.Flags().Changed("wildcard-dir") {
		settings.WildcardDir = a.wildcardDir
	}
	a.settings = settings

	level := new(slog.LevelVar)
	switch {
	case a.verbose >= 2:
		level.Set(slog.LevelDebug)
	case a.verbose == 1:
		level.Set(slog.LevelInfo)
	default:
		level.Set(slog.LevelWarn)
	}

	logger, closeLog, err := observability.NewLogger(observability.LoggerConfig{
		Writer: cmd.ErrOrStderr(),
		Level:  level,
		File:   a.logFile,
	})
	if err != nil {
		return err
	}
	a.logger = logger
	a.closeLog = closeLog
	return nil
}

func (a *app) teardown() error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}

// generator builds a Generator from settings plus per-command options.
func (a *app) generator(opts ...dynaprompt.Option) *dynaprompt.Generator {
	return dynaprompt.NewFromSettings(a.settings,
		append([]dynaprompt.Option{dynaprompt.WithLogger(a.logger)}, opts...)...)
}
