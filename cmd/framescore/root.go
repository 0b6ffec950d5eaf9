package main

import (
	"fmt"

	"codeberg.org/mutker/framescore/internal/config"
	"codeberg.org/mutker/framescore/internal/logger"
	"github.com/spf13/cobra"
)

var version = "dev"

// cli carries the loaded configuration from the root command to the
// subcommands.
type cli struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	app := &cli{}

	rootCmd := &cobra.Command{
		Use:   "framescore",
		Short: "Frame performance scoring for a render loop",
		Long: `framescore drives a render loop, samples frame times and scores the
result from 0 to 100 once per second. A baseline can be saved and compared
against while the loop is running.

Examples:
  framescore run --scene skybox
  framescore baseline
  framescore compare
  framescore history --limit 10`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
			if level, ok := logger.ParseLevel(cfg.LogLevel); ok {
				logger.SetLogLevel(level)
			}
			logger.Debug().Str("log_level", cfg.LogLevel).Msg("Config loaded")

			app.cfg = cfg
			return nil
		},
	}

	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newRunCmd(app),
		newBaselineCmd(app),
		newCompareCmd(app),
		newHistoryCmd(app),
	)

	return rootCmd
}

// execute runs the command line and reports a failure on stderr. The
// logger may not be initialised yet when config loading fails.
func execute(cmd *cobra.Command) error {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "framescore: %v\n", err)
		return err
	}

	return nil
}
