// Package cmd defines and implements the CLI commands for the keyword-engine executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seoforge/keyword-engine/internal/config"
	"github.com/seoforge/keyword-engine/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyword-engine",
		Short: "Cleans, validates, and scores keyword candidates.",
		Long: `keyword-engine normalizes raw keyword candidates, filters out terms
that fail validation or numeric sanity checks, and scores the survivors with a
weighted combination of volume, price, intent, and competition signals.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus KEYWORD_* env vars)")

	cmd.AddCommand(newScoreCmd())

	return cmd
}

// loadConfigAndLogger builds the shared dependencies every subcommand needs.
func loadConfigAndLogger() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
