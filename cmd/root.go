package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/samhoang/rz/internal/config"
	"github.com/samhoang/rz/internal/logging"
)

var Version = "dev"

var verbosity int

var rootCmd = &cobra.Command{
	Use:   "rz",
	Short: "rat-zsh (rz) - minimal zsh plugin manager",
	Long: `rz manages zsh plugins declared in $(rz home)/config.toml.

Plugins are cloned into repos/, exposed through links in plugins/ and loaded
by the script printed by 'rz init':

  eval "$(rz init)"`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbosity)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
}

// loadConfig resolves the rz layout and reads config.toml
func loadConfig() (*config.Paths, *config.Config, error) {
	paths, err := config.ResolvePaths()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return paths, nil, err
	}
	return paths, cfg, nil
}
