package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/samhoang/rz/internal/shell"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Print shell initialization code",
	Long: `Print the zsh code that puts rz on PATH, extends fpath, runs compinit
once and sources every plugin in load order.

Add to ~/.zshrc:

  eval "$(rz init)"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return shell.WriteInit(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
