package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samhoang/rz/internal/config"
)

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Print the rz home directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := config.ResolveHome()
		if err != nil {
			return err
		}
		fmt.Println(home)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(homeCmd)
}
