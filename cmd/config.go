package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samhoang/rz/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
	Long:  `Open, create or locate config.toml. Without a subcommand the config is opened in an editor.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigEdit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config.toml in $EDITOR",
	Long: `Open config.toml in $EDITOR, falling back to settings.editor and then vim.
vim-like editors are started with -n so no swap file is left behind.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path of config.toml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := config.ResolvePaths()
		if err != nil {
			return err
		}
		fmt.Println(paths.Config)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	paths, err := config.ResolvePaths()
	if err != nil {
		return err
	}

	fallback := config.DefaultSettings().Editor
	if cfg, err := config.Load(paths.Config); err == nil && cfg.Settings.Editor != "" {
		fallback = cfg.Settings.Editor
	}
	name, editorArgs := editorCommand(os.Getenv("EDITOR"), fallback, paths.Config)

	if err := os.MkdirAll(filepath.Dir(paths.Config), 0755); err != nil {
		return err
	}

	c := exec.CommandContext(cmd.Context(), name, editorArgs...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("failed to launch editor %s: %w", name, err)
	}
	return nil
}

// editorCommand returns the program and arguments that open path. $EDITOR
// may carry its own flags, e.g. "code --wait".
func editorCommand(env, fallback, path string) (string, []string) {
	fields := strings.Fields(env)
	if len(fields) == 0 {
		fields = strings.Fields(fallback)
	}
	if len(fields) == 0 {
		fields = []string{"vim"}
	}

	args := append(fields[1:len(fields):len(fields)], path)
	if strings.Contains(strings.ToLower(filepath.Base(fields[0])), "vim") {
		args = append(args, "-n")
	}
	return fields[0], args
}
