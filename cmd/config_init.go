package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samhoang/rz/internal/config"
	"github.com/samhoang/rz/internal/picker"
	"github.com/samhoang/rz/internal/progress"
)

var (
	configInitForce bool
	configInitYes   bool
)

// extraStarters are offered next to config.Starter's plugins, unselected
var extraStarters = []config.Plugin{
	{Source: "github", Repo: "zsh-users/zsh-history-substring-search", Type: "source"},
	{Source: "github", Repo: "olets/zsh-abbr", Type: "source"},
	{Source: "github", Repo: "Aloxaf/fzf-tab", Type: "source", Requires: []string{"fzf"}},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a starter config.toml",
	Long: `Generate a starter config.toml. On a terminal the plugins to include are
picked interactively; --yes keeps the defaults.

Example config.toml:

  [settings]
  jobs = 0
  github_repo = "gotokazuki/rat-zsh"
  editor = "vim"

  [[plugins]]
  source = "github"
  repo = "zsh-users/zsh-autosuggestions"
  type = "source"

  [[plugins]]
  repo = "zsh-users/zsh-completions"
  type = "fpath"
  rev = "0.35.0"`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config.toml")
	configInitCmd.Flags().BoolVarP(&configInitYes, "yes", "y", false, "Use the default plugins without asking")
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	paths, err := config.ResolvePaths()
	if err != nil {
		return err
	}

	if fileExists(paths.Config) && !configInitForce {
		fmt.Printf("Config already exists: %s\n", paths.Config)
		fmt.Println("Edit it with 'rz config edit' or use --force to regenerate.")
		return nil
	}

	cfg := config.Starter()
	if !configInitYes && progress.IsTerminal(os.Stdin) && progress.IsTerminal(os.Stdout) {
		plugins, err := pickStarters(cfg.Plugins)
		if errors.Is(err, picker.ErrCancelled) {
			fmt.Println("Cancelled")
			return nil
		}
		if err != nil {
			return err
		}
		cfg.Plugins = plugins
	}

	if err := cfg.Save(paths.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Created: %s\n", paths.Config)
	fmt.Println("Run 'rz sync' to install the plugins.")
	return nil
}

func pickStarters(defaults []config.Plugin) ([]config.Plugin, error) {
	catalog := append(append([]config.Plugin(nil), defaults...), extraStarters...)

	items := make([]picker.Item, 0, len(catalog))
	for i, pl := range catalog {
		items = append(items, picker.Item{
			ID:       pl.Repo,
			Label:    pl.DisplayName(),
			Note:     "[" + string(pl.Role()) + "]",
			Selected: i < len(defaults),
		})
	}

	ids, err := picker.Run(os.Stdin, os.Stdout, "Plugins for config.toml", items)
	if err != nil {
		return nil, err
	}
	return pluginsByRepo(catalog, ids), nil
}

// pluginsByRepo keeps the catalog entries whose repo is in ids, in catalog order
func pluginsByRepo(catalog []config.Plugin, ids []string) []config.Plugin {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	var out []config.Plugin
	for _, pl := range catalog {
		if keep[pl.Repo] {
			out = append(out, pl)
		}
	}
	return out
}
