package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samhoang/rz/internal/config"
	rzerrors "github.com/samhoang/rz/internal/errors"
	"github.com/samhoang/rz/internal/progress"
	"github.com/samhoang/rz/internal/upgrade"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade rz to the latest release",
	Long: `Download the latest GitHub release of rz and replace $(rz home)/bin/rz.

Releases are read from settings.github_repo. Set GITHUB_TOKEN to raise the
API rate limit.`,
	Args: cobra.NoArgs,
	RunE: runUpgrade,
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	paths, err := config.ResolvePaths()
	if err != nil {
		return err
	}

	// upgrade works without a config file
	settings := config.DefaultSettings()
	cfg, err := config.Load(paths.Config)
	switch {
	case err == nil:
		settings = cfg.Settings
	case errors.Is(err, rzerrors.ErrConfig) && !fileExists(paths.Config):
	default:
		return err
	}

	reporter := progress.New(os.Stderr)
	task := reporter.Add("upgrade")
	m := &upgrade.Manager{
		Client:  upgrade.NewGitHubClient(),
		Repo:    settings.GitHubRepo,
		Version: Version,
		Target:  paths.BinaryPath(),
		Task:    task,
	}

	res, err := m.Upgrade(cmd.Context())
	if err != nil {
		task.Fail("upgrade failed", err)
		reporter.Close()
		return err
	}

	switch {
	case res.Asset == "":
		task.Done("already up to date (" + res.Tag + ")")
	case res.Outcome == upgrade.Unchanged:
		task.Done("binary already matches " + res.Tag)
	default:
		task.Done("upgraded to " + res.Tag)
	}
	reporter.Close()

	if res.Outcome == upgrade.Replaced {
		fmt.Printf("Installed %s\n", m.Target)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
