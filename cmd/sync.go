package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samhoang/rz/internal/git"
	"github.com/samhoang/rz/internal/progress"
	"github.com/samhoang/rz/internal/sync"
)

var syncJobs int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or update configured plugins",
	Long: `Bring every plugin in config.toml to its declared revision, refresh the
links in plugins/ and remove links and checkouts no longer declared.

A failing plugin is reported and never stops the others.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVarP(&syncJobs, "jobs", "j", 0, "Parallel jobs (default: settings.jobs, then number of CPUs)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	paths, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := git.New()
	if !client.Available() {
		return fmt.Errorf("git not found in PATH")
	}

	reporter := progress.New(os.Stderr)
	report, err := sync.Run(cmd.Context(), sync.Options{
		Paths:    paths,
		Config:   cfg,
		Repo:     client,
		Reporter: reporter,
		Jobs:     syncJobs,
	})
	reporter.Close()
	if err != nil {
		return err
	}

	if len(cfg.Plugins) == 0 {
		fmt.Printf("No plugins declared in %s\n", paths.Config)
		return nil
	}

	for _, sk := range report.Skipped {
		fmt.Fprintf(os.Stderr, "  skipped %s: %s not found in PATH\n", sk.Display, sk.Missing)
	}
	failed := report.Failed()
	for _, res := range failed {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", res.Job.Display, res.Err)
	}
	for _, r := range report.Removals {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "  could not remove %s %s: %v\n", r.Kind, r.Name, r.Err)
		}
	}

	fmt.Printf("Synced %d/%d plugins", len(report.Results)-len(failed), len(report.Results))
	if len(report.Removals) > 0 {
		fmt.Printf(", removed %d stale entries", len(report.Removals))
	}
	fmt.Println()
	return nil
}
