package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samhoang/rz/internal/config"
	"github.com/samhoang/rz/internal/git"
	"github.com/samhoang/rz/internal/symlink"
	"github.com/samhoang/rz/internal/sync"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues",
	Long: `Check the rz installation for common issues.

Checks:
- Is git on PATH?
- Does config.toml load?
- Are there broken links in plugins/?
- Are there links or checkouts no plugin declares?
- Do links still point where a sync would link them?`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	paths, err := config.ResolvePaths()
	if err != nil {
		return err
	}

	fmt.Println("=== rz doctor ===")
	fmt.Println()

	issues := doctor(os.Stdout, paths, git.New(), exec.LookPath)

	fmt.Println()
	if issues == 0 {
		fmt.Println("All checks passed!")
	} else {
		fmt.Printf("Found %d issue(s)\n", issues)
	}
	return nil
}

// doctor writes one line per check to w and returns the number of failures.
// Warnings don't count as failures.
func doctor(w io.Writer, paths *config.Paths, client *git.Client, lookPath sync.LookPathFunc) int {
	issues := 0

	fmt.Fprint(w, "Checking git... ")
	if client.Available() {
		fmt.Fprintln(w, "OK")
	} else {
		fmt.Fprintln(w, "FAIL")
		fmt.Fprintln(w, "  → git not found in PATH, 'rz sync' needs it")
		issues++
	}

	fmt.Fprint(w, "Checking config... ")
	cfg, err := config.Load(paths.Config)
	if err != nil {
		fmt.Fprintln(w, "FAIL")
		fmt.Fprintf(w, "  → %v\n", err)
		fmt.Fprintln(w, "  → Run 'rz config init' to create one")
		issues++
	} else {
		fmt.Fprintf(w, "OK (%d plugins)\n", len(cfg.Plugins))
	}

	fmt.Fprint(w, "Checking for broken links... ")
	broken := findBrokenLinks(paths.Plugins)
	if len(broken) > 0 {
		fmt.Fprintf(w, "FAIL (%d broken)\n", len(broken))
		for _, name := range broken[:min(5, len(broken))] {
			fmt.Fprintf(w, "  → %s\n", name)
		}
		if len(broken) > 5 {
			fmt.Fprintf(w, "  → ... and %d more\n", len(broken)-5)
		}
		fmt.Fprintln(w, "  → Run 'rz sync' to repair")
		issues += len(broken)
	} else {
		fmt.Fprintln(w, "OK")
	}

	// Stale entries need the declared set
	if cfg == nil {
		return issues
	}
	jobs, expect := sync.BuildJobs(cfg.Plugins, paths, lookPath)

	fmt.Fprint(w, "Checking for stale entries... ")
	staleLinks := sync.StaleLinks(sync.EntryNames(paths.Plugins), expect.LinkNames)
	staleRepos := sync.StaleRepos(sync.EntryNames(paths.Repos), expect.RepoIDs, sync.ReferencedRepos(paths.Plugins))
	if len(staleLinks)+len(staleRepos) > 0 {
		fmt.Fprintf(w, "WARN (%d links, %d repos)\n", len(staleLinks), len(staleRepos))
		for _, name := range staleLinks {
			fmt.Fprintf(w, "  → plugins/%s\n", name)
		}
		for _, id := range staleRepos {
			fmt.Fprintf(w, "  → repos/%s\n", id)
		}
		fmt.Fprintln(w, "  → Run 'rz sync' to remove them")
	} else {
		fmt.Fprintln(w, "OK")
	}

	fmt.Fprint(w, "Checking link targets... ")
	if outdated := outdatedLinks(jobs); len(outdated) > 0 {
		fmt.Fprintf(w, "WARN (%d outdated)\n", len(outdated))
		for _, name := range outdated {
			fmt.Fprintf(w, "  → plugins/%s\n", name)
		}
		fmt.Fprintln(w, "  → Run 'rz sync' to relink them")
	} else {
		fmt.Fprintln(w, "OK")
	}

	return issues
}

// outdatedLinks returns the link names of jobs whose existing link points
// somewhere other than what a sync would link now. Missing checkouts and
// broken links are reported by the other checks.
func outdatedLinks(jobs []sync.Job) []string {
	links := symlink.New()
	var outdated []string
	for _, job := range jobs {
		info, err := links.Info(job.LinkPath)
		if err != nil || !info.Exists || info.IsBroken {
			continue
		}
		target, err := sync.LinkTarget(job)
		if err != nil {
			continue
		}
		if ok, err := links.Validate(job.LinkPath, target); err == nil && !ok {
			outdated = append(outdated, job.LinkName)
		}
	}
	return outdated
}

func findBrokenLinks(dir string) []string {
	links := symlink.New()
	var broken []string
	for _, name := range sync.EntryNames(dir) {
		info, err := links.Info(filepath.Join(dir, name))
		if err == nil && info.IsBroken {
			broken = append(broken, name)
		}
	}
	return broken
}
