package sync

import (
	"context"
	"os/exec"
	"time"

	"github.com/samhoang/rz/internal/config"
	rzerrors "github.com/samhoang/rz/internal/errors"
	"github.com/samhoang/rz/internal/logging"
	"github.com/samhoang/rz/internal/progress"
)

// Options configures a sync run
type Options struct {
	Paths    *config.Paths
	Config   *config.Config
	Repo     Repository
	Reporter progress.Reporter
	LookPath LookPathFunc // defaults to exec.LookPath
	Jobs     int          // parallel jobs; 0 uses settings.jobs, then NumCPU
}

// Report summarizes a sync run
type Report struct {
	Results  []Result
	Removals []Removal
	Skipped  []Skip
}

// Failed returns the results of jobs that failed
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Run syncs every declared plugin, then removes stale links and checkouts.
//
// Job failures are recorded in the report and never abort the run; cleanup
// always follows the jobs. Only a failure to create the directory layout is
// returned as an error. An empty plugin list is a no-op so that an emptied
// config never wipes existing checkouts.
func Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	logger := logging.Get("sync")
	defer logging.LogDuration(logger, start, "sync")

	if err := opts.Paths.Ensure(); err != nil {
		return nil, rzerrors.NewPathError(opts.Paths.Home, "create layout", err)
	}

	report := &Report{}
	if len(opts.Config.Plugins) == 0 {
		logger.Info().Str("config", opts.Paths.Config).Msg("No plugins declared")
		return report, nil
	}

	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Discard()
	}
	limit := opts.Jobs
	if limit < 1 {
		limit = opts.Config.Settings.Jobs
	}

	jobs, expect := BuildJobs(opts.Config.Plugins, opts.Paths, lookPath)
	logger.Debug().Int("jobs", len(jobs)).Int("limit", limit).Msg("Built sync jobs")

	report.Skipped = expect.Skipped
	report.Results = NewScheduler(opts.Repo, reporter, limit).Run(ctx, jobs)

	// Cleanup runs strictly after all jobs so it never races a checkout
	report.Removals = append(report.Removals, CleanupLinks(opts.Paths.Plugins, expect.LinkNames, reporter)...)
	report.Removals = append(report.Removals, CleanupRepos(opts.Paths.Repos, expect.RepoIDs, opts.Paths.Plugins, reporter)...)

	logger.Info().Int("jobs", len(jobs)).Int("failed", len(report.Failed())).
		Int("removed", len(report.Removals)).Msg("Sync finished")
	return report, nil
}
