package sync

import (
	"context"
	"errors"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	rzerrors "github.com/samhoang/rz/internal/errors"
	"github.com/samhoang/rz/internal/git"
	"github.com/samhoang/rz/internal/logging"
	"github.com/samhoang/rz/internal/progress"
	"github.com/samhoang/rz/internal/symlink"
)

// Repository brings a working copy to a declared state
type Repository interface {
	Ensure(ctx context.Context, url, dir, rev string) error
}

var _ Repository = (*git.Client)(nil)

// Result is the outcome of one job. Err is nil on success.
type Result struct {
	Job      Job
	Target   string // resolved link target
	Err      error
	Duration time.Duration
}

// Scheduler runs jobs concurrently; a failing job never affects its siblings
type Scheduler struct {
	repo     Repository
	links    *symlink.Manager
	reporter progress.Reporter
	limit    int
}

// NewScheduler creates a scheduler running at most limit jobs at once.
// A limit below one uses the number of CPUs.
func NewScheduler(repo Repository, reporter progress.Reporter, limit int) *Scheduler {
	if limit < 1 {
		limit = runtime.NumCPU()
	}
	if reporter == nil {
		reporter = progress.Discard()
	}
	return &Scheduler{
		repo:     repo,
		links:    symlink.New(),
		reporter: reporter,
		limit:    limit,
	}
}

// Run executes every job and returns one Result per job in job order.
// Jobs sharing a checkout directory run as one unit: the repository is
// brought up to date once, then each job's link is created in order.
// A cancelled context stops jobs that haven't finished a step yet.
func (s *Scheduler) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	// One task per job, created up front and written only by its job
	tasks := make([]progress.Task, len(jobs))
	for i, job := range jobs {
		tasks[i] = s.reporter.Add("syncing " + job.Display)
	}

	var g errgroup.Group
	g.SetLimit(s.limit)
	for _, group := range groupByRepo(jobs) {
		g.Go(func() error {
			s.runGroup(ctx, jobs, group, tasks, results)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// groupByRepo returns the indices of jobs sharing a RepoDir, groups in order
// of first appearance
func groupByRepo(jobs []Job) [][]int {
	var groups [][]int
	pos := make(map[string]int)
	for i, job := range jobs {
		g, ok := pos[job.RepoDir]
		if !ok {
			g = len(groups)
			pos[job.RepoDir] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func (s *Scheduler) runGroup(ctx context.Context, jobs []Job, group []int, tasks []progress.Task, results []Result) {
	start := time.Now()
	lead := jobs[group[0]]
	for _, i := range group[1:] {
		if jobs[i].Rev != lead.Rev {
			logger := logging.Get("sync")
			logger.Debug().Str("repo", lead.RepoDir).Str("rev", lead.Rev).
				Str("ignored", jobs[i].Rev).Msg("Entries share a checkout, using the first rev")
		}
	}

	ensureErr := s.ensure(ctx, lead)
	for _, i := range group {
		job := jobs[i]
		res := Result{Job: job}
		switch {
		case ensureErr == nil:
			res.Target, res.Err = s.link(ctx, job)
		case errors.Is(ensureErr, ctx.Err()):
			res.Err = ensureErr
		default:
			res.Err = rzerrors.NewPluginError(job.Display, "sync repository", ensureErr)
		}
		res.Duration = time.Since(start)
		s.finish(job, tasks[i], res)
		results[i] = res
	}
}

// finish reports a job's outcome. Failures are logged at debug level only:
// the task line and the command summary surface them, and console logging
// would interleave with a live progress display.
func (s *Scheduler) finish(job Job, task progress.Task, res Result) {
	logger := logging.Get("sync").With().Str("plugin", job.Display).Logger()
	if res.Err != nil {
		logger.Debug().Err(res.Err).Msg("Sync failed")
		task.Fail("syncing "+job.Display, res.Err)
		return
	}
	logger.Info().Str("target", res.Target).Dur("duration", res.Duration).Msg("Synced")
	task.Done("synced " + job.Display)
}

func (s *Scheduler) ensure(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.repo.Ensure(ctx, job.URL, job.RepoDir, job.Rev)
}

// link resolves the job's target in its checkout and (re)creates the link
func (s *Scheduler) link(ctx context.Context, job Job) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := LinkTarget(job)
	if err != nil {
		return "", rzerrors.NewPluginError(job.Display, "resolve link", err)
	}
	if err := s.links.Replace(job.LinkPath, target); err != nil {
		return "", rzerrors.NewPluginError(job.Display, "link", err)
	}
	return target, nil
}
