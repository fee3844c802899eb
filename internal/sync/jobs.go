// Package sync reconciles plugin checkouts and links with config.toml.
//
// A run builds one Job per declared plugin, executes the jobs in parallel
// with per-job failure isolation and finally removes links and checkouts
// that are no longer declared.
package sync

import (
	"github.com/samhoang/rz/internal/config"
	"github.com/samhoang/rz/internal/logging"
)

// Job holds everything needed to sync one plugin. It is pure data.
type Job struct {
	Display  string
	URL      string
	Slug     string
	RepoDir  string
	LinkName string
	LinkPath string
	Role     config.Role
	FileHint string
	Rev      string
}

// Expectations are the link names and repository identifiers a run produces.
// Cleanup removes everything else.
type Expectations struct {
	LinkNames map[string]struct{}
	RepoIDs   map[string]struct{}
	Skipped   []Skip
}

// Skip is a declared plugin left out because a required command is missing
type Skip struct {
	Display string
	Missing string
}

func newExpectations() Expectations {
	return Expectations{
		LinkNames: make(map[string]struct{}),
		RepoIDs:   make(map[string]struct{}),
	}
}

// LookPathFunc resolves an executable on PATH, like exec.LookPath
type LookPathFunc func(file string) (string, error)

// BuildJobs derives sync jobs and expectations from declared plugins.
// Entries with a blank repo are skipped, as are entries whose required
// executables are missing from PATH.
func BuildJobs(plugins []config.Plugin, paths *config.Paths, lookPath LookPathFunc) ([]Job, Expectations) {
	logger := logging.Get("sync")
	expect := newExpectations()
	jobs := make([]Job, 0, len(plugins))

	for _, p := range plugins {
		if p.Slug() == "" {
			continue
		}
		if missing := missingTools(p.Requires, lookPath); missing != "" {
			logger.Info().Str("plugin", p.DisplayName()).Str("requires", missing).
				Msg("Skipping plugin, required command not found")
			expect.Skipped = append(expect.Skipped, Skip{Display: p.DisplayName(), Missing: missing})
			continue
		}

		slug := p.Slug()
		name := p.LinkName()
		expect.LinkNames[name] = struct{}{}
		expect.RepoIDs[slug] = struct{}{}

		jobs = append(jobs, Job{
			Display:  p.DisplayName(),
			URL:      p.URL(),
			Slug:     slug,
			RepoDir:  paths.RepoDir(slug),
			LinkName: name,
			LinkPath: paths.PluginLink(name),
			Role:     p.Role(),
			FileHint: p.File,
			Rev:      p.Rev,
		})
	}

	return jobs, expect
}

// missingTools returns the first required executable lookPath can't find
func missingTools(required []string, lookPath LookPathFunc) string {
	if lookPath == nil {
		return ""
	}
	for _, tool := range required {
		if tool == "" {
			continue
		}
		if _, err := lookPath(tool); err != nil {
			return tool
		}
	}
	return ""
}
