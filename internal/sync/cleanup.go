package sync

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/samhoang/rz/internal/config"
	"github.com/samhoang/rz/internal/logging"
	"github.com/samhoang/rz/internal/progress"
	"github.com/samhoang/rz/internal/symlink"
)

// RemovalKind tells which tree a removal happened in
type RemovalKind string

const (
	RemovedLink RemovalKind = "plugin"
	RemovedRepo RemovalKind = "repo"
)

// Removal is the outcome of deleting one stale entry
type Removal struct {
	Kind RemovalKind
	Name string
	Path string
	Err  error
}

// StaleLinks returns the names not in expected, sorted
func StaleLinks(names []string, expected map[string]struct{}) []string {
	var stale []string
	for _, name := range names {
		if _, ok := expected[name]; !ok {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)
	return stale
}

// StaleRepos returns the ids neither expected nor referenced by a link, sorted
func StaleRepos(ids []string, expected, inUse map[string]struct{}) []string {
	var stale []string
	for _, id := range ids {
		if _, ok := expected[id]; ok {
			continue
		}
		if _, ok := inUse[id]; ok {
			continue
		}
		stale = append(stale, id)
	}
	sort.Strings(stale)
	return stale
}

// ReferencedRepos resolves every entry of linkDir to its canonical target and
// collects the repository identifiers they point into
func ReferencedRepos(linkDir string) map[string]struct{} {
	inUse := make(map[string]struct{})
	links := symlink.New()
	for _, name := range EntryNames(linkDir) {
		target, err := links.Resolve(filepath.Join(linkDir, name))
		if err != nil {
			continue
		}
		if slug, ok := config.SlugFromPath(target); ok {
			inUse[slug] = struct{}{}
		}
	}
	return inUse
}

// CleanupLinks deletes every entry of linkDir whose name isn't expected.
// Failures are recorded per entry and don't stop the sweep.
func CleanupLinks(linkDir string, expected map[string]struct{}, reporter progress.Reporter) []Removal {
	links := symlink.New()
	var removals []Removal
	for _, name := range StaleLinks(EntryNames(linkDir), expected) {
		r := Removal{Kind: RemovedLink, Name: name, Path: filepath.Join(linkDir, name)}
		r.Err = remove(reporter, r, func() error { return links.Remove(r.Path) })
		removals = append(removals, r)
	}
	return removals
}

// CleanupRepos recursively deletes checkouts under repoDir that are neither
// expected nor still referenced by an entry of linkDir.
// Failures are recorded per entry and don't stop the sweep.
func CleanupRepos(repoDir string, expected map[string]struct{}, linkDir string, reporter progress.Reporter) []Removal {
	inUse := ReferencedRepos(linkDir)

	var removals []Removal
	for _, id := range StaleRepos(EntryNames(repoDir), expected, inUse) {
		r := Removal{Kind: RemovedRepo, Name: id, Path: filepath.Join(repoDir, id)}
		r.Err = remove(reporter, r, func() error { return os.RemoveAll(r.Path) })
		removals = append(removals, r)
	}
	return removals
}

func remove(reporter progress.Reporter, r Removal, fn func() error) error {
	logger := logging.Get("cleanup")
	task := reporter.Add("removing stale " + string(r.Kind) + ": " + r.Name)

	if err := fn(); err != nil {
		logger.Debug().Err(err).Str("path", r.Path).Msg("Failed to remove stale entry")
		task.Fail("remove "+string(r.Kind)+" "+r.Name, err)
		return err
	}
	logger.Info().Str("path", r.Path).Msg("Removed stale entry")
	task.Done("removed " + string(r.Kind) + ": " + r.Name)
	return nil
}

// EntryNames lists a directory; a missing directory has no entries
func EntryNames(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
