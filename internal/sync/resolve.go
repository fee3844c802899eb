package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/samhoang/rz/internal/config"
	rzerrors "github.com/samhoang/rz/internal/errors"
)

// sourcePatterns are tried in order; within a pattern the lexicographically
// first top-level file wins
var sourcePatterns = []string{"*.plugin.zsh", "*.zsh", "*.zsh-theme"}

// ResolveSourceFile returns the file of repoDir that a source plugin loads.
// A hint naming an existing file inside the repo takes precedence; hints that
// are absolute or climb out of the repo are ignored.
func ResolveSourceFile(repoDir, hint string) (string, error) {
	if hint != "" && filepath.IsLocal(hint) {
		p := filepath.Join(repoDir, hint)
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, nil
		}
	}

	entries, err := os.ReadDir(repoDir)
	if err != nil {
		return "", rzerrors.NewPathError(repoDir, "read dir", err)
	}
	if name := MatchSourceFile(fileNames(repoDir, entries)); name != "" {
		return filepath.Join(repoDir, name), nil
	}
	return "", fmt.Errorf("no source file found in %s: %w", repoDir, rzerrors.ErrNoSourceFile)
}

// MatchSourceFile picks the source file among top-level file names, or ""
func MatchSourceFile(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	for _, pattern := range sourcePatterns {
		for _, name := range sorted {
			if ok, _ := filepath.Match(pattern, name); ok {
				return name
			}
		}
	}
	return ""
}

// fileNames lists entries that are files or links to files
func fileNames(dir string, entries []os.DirEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			if fi, err := os.Stat(filepath.Join(dir, e.Name())); err == nil && fi.Mode().IsRegular() {
				names = append(names, e.Name())
			}
		}
	}
	return names
}

// LinkTarget returns what the job's link should point at: the repository
// itself for fpath plugins, else the resolved source file
func LinkTarget(job Job) (string, error) {
	if job.Role == config.RoleFpath {
		return job.RepoDir, nil
	}
	return ResolveSourceFile(job.RepoDir, job.FileHint)
}
