package order

import (
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// blockedDirs never hold completion functions worth adding to fpath
var blockedDirs = []string{
	"docs", "doc", "examples", "example", "samples", "sample",
	"tests", "test", "spec", "scripts", "script", "tools", "bin",
	"assets", "images", "img", "node_modules",
}

// FpathDirs returns the fpath directories contributed by the plugin with the
// given slug. Configured dirs are relative to the plugin root and used when
// they exist; otherwise completion directories are discovered.
func FpathDirs(pluginsDir, slug string, configured []string) ([]string, error) {
	entries, err := Resolve(pluginsDir)
	if err != nil {
		return nil, err
	}

	var root string
	for _, e := range entries {
		if e.Slug == slug {
			root = e.Target
			break
		}
	}
	if root == "" {
		return nil, nil
	}

	if dirs := existingDirs(root, configured); len(dirs) > 0 {
		return dirs, nil
	}
	return DiscoverCompletionDirs(root), nil
}

func existingDirs(root string, rel []string) []string {
	var dirs []string
	for _, r := range rel {
		p := filepath.Join(root, r)
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			dirs = append(dirs, p)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// DiscoverCompletionDirs returns root and its first-level subdirectories that
// contain completion functions, sorted. Hidden and blocked subdirectories are
// skipped.
func DiscoverCompletionDirs(root string) []string {
	var dirs []string
	if isCompletionDir(root) {
		dirs = append(dirs, root)
	}

	subs, err := os.ReadDir(root)
	if err != nil {
		return dirs
	}
	for _, s := range subs {
		if !s.IsDir() || !IsCandidateDir(s.Name()) {
			continue
		}
		p := filepath.Join(root, s.Name())
		if isCompletionDir(p) {
			dirs = append(dirs, p)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// IsCandidateDir reports whether a subdirectory name may hold completions
func IsCandidateDir(name string) bool {
	return !strings.HasPrefix(name, ".") && !slices.Contains(blockedDirs, name)
}

// HasCompletionFile reports whether any regular file name starts with "_",
// the zsh convention for completion functions
func HasCompletionFile(entries []os.DirEntry) bool {
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), "_") {
			return true
		}
	}
	return false
}

func isCompletionDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return HasCompletionFile(entries)
}

// FormatFpathDirs renders dirs as "", a single path, or "{a, b}"
func FormatFpathDirs(dirs []string) string {
	switch len(dirs) {
	case 0:
		return ""
	case 1:
		return dirs[0]
	default:
		return "{" + strings.Join(dirs, ", ") + "}"
	}
}
