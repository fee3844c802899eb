// Package symlink manages the entries of the plugin link directory.
//
// Links always store absolute targets so a link can be resolved back to the
// repository checkout it points into.
package symlink

import (
	"os"
	"path/filepath"

	rzerrors "github.com/samhoang/rz/internal/errors"
)

// Manager handles link operations
type Manager struct{}

// New creates a new link manager
func New() *Manager {
	return &Manager{}
}

// Info contains information about a link directory entry
type Info struct {
	Path      string
	Target    string // absolute, unresolved link target
	Exists    bool
	IsSymlink bool
	IsDir     bool // real directory, not a link to one
	IsBroken  bool
}

// Replace points linkPath at target, replacing whatever entry was there.
// Running it twice with the same arguments leaves the same link.
func (m *Manager) Replace(linkPath, target string) error {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return rzerrors.NewPathError(target, "resolve", err)
	}
	if err := os.MkdirAll(filepath.Dir(linkPath), 0755); err != nil {
		return rzerrors.NewPathError(filepath.Dir(linkPath), "mkdir", err)
	}

	// A link can't be renamed over a real directory
	if fi, err := os.Lstat(linkPath); err == nil && fi.IsDir() {
		if err := os.RemoveAll(linkPath); err != nil {
			return rzerrors.NewPathError(linkPath, "remove", err)
		}
	}

	if err := replaceSymlink(linkPath, absTarget); err != nil {
		return rzerrors.NewPathError(linkPath, "symlink", err)
	}
	return nil
}

// Remove deletes a link directory entry without following it.
// Real directories are removed recursively; a missing entry is not an error.
func (m *Manager) Remove(path string) error {
	fi, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return rzerrors.NewPathError(path, "lstat", err)
	}
	if fi.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return rzerrors.NewPathError(path, "remove", err)
	}
	return nil
}

// Info returns information about a path without requiring it to exist
func (m *Manager) Info(path string) (*Info, error) {
	info := &Info{Path: path}

	linfo, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return info, nil
	}
	if err != nil {
		return nil, err
	}

	info.Exists = true
	info.IsSymlink = linfo.Mode()&os.ModeSymlink != 0
	info.IsDir = linfo.IsDir()

	if info.IsSymlink {
		target, err := readTarget(path)
		if err != nil {
			return nil, err
		}
		info.Target = target
		if _, err := os.Stat(path); err != nil {
			info.IsBroken = true
		}
	}

	return info, nil
}

// Validate checks if a link points to the expected target
func (m *Manager) Validate(path, expectedTarget string) (bool, error) {
	info, err := m.Info(path)
	if err != nil {
		return false, err
	}
	if !info.Exists || !info.IsSymlink {
		return false, nil
	}

	absExpected, err := filepath.Abs(expectedTarget)
	if err != nil {
		return false, err
	}
	return Canonical(info.Target) == Canonical(absExpected), nil
}

// Resolve returns the canonical target of a link entry. Non-links resolve to
// their own canonical path; broken links resolve to their absolute target.
func (m *Manager) Resolve(path string) (string, error) {
	linfo, err := os.Lstat(path)
	if err != nil {
		return "", err
	}
	if linfo.Mode()&os.ModeSymlink == 0 {
		return Canonical(path), nil
	}
	target, err := readTarget(path)
	if err != nil {
		return "", err
	}
	return Canonical(target), nil
}

// Canonical resolves every link in path and makes it absolute. When the path
// can't be resolved it is returned absolute but otherwise unchanged.
func Canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// readTarget reads a link and joins relative targets onto the link's directory
func readTarget(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return target, nil
}
