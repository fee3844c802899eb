package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DirName is the directory appended to the base config location
const DirName = ".rz"

// SlugSeparator joins owner and name in repository identifiers
const SlugSeparator = "__"

// Paths holds all resolved paths for rz operations
type Paths struct {
	Home    string // ~/.rz (or $XDG_CONFIG_HOME/.rz)
	Bin     string // ~/.rz/bin
	Plugins string // ~/.rz/plugins
	Repos   string // ~/.rz/repos
	Config  string // ~/.rz/config.toml
}

// ResolvePaths resolves all paths based on environment and defaults
func ResolvePaths() (*Paths, error) {
	home, err := ResolveHome()
	if err != nil {
		return nil, err
	}
	return PathsUnder(home), nil
}

// ResolveHome returns the rz home directory.
//
// Resolution order:
//  1. $RZ_HOME
//  2. $XDG_CONFIG_HOME/.rz
//  3. $HOME/.rz
func ResolveHome() (string, error) {
	if dir := os.Getenv("RZ_HOME"); dir != "" {
		return dir, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, DirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName), nil
}

// PathsUnder builds the standard layout below home
func PathsUnder(home string) *Paths {
	return &Paths{
		Home:    home,
		Bin:     filepath.Join(home, "bin"),
		Plugins: filepath.Join(home, "plugins"),
		Repos:   filepath.Join(home, "repos"),
		Config:  filepath.Join(home, "config.toml"),
	}
}

// Ensure creates bin/, plugins/, repos/ and the config parent directory
func (p *Paths) Ensure() error {
	for _, dir := range []string{p.Bin, p.Plugins, p.Repos, filepath.Dir(p.Config)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// RepoDir returns the checkout directory for a repository slug
func (p *Paths) RepoDir(slug string) string {
	return filepath.Join(p.Repos, slug)
}

// PluginLink returns the link path for a plugin name
func (p *Paths) PluginLink(name string) string {
	return filepath.Join(p.Plugins, name)
}

// BinaryName is the executable name of rz on this platform
func BinaryName() string {
	if runtime.GOOS == "windows" {
		return "rz.exe"
	}
	return "rz"
}

// BinaryPath returns the path of the managed rz binary
func (p *Paths) BinaryPath() string {
	return filepath.Join(p.Bin, BinaryName())
}

// Slug converts an owner/repo reference to its directory identifier
func Slug(repo string) string {
	return strings.ReplaceAll(strings.TrimSpace(repo), "/", SlugSeparator)
}

// DisplayFromSlug converts a directory identifier back to owner/repo
func DisplayFromSlug(slug string) string {
	return strings.ReplaceAll(slug, SlugSeparator, "/")
}

// SlugFromPath returns the path segment following the last "repos"
// component of a canonical path, e.g. ~/.rz/repos/a__b/b.zsh -> a__b.
// A segment holding SlugSeparator is preferred so files under a repos/
// directory inside a checkout still map to their checkout.
func SlugFromPath(path string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	slug := ""
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] != "repos" || parts[i+1] == "" {
			continue
		}
		if strings.Contains(parts[i+1], SlugSeparator) {
			return parts[i+1], true
		}
		if slug == "" {
			slug = parts[i+1]
		}
	}
	return slug, slug != ""
}
