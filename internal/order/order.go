// Package order computes the plugin load order from the link directory.
//
// Plugins load in display order, except a few that must come last because
// they wrap widgets installed by the others.
package order

import (
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/samhoang/rz/internal/config"
	"github.com/samhoang/rz/internal/symlink"
)

// TailSlugs load last, in this order
var TailSlugs = []string{
	"zsh-users__zsh-autosuggestions",
	"zsh-users__zsh-syntax-highlighting",
}

// Entry is a plugin found in the link directory
type Entry struct {
	Name    string `json:"name" yaml:"name"` // link directory entry name
	Slug    string `json:"slug,omitempty" yaml:"slug,omitempty"`
	Display string `json:"display" yaml:"display"`
	Target  string `json:"target" yaml:"target"` // canonical target
}

// Collect scans dir and splits its entries into normal and tail groups.
// Entries whose target has no repository identifier are normal and display
// their entry name. A missing directory yields no entries.
func Collect(dir string, tail []string) (normal, tailed []Entry, err error) {
	des, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	links := symlink.New()
	for _, de := range des {
		path := filepath.Join(dir, de.Name())
		target, err := links.Resolve(path)
		if err != nil {
			continue
		}
		e := newEntry(de.Name(), target)
		if e.Slug != "" && slices.Contains(tail, e.Slug) {
			tailed = append(tailed, e)
		} else {
			normal = append(normal, e)
		}
	}
	return normal, tailed, nil
}

func newEntry(name, target string) Entry {
	e := Entry{Name: name, Target: target, Display: name}
	if slug, ok := config.SlugFromPath(target); ok {
		e.Slug = slug
		e.Display = config.DisplayFromSlug(slug)
	}
	return e
}

// Sort returns normal entries by display name followed by tail entries in
// the order of tail
func Sort(normal, tailed []Entry, tail []string) []Entry {
	ordered := append([]Entry(nil), normal...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Display < ordered[j].Display
	})
	for _, slug := range tail {
		for _, e := range tailed {
			if e.Slug == slug {
				ordered = append(ordered, e)
			}
		}
	}
	return ordered
}

// Resolve returns the load order of the link directory
func Resolve(dir string) ([]Entry, error) {
	normal, tailed, err := Collect(dir, TailSlugs)
	if err != nil {
		return nil, err
	}
	return Sort(normal, tailed, TailSlugs), nil
}
