package sync

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoang/rz/internal/progress"
)

func set(items ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, i := range items {
		s[i] = struct{}{}
	}
	return s
}

func TestStaleLinks(t *testing.T) {
	got := StaleLinks([]string{"c", "a", "keep", "b"}, set("keep"))
	assert.Equal(t, []string{"a", "b", "c"}, got)

	assert.Empty(t, StaleLinks([]string{"keep"}, set("keep", "missing")))
	assert.Empty(t, StaleLinks(nil, set()))
}

func TestStaleRepos(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		expected map[string]struct{}
		inUse    map[string]struct{}
		want     []string
	}{
		{"expected kept", []string{"a__b"}, set("a__b"), set(), nil},
		{"referenced kept", []string{"a__b"}, set(), set("a__b"), nil},
		{"unreferenced removed", []string{"x__y", "a__b"}, set("a__b"), set(), []string{"x__y"}},
		{"sorted", []string{"z__z", "m__m", "a__a"}, set(), set(), []string{"a__a", "m__m", "z__z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StaleRepos(tt.ids, tt.expected, tt.inUse))
		})
	}
}

// layout builds repos/ and plugins/ under a resolved temp dir
func layout(t *testing.T) (repos, plugins string) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	repos = filepath.Join(root, "repos")
	plugins = filepath.Join(root, "plugins")
	require.NoError(t, os.MkdirAll(repos, 0755))
	require.NoError(t, os.MkdirAll(plugins, 0755))
	return repos, plugins
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestCleanupLinks(t *testing.T) {
	repos, plugins := layout(t)
	writeFiles(t, filepath.Join(repos, "a__b"), "b.plugin.zsh")

	require.NoError(t, os.Symlink(filepath.Join(repos, "a__b", "b.plugin.zsh"), filepath.Join(plugins, "a__b")))
	require.NoError(t, os.Symlink(filepath.Join(repos, "gone"), filepath.Join(plugins, "broken")))
	require.NoError(t, os.WriteFile(filepath.Join(plugins, "stray-file"), nil, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(plugins, "stray-dir", "nested"), 0755))

	removals := CleanupLinks(plugins, set("a__b"), progress.Discard())

	require.Len(t, removals, 3)
	for _, r := range removals {
		assert.NoError(t, r.Err, r.Name)
		assert.Equal(t, RemovedLink, r.Kind)
	}
	assert.Equal(t, []string{"a__b"}, listDir(t, plugins))
	// The link target survives
	assert.FileExists(t, filepath.Join(repos, "a__b", "b.plugin.zsh"))
}

func TestCleanupLinksMissingDir(t *testing.T) {
	assert.Empty(t, CleanupLinks(filepath.Join(t.TempDir(), "nope"), set(), progress.Discard()))
}

func TestCleanupRepos(t *testing.T) {
	repos, plugins := layout(t)
	writeFiles(t, filepath.Join(repos, "a__b"), "b.plugin.zsh")
	writeFiles(t, filepath.Join(repos, "kept__by-link"), "k.zsh")
	writeFiles(t, filepath.Join(repos, "stale__repo"), "s.zsh", "deep/nested/file")

	// A surviving link under a custom name still pins its repository
	require.NoError(t, os.Symlink(filepath.Join(repos, "kept__by-link", "k.zsh"), filepath.Join(plugins, "custom")))

	removals := CleanupRepos(repos, set("a__b"), plugins, progress.Discard())

	require.Len(t, removals, 1)
	assert.Equal(t, "stale__repo", removals[0].Name)
	assert.Equal(t, RemovedRepo, removals[0].Kind)
	assert.NoError(t, removals[0].Err)
	assert.Equal(t, []string{"a__b", "kept__by-link"}, listDir(t, repos))
}

func TestCleanupReposResolvesAliasedLinks(t *testing.T) {
	repos, plugins := layout(t)
	writeFiles(t, filepath.Join(repos, "x__y"), "y.zsh")

	// Link through an alias whose path has no repos component
	alias := filepath.Join(filepath.Dir(repos), "alias")
	require.NoError(t, os.Symlink(filepath.Join(repos, "x__y"), alias))
	require.NoError(t, os.Symlink(filepath.Join(alias, "y.zsh"), filepath.Join(plugins, "y")))

	removals := CleanupRepos(repos, set(), plugins, progress.Discard())
	assert.Empty(t, removals)
	assert.Equal(t, []string{"x__y"}, listDir(t, repos))
}

func TestReconcilerInvariant(t *testing.T) {
	repos, plugins := layout(t)
	for _, id := range []string{"a__a", "b__b", "c__c", "d__d"} {
		writeFiles(t, filepath.Join(repos, id), "p.zsh")
	}
	for _, name := range []string{"a__a", "c__c", "orphan"} {
		require.NoError(t, os.Symlink(filepath.Join(repos, name, "p.zsh"), filepath.Join(plugins, name)))
	}

	expectedLinks := set("a__a", "c__c")
	expectedRepos := set("a__a")

	CleanupLinks(plugins, expectedLinks, progress.Discard())
	CleanupRepos(repos, expectedRepos, plugins, progress.Discard())

	// Links on disk are exactly the expected names
	assert.Equal(t, []string{"a__a", "c__c"}, listDir(t, plugins))

	// Repos on disk are a subset of expected plus still referenced
	allowed := set("a__a", "c__c")
	for _, id := range listDir(t, repos) {
		assert.Contains(t, allowed, id)
	}
	assert.NotContains(t, listDir(t, repos), "b__b")
	assert.NotContains(t, listDir(t, repos), "d__d")
}

func TestEntryNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.zsh"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "b__c"), 0755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "broken")))

	assert.ElementsMatch(t, []string{"a.zsh", "b__c", "broken"}, EntryNames(dir))
	assert.Empty(t, EntryNames(filepath.Join(dir, "missing")))
}
