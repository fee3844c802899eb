package sync

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoang/rz/internal/config"
	rzerrors "github.com/samhoang/rz/internal/errors"
	"github.com/samhoang/rz/internal/progress"
)

// fakeRepo materializes files instead of running git
type fakeRepo struct {
	files map[string][]string // url -> files to create
	fail  map[string]error    // url -> error

	mu       gosync.Mutex
	calls    []string
	running  atomic.Int32
	maxSeen  atomic.Int32
	holdTime time.Duration
}

func (f *fakeRepo) Ensure(ctx context.Context, url, dir, rev string) error {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		max := f.maxSeen.Load()
		if n <= max || f.maxSeen.CompareAndSwap(max, n) {
			break
		}
	}
	time.Sleep(f.holdTime)

	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if err, ok := f.fail[url]; ok {
		return err
	}
	for _, name := range f.files[url] {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(rev), 0644); err != nil {
			return err
		}
	}
	return nil
}

func TestSchedulerIsolatesFailures(t *testing.T) {
	paths := config.PathsUnder(t.TempDir())
	plugins := []config.Plugin{
		{Source: "ok-1", Repo: "a/one"},
		{Source: "broken", Repo: "a/broken"},
		{Source: "ok-2", Repo: "a/two", Type: "fpath"},
		{Source: "nofile", Repo: "a/nofile"},
	}
	jobs, _ := BuildJobs(plugins, paths, nil)

	repo := &fakeRepo{
		files: map[string][]string{
			"ok-1":   {"one.plugin.zsh"},
			"ok-2":   {"_two"},
			"nofile": {"README.md"},
		},
		fail: map[string]error{
			"broken": &rzerrors.PluginError{Plugin: "a/broken", Op: "fetch", Err: rzerrors.ErrNetwork},
		},
	}

	var out bytes.Buffer
	results := NewScheduler(repo, progress.NewLines(&out), 2).Run(context.Background(), jobs)
	require.Len(t, results, 4)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(paths.Repos, "a__one", "one.plugin.zsh"), results[0].Target)

	assert.ErrorIs(t, results[1].Err, rzerrors.ErrNetwork)

	assert.NoError(t, results[2].Err)
	assert.Equal(t, filepath.Join(paths.Repos, "a__two"), results[2].Target)

	assert.ErrorIs(t, results[3].Err, rzerrors.ErrNoSourceFile)

	// Every job ran despite failures
	assert.Len(t, repo.calls, 4)

	for _, name := range []string{"a__one", "a__two"} {
		_, err := os.Lstat(filepath.Join(paths.Plugins, name))
		assert.NoError(t, err, name)
	}
	_, err := os.Lstat(filepath.Join(paths.Plugins, "a__broken"))
	assert.True(t, os.IsNotExist(err))

	assert.Contains(t, out.String(), "synced a/one")
	assert.Contains(t, out.String(), "syncing a/broken")
	assert.Contains(t, out.String(), "(error: ")
}

func TestSchedulerRespectsLimit(t *testing.T) {
	paths := config.PathsUnder(t.TempDir())
	var plugins []config.Plugin
	files := map[string][]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		plugins = append(plugins, config.Plugin{Source: name, Repo: "o/" + name})
		files[name] = []string{name + ".zsh"}
	}
	jobs, _ := BuildJobs(plugins, paths, nil)

	repo := &fakeRepo{files: files, holdTime: 20 * time.Millisecond}
	results := NewScheduler(repo, nil, 3).Run(context.Background(), jobs)

	require.Len(t, results, len(jobs))
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	assert.LessOrEqual(t, repo.maxSeen.Load(), int32(3))
}

func TestSchedulerCancelled(t *testing.T) {
	paths := config.PathsUnder(t.TempDir())
	jobs, _ := BuildJobs([]config.Plugin{{Source: "x", Repo: "o/x"}}, paths, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &fakeRepo{}
	results := NewScheduler(repo, nil, 1).Run(ctx, jobs)
	require.Len(t, results, 1)
	assert.True(t, errors.Is(results[0].Err, context.Canceled))
	assert.Empty(t, repo.calls)
}

func TestSchedulerEnsuresSharedRepoOnce(t *testing.T) {
	paths := config.PathsUnder(t.TempDir())
	jobs, _ := BuildJobs([]config.Plugin{
		{Source: "mono", Repo: "o/mono", Name: "one", File: "one.zsh"},
		{Source: "solo", Repo: "o/solo"},
		{Source: "mono", Repo: "o/mono", Name: "two", File: "two.zsh"},
	}, paths, nil)

	repo := &fakeRepo{
		files:    map[string][]string{"mono": {"one.zsh", "two.zsh"}, "solo": {"solo.zsh"}},
		holdTime: 10 * time.Millisecond,
	}
	results := NewScheduler(repo, nil, 3).Run(context.Background(), jobs)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Err, r.Job.Display)
	}
	assert.ElementsMatch(t, []string{"mono", "solo"}, repo.calls)
	assert.Equal(t, filepath.Join(paths.Repos, "o__mono", "two.zsh"), results[2].Target)
}

func TestSchedulerSharedRepoFailureFailsEveryEntry(t *testing.T) {
	paths := config.PathsUnder(t.TempDir())
	jobs, _ := BuildJobs([]config.Plugin{
		{Source: "mono", Repo: "o/mono", Name: "one"},
		{Source: "mono", Repo: "o/mono", Name: "two", Type: "fpath"},
	}, paths, nil)

	repo := &fakeRepo{fail: map[string]error{"mono": rzerrors.ErrNetwork}}
	results := NewScheduler(repo, nil, 2).Run(context.Background(), jobs)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, rzerrors.ErrNetwork)
		var pe *rzerrors.PluginError
		require.ErrorAs(t, r.Err, &pe)
		assert.Equal(t, r.Job.Display, pe.Plugin)
	}
	assert.Len(t, repo.calls, 1)
}

func TestGroupByRepo(t *testing.T) {
	jobs := []Job{{RepoDir: "a"}, {RepoDir: "b"}, {RepoDir: "a"}, {RepoDir: "c"}, {RepoDir: "b"}}
	assert.Equal(t, [][]int{{0, 2}, {1, 4}, {3}}, groupByRepo(jobs))
}
