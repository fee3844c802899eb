package git

import (
	"context"
	"os"
	"path/filepath"
	"time"

	rzerrors "github.com/samhoang/rz/internal/errors"
	"github.com/samhoang/rz/internal/logging"
)

// fetchRefspecs mirrors every remote branch and tag into tracking refs
var fetchRefspecs = []string{
	"+refs/heads/*:refs/remotes/origin/*",
	"+refs/tags/*:refs/tags/*",
}

// Ensure makes dir a working copy of url at rev.
//
//   - no checkout at dir: clone url
//   - always fetch branches and tags from origin
//   - rev set: check it out (branch attached, tag or commit detached)
//   - rev empty: attach to the remote default branch
//   - initialize and update submodules recursively
func (c *Client) Ensure(ctx context.Context, url, dir, rev string) error {
	start := time.Now()
	logger := c.logger.With().Str("repo", dir).Str("rev", rev).Logger()
	defer logging.LogDuration(logger, start, "ensure")

	if !IsRepo(dir) {
		logger.Debug().Str("url", url).Msg("Cloning")
		if err := c.Clone(ctx, url, dir); err != nil {
			return err
		}
	}

	if err := c.Fetch(ctx, dir); err != nil {
		return err
	}

	if rev != "" {
		if _, err := c.CheckoutRev(ctx, dir, rev); err != nil {
			return err
		}
	} else if err := c.AttachDefaultBranch(ctx, dir); err != nil {
		return err
	}

	return c.UpdateSubmodules(ctx, dir)
}

// IsRepo reports whether dir holds a git checkout
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Clone clones url into dir
func (c *Client) Clone(ctx context.Context, url, dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return rzerrors.NewPathError(filepath.Dir(dir), "mkdir", err)
	}
	if _, err := c.run(ctx, "", "clone", "--quiet", url, dir); err != nil {
		return networkError(err, "git clone", url)
	}
	return nil
}

// Fetch updates remote tracking branches and tags from origin
func (c *Client) Fetch(ctx context.Context, dir string) error {
	args := append([]string{"fetch", "--quiet", "--force", "origin"}, fetchRefspecs...)
	if _, err := c.run(ctx, dir, args...); err != nil {
		return networkError(err, "git fetch", dir)
	}
	return nil
}

// UpdateSubmodules initializes and updates nested repositories at their
// pinned commits
func (c *Client) UpdateSubmodules(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".gitmodules")); err != nil {
		return nil
	}
	if _, err := c.run(ctx, dir, "submodule", "sync", "--recursive"); err != nil {
		return err
	}
	if _, err := c.run(ctx, dir, "submodule", "update", "--init", "--recursive", "--force"); err != nil {
		return networkError(err, "git submodule update", dir)
	}
	return nil
}

func networkError(err error, op, repo string) error {
	if gerr, ok := err.(*Error); ok {
		gerr.Op = op
		gerr.Repo = repo
		gerr.Kind = rzerrors.ErrNetwork
		return gerr
	}
	return &Error{Op: op, Repo: repo, Kind: rzerrors.ErrNetwork, Err: err}
}
