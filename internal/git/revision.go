package git

import (
	"context"
	"fmt"
	"strings"

	rzerrors "github.com/samhoang/rz/internal/errors"
)

// RevKind is how a configured revision string was interpreted
type RevKind int

const (
	RevLocalBranch RevKind = iota
	RevRemoteBranch
	RevTag
	RevCommit
)

func (k RevKind) String() string {
	switch k {
	case RevLocalBranch:
		return "local branch"
	case RevRemoteBranch:
		return "remote branch"
	case RevTag:
		return "tag"
	case RevCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// revResolver checks out rev if it can be read as its kind.
// ok is false when rev is not of that kind.
type revResolver struct {
	kind    RevKind
	resolve func(c *Client, ctx context.Context, dir, rev string) (ok bool, err error)
}

// revChain is tried in order; the first resolver that matches wins
var revChain = []revResolver{
	{RevLocalBranch, (*Client).checkoutLocalBranch},
	{RevRemoteBranch, (*Client).checkoutRemoteBranch},
	{RevTag, (*Client).checkoutTag},
	{RevCommit, (*Client).checkoutCommit},
}

// CheckoutRev checks out rev in dir and returns how it was interpreted.
// Branches end attached, tags and commits end detached.
func (c *Client) CheckoutRev(ctx context.Context, dir, rev string) (RevKind, error) {
	rev = strings.TrimSpace(rev)
	for _, r := range revChain {
		ok, err := r.resolve(c, ctx, dir, rev)
		if err != nil {
			return r.kind, err
		}
		if ok {
			c.logger.Debug().Str("repo", dir).Str("rev", rev).Stringer("kind", r.kind).Msg("Checked out revision")
			return r.kind, nil
		}
	}
	return RevCommit, &Error{Op: "git checkout", Repo: dir, Kind: rzerrors.ErrRevisionNotFound,
		Err: fmt.Errorf("rev not found: %s", rev)}
}

// checkoutLocalBranch attaches HEAD to refs/heads/<rev>. When the branch
// tracks an upstream it is fast-forwarded first so fetched commits apply.
func (c *Client) checkoutLocalBranch(ctx context.Context, dir, rev string) (bool, error) {
	ref := "refs/heads/" + rev
	if !c.refExists(ctx, dir, ref) {
		return false, nil
	}

	if upstream, err := c.run(ctx, dir, "rev-parse", "--verify", "--quiet", ref+"@{upstream}"); err == nil && upstream != "" {
		local, err := c.run(ctx, dir, "rev-parse", ref)
		if err != nil {
			return true, err
		}
		if local != upstream && c.succeeds(ctx, dir, "merge-base", "--is-ancestor", local, upstream) {
			if _, err := c.run(ctx, dir, "update-ref", ref, upstream, local); err != nil {
				return true, err
			}
		}
	}

	_, err := c.run(ctx, dir, "checkout", "--quiet", "--force", rev)
	return true, err
}

// checkoutRemoteBranch creates or resets a local branch tracking origin/<rev>
// at the remote tip and attaches HEAD to it
func (c *Client) checkoutRemoteBranch(ctx context.Context, dir, rev string) (bool, error) {
	if !c.refExists(ctx, dir, "refs/remotes/origin/"+rev) {
		return false, nil
	}
	return true, c.attachTracking(ctx, dir, rev)
}

// checkoutTag peels refs/tags/<rev> to its commit and detaches HEAD there
func (c *Client) checkoutTag(ctx context.Context, dir, rev string) (bool, error) {
	if !c.refExists(ctx, dir, "refs/tags/"+rev) {
		return false, nil
	}
	sha, err := c.run(ctx, dir, "rev-parse", "--verify", "refs/tags/"+rev+"^{commit}")
	if err != nil {
		return true, fmt.Errorf("tag didn't peel to a commit: %w", err)
	}
	return true, c.detach(ctx, dir, sha)
}

// checkoutCommit treats rev as a commit id or revspec and detaches HEAD there
func (c *Client) checkoutCommit(ctx context.Context, dir, rev string) (bool, error) {
	if rev == "" || strings.HasPrefix(rev, "-") {
		return false, nil
	}
	sha, err := c.run(ctx, dir, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil || sha == "" {
		return false, nil
	}
	return true, c.detach(ctx, dir, sha)
}

func (c *Client) detach(ctx context.Context, dir, sha string) error {
	_, err := c.run(ctx, dir, "checkout", "--quiet", "--force", "--detach", sha)
	return err
}

// attachTracking points local branch at origin/<branch>, sets its upstream,
// attaches HEAD and force-checks out the tree
func (c *Client) attachTracking(ctx context.Context, dir, branch string) error {
	_, err := c.run(ctx, dir, "checkout", "--quiet", "--force", "-B", branch, "--track", "origin/"+branch)
	return err
}

// DefaultBranch returns the remote's default branch name: the target of
// origin/HEAD, else main, else master
func (c *Client) DefaultBranch(ctx context.Context, dir string) (string, error) {
	const prefix = "refs/remotes/origin/"

	if target, err := c.run(ctx, dir, "symbolic-ref", "--quiet", prefix+"HEAD"); err == nil && target != "" {
		name, ok := strings.CutPrefix(target, prefix)
		if !ok {
			return "", &Error{Op: "git symbolic-ref", Repo: dir, Err: fmt.Errorf("unexpected remote ref: %s", target)}
		}
		if c.refExists(ctx, dir, target) {
			return name, nil
		}
	}

	for _, name := range []string{"main", "master"} {
		if c.refExists(ctx, dir, prefix+name) {
			return name, nil
		}
	}
	return "", &Error{Op: "git symbolic-ref", Repo: dir, Kind: rzerrors.ErrNoDefaultBranch, Err: rzerrors.ErrNoDefaultBranch}
}

// AttachDefaultBranch attaches HEAD to the remote default branch and
// hard-resets it to the remote tip
func (c *Client) AttachDefaultBranch(ctx context.Context, dir string) error {
	branch, err := c.DefaultBranch(ctx, dir)
	if err != nil {
		return err
	}
	return c.attachTracking(ctx, dir, branch)
}
