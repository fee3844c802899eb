package git

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// HeadKind classifies where HEAD of a working copy points
type HeadKind string

const (
	HeadBranch   HeadKind = "branch"
	HeadTag      HeadKind = "tag"
	HeadDetached HeadKind = "detached"
)

// RevInfo describes the checked out revision of a working copy
type RevInfo struct {
	Kind   HeadKind `json:"kind" yaml:"kind"`
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`     // branch or tag name
	Commit string   `json:"commit,omitempty" yaml:"commit,omitempty"` // short commit id
}

// String renders e.g. "branch main@1a2b3c4", "tag v1.0@1a2b3c4", "detached@1a2b3c4"
func (r RevInfo) String() string {
	s := string(r.Kind)
	if r.Name != "" {
		s += " " + r.Name
	}
	if r.Commit != "" {
		s += "@" + r.Commit
	}
	return s
}

var hexRev = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// Info reports the revision of dir. A configured rev that looks like a commit
// id is reported detached; other configured revs are reported as a tag when
// HEAD is detached on that tag, else as a branch. Without a configured rev the
// HEAD ref decides.
func (c *Client) Info(ctx context.Context, dir, rev string) (RevInfo, error) {
	sha, err := c.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return RevInfo{}, err
	}
	info := RevInfo{Commit: ShortSHA(sha)}

	headRef, _ := c.run(ctx, dir, "symbolic-ref", "--quiet", "HEAD")
	rev = strings.TrimSpace(rev)

	switch {
	case rev != "" && hexRev.MatchString(rev):
		info.Kind = HeadDetached
	case rev != "":
		if headRef == "" && c.refExists(ctx, dir, "refs/tags/"+rev) {
			info.Kind, info.Name = HeadTag, rev
		} else {
			info.Kind, info.Name = HeadBranch, rev
		}
	case strings.HasPrefix(headRef, "refs/heads/"):
		info.Kind, info.Name = HeadBranch, strings.TrimPrefix(headRef, "refs/heads/")
	case strings.HasPrefix(headRef, "refs/tags/"):
		info.Kind, info.Name = HeadTag, strings.TrimPrefix(headRef, "refs/tags/")
	default:
		info.Kind = HeadDetached
	}
	return info, nil
}

// UpdateStatus compares HEAD with its remote counterpart
type UpdateStatus struct {
	Ahead  int  `json:"ahead" yaml:"ahead"`
	Behind int  `json:"behind" yaml:"behind"`
	Dirty  bool `json:"dirty" yaml:"dirty"`
}

// UpToDate reports no divergence and a clean tree
func (s UpdateStatus) UpToDate() bool {
	return s.Ahead == 0 && s.Behind == 0 && !s.Dirty
}

func (s UpdateStatus) String() string {
	if s.UpToDate() {
		return "up to date"
	}
	var parts []string
	if s.Behind > 0 {
		parts = append(parts, fmt.Sprintf("%d behind", s.Behind))
	}
	if s.Ahead > 0 {
		parts = append(parts, fmt.Sprintf("%d ahead", s.Ahead))
	}
	if s.Dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, ", ")
}

// UpdateStatus fetches origin and counts commits between HEAD and
// origin/<branch>. An empty branch means the remote default branch.
func (c *Client) UpdateStatus(ctx context.Context, dir, branch string) (UpdateStatus, error) {
	var status UpdateStatus

	if err := c.Fetch(ctx, dir); err != nil {
		return status, err
	}
	if branch == "" {
		b, err := c.DefaultBranch(ctx, dir)
		if err != nil {
			return status, err
		}
		branch = b
	}

	out, err := c.run(ctx, dir, "rev-list", "--left-right", "--count", "HEAD...origin/"+branch)
	if err != nil {
		return status, err
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return status, &Error{Op: "git rev-list", Repo: dir, Err: fmt.Errorf("unexpected output %q", out)}
	}
	if status.Ahead, err = strconv.Atoi(fields[0]); err != nil {
		return status, err
	}
	if status.Behind, err = strconv.Atoi(fields[1]); err != nil {
		return status, err
	}

	status.Dirty, err = c.Dirty(ctx, dir)
	return status, err
}

// Dirty reports whether the working tree has uncommitted changes
func (c *Client) Dirty(ctx context.Context, dir string) (bool, error) {
	out, err := c.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}
