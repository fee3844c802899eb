// Package git drives local working copies with the git command line.
//
// A working copy is owned by rz: local modifications are discarded and every
// checkout is forced.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/samhoang/rz/internal/logging"
)

// Error is returned when a git command fails
type Error struct {
	Op     string // e.g. "git clone"
	Repo   string // url or working copy path
	Output string // trimmed combined output of the command
	Kind   error  // optional sentinel from internal/errors
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Repo, e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Kind}
}

// Client runs git commands
type Client struct {
	binary string
	config []string // extra -c key=value pairs applied to every command
	logger zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBinary overrides the git executable
func WithBinary(path string) Option {
	return func(c *Client) { c.binary = path }
}

// WithConfig adds a -c key=value pair to every git invocation
func WithConfig(kv string) Option {
	return func(c *Client) { c.config = append(c.config, kv) }
}

// New creates a git client
func New(opts ...Option) *Client {
	c := &Client{
		binary: "git",
		logger: logging.Get("git"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether the git executable can be found
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}

func (c *Client) command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	full := make([]string, 0, len(args)+2*len(c.config)+2)
	for _, kv := range c.config {
		full = append(full, "-c", kv)
	}
	if dir != "" {
		full = append(full, "-C", dir)
	}
	full = append(full, args...)

	cmd := exec.CommandContext(ctx, c.binary, full...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
	return cmd
}

// run executes git in dir and returns trimmed stdout
func (c *Client) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := c.command(ctx, dir, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Trace().Str("dir", dir).Strs("args", args).Msg("Executing git")
	if err := cmd.Run(); err != nil {
		return "", &Error{
			Op:     "git " + args[0],
			Repo:   dir,
			Output: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// succeeds reports whether the command exits zero, discarding output
func (c *Client) succeeds(ctx context.Context, dir string, args ...string) bool {
	_, err := c.run(ctx, dir, args...)
	return err == nil
}

// refExists reports whether a fully qualified ref resolves in dir
func (c *Client) refExists(ctx context.Context, dir, ref string) bool {
	return c.succeeds(ctx, dir, "rev-parse", "--verify", "--quiet", ref)
}

// ShortSHA truncates a commit id to seven characters
func ShortSHA(sha string) string {
	sha = strings.TrimSpace(sha)
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
