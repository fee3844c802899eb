package upgrade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"

	rzerrors "github.com/samhoang/rz/internal/errors"
)

const githubAPIBase = "https://api.github.com"

// Error represents an upgrade step failure
type Error struct {
	Op     string
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Release is the subset of the GitHub release document rz reads
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Version returns the tag without a leading "v"
func (r *Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// Asset is a downloadable release file
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// GitHubClient fetches release metadata and assets
type GitHubClient struct {
	baseURL   string
	client    *http.Client
	token     string
	userAgent string
}

// NewGitHubClient creates a client for api.github.com. GITHUB_TOKEN, when
// set, is sent as a bearer token.
func NewGitHubClient() *GitHubClient {
	return &GitHubClient{
		baseURL:   githubAPIBase,
		client:    http.DefaultClient,
		token:     os.Getenv("GITHUB_TOKEN"),
		userAgent: "rz-upgrader",
	}
}

// WithBaseURL points the client at another API root, e.g. a test server
func (c *GitHubClient) WithBaseURL(u string) *GitHubClient {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

func (c *GitHubClient) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rzerrors.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", rzerrors.ErrNetwork, resp.StatusCode)
	}
	return resp, nil
}

// LatestRelease fetches the latest release of owner/repo
func (c *GitHubClient) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	u := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, repo)

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, &Error{Op: "fetch latest release", Source: repo, Err: err}
	}
	defer resp.Body.Close()

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, &Error{Op: "decode release", Source: repo, Err: err}
	}
	return &rel, nil
}

// Download writes the asset to a new temporary file under dir and returns its path
func (c *GitHubClient) Download(ctx context.Context, asset Asset, dir string) (string, error) {
	resp, err := c.get(ctx, asset.BrowserDownloadURL)
	if err != nil {
		return "", &Error{Op: "download", Source: asset.BrowserDownloadURL, Err: err}
	}
	defer resp.Body.Close()

	f, err := os.CreateTemp(dir, "rz-download-*-"+sanitize(asset.Name))
	if err != nil {
		return "", &Error{Op: "download", Source: asset.BrowserDownloadURL, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", &Error{Op: "download", Source: asset.BrowserDownloadURL,
			Err: fmt.Errorf("%w: %v", rzerrors.ErrNetwork, err)}
	}
	return f.Name(), nil
}

func sanitize(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "*", "_").Replace(name)
}

// Target returns the release naming of the running platform
func Target() (goos, arch string) {
	return targetFor(runtime.GOOS, runtime.GOARCH)
}

func targetFor(goos, goarch string) (string, string) {
	platform := goos
	if goos == "darwin" {
		platform = "macos"
	}
	arch := goarch
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	}
	return platform, arch
}

// CandidateAssetNames lists the asset names built for this platform, in
// preference order
func CandidateAssetNames(tag string) []string {
	goos, arch := Target()
	return candidateAssetNames(tag, goos, arch)
}

func candidateAssetNames(tag, goos, arch string) []string {
	base := fmt.Sprintf("rz-%s-%s-%s", tag, goos, arch)
	return []string{base + ".tar.gz", base + ".zip"}
}

// ChooseAsset picks the first asset matching a candidate name, else the
// first asset of the release
func ChooseAsset(rel *Release, candidates []string) (Asset, error) {
	for _, want := range candidates {
		for _, a := range rel.Assets {
			if a.Name == want {
				return a, nil
			}
		}
	}
	if len(rel.Assets) == 0 {
		return Asset{}, &Error{Op: "choose asset", Source: rel.TagName, Err: fmt.Errorf("no assets in latest release")}
	}
	return rel.Assets[0], nil
}
