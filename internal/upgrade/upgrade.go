// Package upgrade replaces the managed rz binary with the latest release.
//
// The pipeline is strictly sequential: fetch release metadata, pick and
// download an asset, extract the binary, swap it in atomically.
package upgrade

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	rzerrors "github.com/samhoang/rz/internal/errors"
	"github.com/samhoang/rz/internal/logging"
	"github.com/samhoang/rz/internal/progress"
)

// Outcome of an upgrade
type Outcome int

const (
	Unchanged Outcome = iota
	Replaced
)

func (o Outcome) String() string {
	if o == Replaced {
		return "replaced"
	}
	return "unchanged"
}

// Result reports what an upgrade did
type Result struct {
	Outcome Outcome
	Tag     string
	Asset   string // empty when nothing was downloaded
}

// Manager upgrades the binary at Target from the releases of Repo
type Manager struct {
	Client  *GitHubClient
	Repo    string // owner/repo publishing releases
	Version string // version of the running binary
	Target  string // path of the managed binary
	Task    progress.Task
}

// Upgrade runs the whole pipeline. Every error is fatal.
func (m *Manager) Upgrade(ctx context.Context) (Result, error) {
	logger := logging.Get("upgrade")
	task := m.Task
	if task == nil {
		task = progress.Discard().Add("upgrade")
	}

	task.Update("resolving latest release…")
	rel, err := m.Client.LatestRelease(ctx, m.Repo)
	if err != nil {
		return Result{}, err
	}
	res := Result{Tag: rel.TagName}

	if rel.Version() == strings.TrimPrefix(m.Version, "v") {
		logger.Info().Str("tag", rel.TagName).Msg("Already at latest release")
		return res, nil
	}

	task.Update("choosing asset for " + rel.TagName)
	asset, err := ChooseAsset(rel, CandidateAssetNames(rel.TagName))
	if err != nil {
		return res, err
	}
	res.Asset = asset.Name

	tmp, err := os.MkdirTemp("", "rz-upgrade-*")
	if err != nil {
		return res, rzerrors.NewPathError(os.TempDir(), "mkdir temp", err)
	}
	defer os.RemoveAll(tmp)

	task.Update("downloading " + asset.Name)
	logger.Debug().Str("url", asset.BrowserDownloadURL).Msg("Downloading release asset")
	download, err := m.Client.Download(ctx, asset, tmp)
	if err != nil {
		return res, err
	}

	task.Update("extracting package…")
	binary, err := ExtractBinary(download, asset.Name, tmp)
	if err != nil {
		return res, &Error{Op: "extract", Source: asset.Name, Err: err}
	}

	task.Update("installing rz…")
	res.Outcome, err = AtomicReplace(binary, m.Target)
	if err != nil {
		return res, err
	}
	logger.Info().Str("tag", rel.TagName).Stringer("outcome", res.Outcome).Msg("Upgrade finished")
	return res, nil
}

// AtomicReplace installs src at dst. The new content is staged at dst.new
// and made executable; when it hashes equal to dst the stage is discarded,
// otherwise it is renamed over dst.
func AtomicReplace(src, dst string) (Outcome, error) {
	staged := dst + ".new"
	os.Remove(staged)

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return Unchanged, rzerrors.NewPathError(filepath.Dir(dst), "mkdir", err)
	}
	if err := copyFile(src, staged); err != nil {
		os.Remove(staged)
		return Unchanged, rzerrors.NewPathError(staged, "copy", err)
	}
	if err := os.Chmod(staged, 0755); err != nil {
		os.Remove(staged)
		return Unchanged, rzerrors.NewPathError(staged, "chmod", err)
	}

	if _, err := os.Stat(dst); err == nil {
		oldHash, _ := FileHash(dst)
		newHash, err := FileHash(staged)
		if err != nil {
			os.Remove(staged)
			return Unchanged, rzerrors.NewPathError(staged, "hash", err)
		}
		if oldHash == newHash {
			os.Remove(staged)
			return Unchanged, nil
		}
		// Windows can't rename over an existing file
		if runtime.GOOS == "windows" {
			if err := os.Remove(dst); err != nil {
				os.Remove(staged)
				return Unchanged, rzerrors.NewPathError(dst, "remove", err)
			}
		}
	}

	if err := os.Rename(staged, dst); err != nil {
		os.Remove(staged)
		return Unchanged, rzerrors.NewPathError(dst, "rename", err)
	}
	return Replaced, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
