package upgrade

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoang/rz/internal/config"
	rzerrors "github.com/samhoang/rz/internal/errors"
)

func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0755,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// releaseServer serves a latest release for o/rz whose assets are the given
// name -> content pairs, in order
type releaseServer struct {
	*httptest.Server
	downloads atomic.Int32
	authSeen  atomic.Value
}

func newReleaseServer(t *testing.T, tag string, assets []struct{ name, content string }) *releaseServer {
	t.Helper()
	rs := &releaseServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/o/rz/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		rs.authSeen.Store(r.Header.Get("Authorization"))
		if r.Header.Get("Accept") != "application/vnd.github+json" || r.Header.Get("User-Agent") == "" {
			http.Error(w, "bad headers", http.StatusBadRequest)
			return
		}
		rel := Release{TagName: tag}
		for _, a := range assets {
			rel.Assets = append(rel.Assets, Asset{Name: a.name, BrowserDownloadURL: rs.URL + "/download/" + a.name})
		}
		_ = json.NewEncoder(w).Encode(rel)
	})
	for _, a := range assets {
		content := a.content
		mux.HandleFunc("/download/"+a.name, func(w http.ResponseWriter, r *http.Request) {
			rs.downloads.Add(1)
			_, _ = w.Write([]byte(content))
		})
	}

	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)
	return rs
}

func assets(pairs ...string) []struct{ name, content string } {
	var out []struct{ name, content string }
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, struct{ name, content string }{pairs[i], pairs[i+1]})
	}
	return out
}

func newManager(t *testing.T, rs *releaseServer, version string) (*Manager, string) {
	t.Helper()
	target := filepath.Join(t.TempDir(), "bin", "rz")
	return &Manager{
		Client:  NewGitHubClient().WithBaseURL(rs.URL),
		Repo:    "o/rz",
		Version: version,
		Target:  target,
	}, target
}

func TestUpgradeSameVersionSkipsDownload(t *testing.T) {
	name := CandidateAssetNames("v1.2.3")[0]
	rs := newReleaseServer(t, "v1.2.3", assets(name, "new"))
	m, target := newManager(t, rs, "1.2.3")

	res, err := m.Upgrade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unchanged, res.Outcome)
	assert.Equal(t, int32(0), rs.downloads.Load())
	assert.NoFileExists(t, target)
}

func TestUpgradeReplacesFromTarGz(t *testing.T) {
	name := CandidateAssetNames("v2.0.0")[0]
	archive := tarGz(t, map[string]string{"rz-v2.0.0/rz": "binary v2", "rz-v2.0.0/README.md": "docs"})
	rs := newReleaseServer(t, "v2.0.0", assets("unrelated.txt", "nope", name, string(archive)))
	m, target := newManager(t, rs, "1.0.0")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte("binary v1"), 0755))

	res, err := m.Upgrade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Replaced, res.Outcome)
	assert.Equal(t, name, res.Asset)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "binary v2", string(got))
	assert.NoFileExists(t, target+".new")

	fi, err := os.Stat(target)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&0100, "binary should be executable")
}

func TestUpgradeFallsBackToFirstAsset(t *testing.T) {
	archive := zipArchive(t, map[string]string{"dist/rz": "zipped"})
	rs := newReleaseServer(t, "v3.0.0", assets("rz-universal.zip", string(archive), "other.zip", "x"))
	m, target := newManager(t, rs, "2.0.0")

	res, err := m.Upgrade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Replaced, res.Outcome)
	assert.Equal(t, "rz-universal.zip", res.Asset)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "zipped", string(got))
}

func TestUpgradePlainBinaryAsset(t *testing.T) {
	rs := newReleaseServer(t, "v3.1.0", assets("rz", "raw binary"))
	m, target := newManager(t, rs, "3.0.0")

	_, err := m.Upgrade(context.Background())
	require.NoError(t, err)
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "raw binary", string(got))
}

func TestUpgradeArchiveWithoutBinary(t *testing.T) {
	name := CandidateAssetNames("v4.0.0")[0]
	archive := tarGz(t, map[string]string{"README.md": "nothing here"})
	rs := newReleaseServer(t, "v4.0.0", assets(name, string(archive)))
	m, target := newManager(t, rs, "3.0.0")

	_, err := m.Upgrade(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, rzerrors.ErrArchiveFormat)
	assert.NoFileExists(t, target)
}

func TestUpgradeNoAssets(t *testing.T) {
	rs := newReleaseServer(t, "v5.0.0", nil)
	m, _ := newManager(t, rs, "4.0.0")

	_, err := m.Upgrade(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no assets")
}

func TestUpgradeHTTPErrorIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	m := &Manager{Client: NewGitHubClient().WithBaseURL(srv.URL), Repo: "o/rz", Version: "1.0.0",
		Target: filepath.Join(t.TempDir(), "rz")}
	_, err := m.Upgrade(context.Background())
	assert.ErrorIs(t, err, rzerrors.ErrNetwork)
}

func TestGitHubTokenIsSent(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "s3cret")
	rs := newReleaseServer(t, "v1.0.0", nil)
	m, _ := newManager(t, rs, "1.0.0")

	_, err := m.Upgrade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", rs.authSeen.Load())
}

func TestAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "rz")
	src := filepath.Join(dir, "src")

	t.Run("missing destination", func(t *testing.T) {
		require.NoError(t, os.WriteFile(src, []byte("one"), 0644))
		outcome, err := AtomicReplace(src, dst)
		require.NoError(t, err)
		assert.Equal(t, Replaced, outcome)
	})

	t.Run("equal content keeps bytes", func(t *testing.T) {
		before, err := os.ReadFile(dst)
		require.NoError(t, err)

		outcome, err := AtomicReplace(src, dst)
		require.NoError(t, err)
		assert.Equal(t, Unchanged, outcome)

		after, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.NoFileExists(t, dst+".new")
	})

	t.Run("different content replaces", func(t *testing.T) {
		require.NoError(t, os.WriteFile(src, []byte("two"), 0644))
		require.NoError(t, os.WriteFile(dst+".new", []byte("leftover"), 0644))

		outcome, err := AtomicReplace(src, dst)
		require.NoError(t, err)
		assert.Equal(t, Replaced, outcome)

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))
		assert.NoFileExists(t, dst+".new")
	})
}

func TestCandidateAssetNames(t *testing.T) {
	assert.Equal(t, []string{
		"rz-v1.0.0-linux-x86_64.tar.gz",
		"rz-v1.0.0-linux-x86_64.zip",
	}, candidateAssetNames("v1.0.0", "linux", "x86_64"))

	tests := []struct {
		goos, goarch string
		wantOS       string
		wantArch     string
	}{
		{"linux", "amd64", "linux", "x86_64"},
		{"darwin", "arm64", "macos", "aarch64"},
		{"windows", "amd64", "windows", "x86_64"},
	}
	for _, tt := range tests {
		gotOS, gotArch := targetFor(tt.goos, tt.goarch)
		assert.Equal(t, tt.wantOS, gotOS)
		assert.Equal(t, tt.wantArch, gotArch)
	}
}

func TestFileHash(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(p, []byte("abc"), 0644))
	got, err := FileHash(p)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)
}

func TestExtractBinaryMatchesPlatformName(t *testing.T) {
	other := "rz.exe"
	if config.BinaryName() == "rz.exe" {
		other = "rz"
	}

	dir := t.TempDir()
	foreign := filepath.Join(dir, "foreign.tar.gz")
	require.NoError(t, os.WriteFile(foreign, tarGz(t, map[string]string{"dist/" + other: "wrong platform"}), 0644))
	_, err := ExtractBinary(foreign, "rz-foreign.tar.gz", t.TempDir())
	assert.ErrorIs(t, err, rzerrors.ErrArchiveFormat)

	native := filepath.Join(dir, "native.zip")
	files := map[string]string{"dist/" + other: "wrong platform"}
	files["dist/"+config.BinaryName()] = "right platform"
	require.NoError(t, os.WriteFile(native, zipArchive(t, files), 0644))
	got, err := ExtractBinary(native, "rz-native.zip", t.TempDir())
	require.NoError(t, err)
	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "right platform", string(data))
}
