package upgrade

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/samhoang/rz/internal/config"
	rzerrors "github.com/samhoang/rz/internal/errors"
)

// isBinaryEntry reports whether an archive entry's basename is this
// platform's rz executable
func isBinaryEntry(name string) bool {
	return path.Base(strings.ReplaceAll(name, "\\", "/")) == config.BinaryName()
}

// ExtractBinary returns the path of the rz binary contained in the download.
// tar.gz and zip archives are searched for an entry named like this
// platform's rz binary and extracted into dir; any other file is the binary
// itself.
func ExtractBinary(download, assetName, dir string) (string, error) {
	lower := strings.ToLower(assetName)
	switch {
	case strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz"):
		return extractFromTarGz(download, dir)
	case strings.HasSuffix(lower, ".zip"):
		return extractFromZip(download, dir)
	default:
		return download, nil
	}
}

func extractFromTarGz(archive, dir string) (string, error) {
	f, err := os.Open(archive)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("read gzip: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read tar: %w", err)
		}
		if header.Typeflag != tar.TypeReg || !isBinaryEntry(header.Name) {
			continue
		}
		return writeTemp(tr, dir)
	}
	return "", rzerrors.ErrArchiveFormat
}

func extractFromZip(archive, dir string) (string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return "", fmt.Errorf("read zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isBinaryEntry(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		out, err := writeTemp(rc, dir)
		rc.Close()
		return out, err
	}
	return "", rzerrors.ErrArchiveFormat
}

func writeTemp(r io.Reader, dir string) (string, error) {
	f, err := os.CreateTemp(dir, "rz-extract-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// FileHash returns the hex sha256 of a file's content
func FileHash(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
