//go:build !windows

package symlink

import (
	"os"
)

// replaceSymlink creates a link at a temporary name and renames it over path.
// Rename is atomic on POSIX systems, so readers never see path missing.
func replaceSymlink(path, target string) error {
	tmpLink := path + ".rz-tmp"
	os.Remove(tmpLink)

	if err := os.Symlink(target, tmpLink); err != nil {
		return err
	}
	if err := os.Rename(tmpLink, path); err != nil {
		os.Remove(tmpLink)
		return err
	}
	return nil
}
