//go:build windows

package symlink

import (
	"os"
)

// replaceSymlink removes and recreates the link on Windows, which can't
// rename over an existing link.
// Note: may require elevated privileges or Developer Mode.
func replaceSymlink(path, target string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(target, path)
}
