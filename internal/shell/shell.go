// Package shell holds the zsh init script printed by `rz init`.
//
// The script is a static asset. It asks rz for the load order at shell
// startup instead of being generated from config.
package shell

import (
	_ "embed"
	"io"
)

//go:embed init.zsh
var initScript string

// InitScript returns the zsh init script
func InitScript() string {
	return initScript
}

// WriteInit writes the init script to w unchanged
func WriteInit(w io.Writer) error {
	_, err := io.WriteString(w, initScript)
	return err
}
