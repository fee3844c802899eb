package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrConfig           = errors.New("invalid configuration")
	ErrRevisionNotFound = errors.New("revision not found")
	ErrNoDefaultBranch  = errors.New("could not determine default branch (missing origin/HEAD, origin/main, origin/master)")
	ErrNetwork          = errors.New("network operation failed")
	ErrNoSourceFile     = errors.New("no plugin file matched")
	ErrFilesystem       = errors.New("filesystem operation failed")
	ErrArchiveFormat    = errors.New("archive does not contain rz binary")
)

// PluginError wraps errors with plugin context
type PluginError struct {
	Plugin string
	Op     string
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Plugin, e.Op, e.Err)
}

func (e *PluginError) Unwrap() error {
	return e.Err
}

// NewPluginError creates a new plugin error
func NewPluginError(plugin, op string, err error) *PluginError {
	return &PluginError{Plugin: plugin, Op: op, Err: err}
}

// PathError wraps errors with path context. It always matches ErrFilesystem.
type PathError struct {
	Path string
	Op   string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() []error {
	return []error{e.Err, ErrFilesystem}
}

// NewPathError creates a new path error
func NewPathError(path, op string, err error) *PathError {
	return &PathError{Path: path, Op: op, Err: err}
}

// ConfigError wraps errors raised while loading config.toml
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{e.Err, ErrConfig}
}

// NewConfigError creates a new config error
func NewConfigError(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}
