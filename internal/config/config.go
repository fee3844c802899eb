package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"

	rzerrors "github.com/samhoang/rz/internal/errors"
)

// DefaultGitHubRepo is where rz releases are published
const DefaultGitHubRepo = "gotokazuki/rat-zsh"

// envPrefix scopes environment overrides, e.g. RZ_SETTINGS_JOBS=4
const envPrefix = "RZ_"

// Config represents config.toml
//
// Example:
//
//	[[plugins]]
//	source = "github"
//	repo   = "zsh-users/zsh-autosuggestions"
//	type   = "source"
//	file   = "zsh-autosuggestions.zsh"
type Config struct {
	Settings Settings `toml:"settings"`
	Plugins  []Plugin `toml:"plugins"`
}

// Settings tunes rz itself
type Settings struct {
	// Jobs bounds parallel sync jobs; 0 uses the number of CPUs
	Jobs int `toml:"jobs"`

	// GitHubRepo is the owner/repo that publishes rz releases
	GitHubRepo string `toml:"github_repo"`

	// Editor is used by `rz config edit` when $EDITOR is unset
	Editor string `toml:"editor"`
}

// Plugin is a single [[plugins]] entry. All fields but Repo are optional;
// an empty string means the field was not declared.
type Plugin struct {
	Source    string   `toml:"source,omitempty"`
	Repo      string   `toml:"repo"`
	Rev       string   `toml:"rev,omitempty"`
	File      string   `toml:"file,omitempty"`
	Type      string   `toml:"type,omitempty"`
	Name      string   `toml:"name,omitempty"`
	FpathDirs []string `toml:"fpath_dirs,omitempty"`
	Requires  []string `toml:"requires,omitempty"`
}

// Role classifies how a plugin is exposed
type Role string

const (
	RoleSource Role = "source"
	RoleFpath  Role = "fpath"
)

// Role returns the plugin's role; anything but "fpath" is sourced
func (p Plugin) Role() Role {
	if p.Type == string(RoleFpath) {
		return RoleFpath
	}
	return RoleSource
}

// SourceName returns the declared source kind, defaulting to github
func (p Plugin) SourceName() string {
	if p.Source == "" {
		return "github"
	}
	return p.Source
}

// Slug returns the repository identifier of the plugin
func (p Plugin) Slug() string {
	return Slug(p.Repo)
}

// LinkName returns the declared name or the repository identifier
func (p Plugin) LinkName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Slug()
}

// DisplayName returns the declared name or owner/repo
func (p Plugin) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Repo
}

// URL returns the clone URL; github shorthand expands to https
func (p Plugin) URL() string {
	switch p.Source {
	case "", "github":
		return fmt.Sprintf("https://github.com/%s.git", strings.TrimSpace(p.Repo))
	default:
		return p.Source
	}
}

// DefaultSettings returns settings applied before config.toml is read
func DefaultSettings() Settings {
	return Settings{
		Jobs:       0,
		GitHubRepo: DefaultGitHubRepo,
		Editor:     "vim",
	}
}

// Load reads config.toml layered over defaults and RZ_* environment overrides.
// A missing or malformed file is a ConfigError.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, rzerrors.NewConfigError(path, fmt.Errorf("config not found: %w", err))
	}

	k := koanf.New(".")

	defaults := DefaultSettings()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"settings.jobs":        defaults.Jobs,
		"settings.github_repo": defaults.GitHubRepo,
		"settings.editor":      defaults.Editor,
	}, "."), nil); err != nil {
		return nil, rzerrors.NewConfigError(path, err)
	}

	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, rzerrors.NewConfigError(path, fmt.Errorf("failed to parse config.toml: %w", err))
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, rzerrors.NewConfigError(path, fmt.Errorf("failed to load env vars: %w", err))
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "toml",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			TagName:          "toml",
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, rzerrors.NewConfigError(path, fmt.Errorf("failed to unmarshal configuration: %w", err))
	}

	return &cfg, nil
}

// envKey maps RZ_SETTINGS_GITHUB_REPO to settings.github_repo.
// Variables outside the settings table are ignored.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok || section != "settings" || field == "" {
		return ""
	}
	return section + "." + field
}

// Save writes the config as TOML
func (c *Config) Save(path string) error {
	data, err := gotoml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Starter returns the config written by `rz config init`
func Starter() *Config {
	return &Config{
		Settings: DefaultSettings(),
		Plugins: []Plugin{
			{Source: "github", Repo: "zsh-users/zsh-completions", Type: "fpath"},
			{Source: "github", Repo: "zsh-users/zsh-autosuggestions", Type: "source"},
			{Source: "github", Repo: "zsh-users/zsh-syntax-highlighting", Type: "source"},
		},
	}
}
