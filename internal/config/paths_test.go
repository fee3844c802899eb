package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveHomePrefersRzHome(t *testing.T) {
	testDir := t.TempDir()
	t.Setenv("RZ_HOME", testDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(testDir, "xdg"))

	got, err := ResolveHome()
	if err != nil {
		t.Fatalf("ResolveHome() error: %v", err)
	}
	if got != testDir {
		t.Errorf("ResolveHome() = %q, want %q", got, testDir)
	}
}

func TestResolveHomePrefersXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("RZ_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())

	got, err := ResolveHome()
	if err != nil {
		t.Fatalf("ResolveHome() error: %v", err)
	}
	if want := filepath.Join(xdg, ".rz"); got != want {
		t.Errorf("ResolveHome() = %q, want %q", got, want)
	}
}

func TestResolveHomeFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("RZ_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)

	got, err := ResolveHome()
	if err != nil {
		t.Fatalf("ResolveHome() error: %v", err)
	}
	if want := filepath.Join(home, ".rz"); got != want {
		t.Errorf("ResolveHome() = %q, want %q", got, want)
	}
}

func TestPathsUnder(t *testing.T) {
	p := PathsUnder("/home/user/.rz")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"bin", p.Bin, "/home/user/.rz/bin"},
		{"plugins", p.Plugins, "/home/user/.rz/plugins"},
		{"repos", p.Repos, "/home/user/.rz/repos"},
		{"config", p.Config, "/home/user/.rz/config.toml"},
		{"repo dir", p.RepoDir("a__b"), "/home/user/.rz/repos/a__b"},
		{"plugin link", p.PluginLink("b"), "/home/user/.rz/plugins/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestPathsEnsure(t *testing.T) {
	p := PathsUnder(filepath.Join(t.TempDir(), ".rz"))
	if err := p.Ensure(); err != nil {
		t.Fatalf("Ensure() error: %v", err)
	}
	for _, dir := range []string{p.Bin, p.Plugins, p.Repos} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("%s not created", dir)
		}
	}
}

func TestSlugRoundTrip(t *testing.T) {
	tests := []struct {
		repo string
		slug string
	}{
		{"zsh-users/zsh-autosuggestions", "zsh-users__zsh-autosuggestions"},
		{"a/b", "a__b"},
		{" owner/repo ", "owner__repo"},
		{"single", "single"},
	}
	for _, tt := range tests {
		if got := Slug(tt.repo); got != tt.slug {
			t.Errorf("Slug(%q) = %q, want %q", tt.repo, got, tt.slug)
		}
	}
	if got := DisplayFromSlug("zsh-users__zsh-completions"); got != "zsh-users/zsh-completions" {
		t.Errorf("DisplayFromSlug() = %q", got)
	}
}

func TestSlugFromPath(t *testing.T) {
	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"/home/u/.rz/repos/zsh-users__zsh-autosuggestions/zsh-autosuggestions.zsh", "zsh-users__zsh-autosuggestions", true},
		{"/home/u/.rz/repos/a__b", "a__b", true},
		{"/home/u/.rz/repos/a__b/", "a__b", true},
		{"/srv/repos/first/repos/second", "second", true},
		{"/home/u/repos/dots/.rz/repos/a__b/b.zsh", "a__b", true},
		{"/home/u/.rz/repos/a__b/repos/init.zsh", "a__b", true},
		{"/home/u/.rz/repos", "", false},
		{"/home/u/.rz/plugins/a__b", "", false},
		{"relative/repos/x__y/file.zsh", "x__y", true},
	}
	for _, tt := range tests {
		got, ok := SlugFromPath(tt.path)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("SlugFromPath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}
