package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samhoang/rz/internal/config"
	"github.com/samhoang/rz/internal/git"
	"github.com/samhoang/rz/internal/logging"
	"github.com/samhoang/rz/internal/order"
)

var (
	listCheckUpdate bool
	listOutput      string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show plugins in load order",
	Long: `Show installed plugins in their effective load order, split into the
sourced plugins and the ones that only extend fpath.

Metadata (source, type, rev) comes from config.toml; order and presence come
from the plugins/ directory. With --check-update each checkout is fetched and
compared with its remote branch:

  ↓N/↑M   commits behind/ahead of origin
  *       uncommitted changes
  ?       remote state unknown`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listCheckUpdate, "check-update", false, "Fetch and compare each plugin with its remote")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.AddCommand(listCmd)
}

// listItem is one plugin of `rz list`
type listItem struct {
	Name   string       `json:"name" yaml:"name"`
	Link   string       `json:"link" yaml:"link"`
	Source string       `json:"source,omitempty" yaml:"source,omitempty"` // empty when not declared in config.toml
	Type   config.Role  `json:"type,omitempty" yaml:"type,omitempty"`
	Rev    *git.RevInfo `json:"rev,omitempty" yaml:"rev,omitempty"`
	Fpath  []string     `json:"fpath_dirs,omitempty" yaml:"fpath_dirs,omitempty"`
	Check  *updateCheck `json:"update,omitempty" yaml:"update,omitempty"`
}

type updateCheck struct {
	git.UpdateStatus `yaml:",inline"`
	Tracking         bool `json:"tracking" yaml:"tracking"` // compared with a remote branch
	Unknown          bool `json:"unknown,omitempty" yaml:"unknown,omitempty"`
}

func (i listItem) managed() bool {
	return i.Source != ""
}

func runList(cmd *cobra.Command, args []string) error {
	switch listOutput {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", listOutput)
	}

	paths, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	items, err := collectList(cmd.Context(), git.New(), paths, cfg, listCheckUpdate)
	if err != nil {
		return err
	}

	switch listOutput {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(items)
	default:
		return renderListText(os.Stdout, items)
	}
}

// collectList joins the load order of the plugins directory with the
// metadata of config.toml
func collectList(ctx context.Context, client *git.Client, paths *config.Paths, cfg *config.Config, checkUpdate bool) ([]listItem, error) {
	logger := logging.Get("list")

	meta := make(map[string]config.Plugin, len(cfg.Plugins))
	for _, pl := range cfg.Plugins {
		meta[pl.Slug()] = pl
	}

	entries, err := order.Resolve(paths.Plugins)
	if err != nil {
		return nil, err
	}

	items := make([]listItem, 0, len(entries))
	for _, e := range entries {
		item := listItem{Name: e.Display, Link: e.Name}
		pl, ok := meta[e.Slug]
		if e.Slug == "" || !ok {
			items = append(items, item)
			continue
		}

		item.Name = pl.DisplayName()
		item.Source = pl.SourceName()
		item.Type = pl.Role()

		repoDir := paths.RepoDir(e.Slug)
		if info, err := client.Info(ctx, repoDir, pl.Rev); err == nil {
			item.Rev = &info
		} else if pl.Rev != "" {
			item.Rev = &git.RevInfo{Kind: git.HeadBranch, Name: pl.Rev}
		}

		if item.Type == config.RoleFpath {
			dirs, err := order.FpathDirs(paths.Plugins, e.Slug, pl.FpathDirs)
			if err != nil {
				return nil, err
			}
			item.Fpath = dirs
		}

		if checkUpdate && item.Rev != nil {
			item.Check = checkForUpdate(ctx, client, repoDir, *item.Rev)
			if item.Check.Unknown {
				logger.Debug().Str("plugin", item.Name).Msg("Remote state unknown")
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func checkForUpdate(ctx context.Context, client *git.Client, repoDir string, rev git.RevInfo) *updateCheck {
	check := &updateCheck{}
	if rev.Kind == git.HeadBranch {
		check.Tracking = true
		st, err := client.UpdateStatus(ctx, repoDir, rev.Name)
		if err == nil {
			check.UpdateStatus = st
			return check
		}
		check.Unknown = true
	}
	check.Dirty, _ = client.Dirty(ctx, repoDir)
	return check
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	nameStyle    = lipgloss.NewStyle().Bold(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	branchStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	behindStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
)

// renderListText prints the sourced plugins, then the fpath plugins
func renderListText(w io.Writer, items []listItem) error {
	var b strings.Builder

	b.WriteString(headingStyle.Render("Source order") + "\n")
	for _, item := range items {
		if item.Type == config.RoleFpath {
			continue
		}
		if !item.managed() {
			b.WriteString("- " + item.Name + "\n")
			continue
		}
		b.WriteString(listLine(item, faintStyle.Render("["+string(config.RoleSource)+"]")))
	}

	b.WriteString("\n" + headingStyle.Render("fpath") + "\n")
	for _, item := range items {
		if item.Type != config.RoleFpath {
			continue
		}
		var dirs string
		if d := order.FormatFpathDirs(item.Fpath); d != "" {
			dirs = faintStyle.Render("[fpath: " + d + "]")
		}
		b.WriteString(listLine(item, dirs))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func listLine(item listItem, label string) string {
	parts := []string{
		faintStyle.Render("-"),
		nameStyle.Render(item.Name),
		"(" + sourceStyle.Render(item.Source) + ")",
	}
	if label != "" {
		parts = append(parts, label)
	}
	if item.Rev != nil {
		if kind := formatKind(*item.Rev); kind != "" {
			parts = append(parts, kind)
		}
		if item.Rev.Commit != "" {
			parts = append(parts, faintStyle.Render("("+item.Rev.Commit+")"))
		}
	}
	if item.Check != nil {
		parts = append(parts, formatCheck(*item.Check)...)
	}
	return strings.Join(parts, " ") + "\n"
}

func formatKind(rev git.RevInfo) string {
	switch rev.Kind {
	case git.HeadBranch:
		return branchStyle.Render("@" + rev.Name)
	case git.HeadTag:
		return tagStyle.Render("@" + rev.Name)
	case git.HeadDetached:
		return alertStyle.Render("@detached")
	}
	return ""
}

func formatCheck(c updateCheck) []string {
	var parts []string
	if c.Tracking && !c.Unknown {
		behind, ahead := "↓", "↑"
		if c.Behind > 0 {
			behind = fmt.Sprintf("↓%d", c.Behind)
		}
		if c.Ahead > 0 {
			ahead = fmt.Sprintf("↑%d", c.Ahead)
		}
		parts = append(parts, behindStyle.Render(behind)+"/"+alertStyle.Render(ahead))
	}
	if c.Dirty {
		parts = append(parts, alertStyle.Render("*"))
	}
	if c.Unknown {
		parts = append(parts, alertStyle.Render("?"))
	}
	return parts
}
