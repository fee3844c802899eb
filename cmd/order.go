package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samhoang/rz/internal/config"
	"github.com/samhoang/rz/internal/logging"
	"github.com/samhoang/rz/internal/order"
)

var (
	orderSource bool
	orderFpath  bool
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the plugin load order",
	Long: `Print the plugins in the order 'rz init' loads them.

--source prints the files to source, one per line.
--fpath prints the directories to append to fpath, one per line.`,
	Args: cobra.NoArgs,
	RunE: runOrder,
}

func init() {
	orderCmd.Flags().BoolVar(&orderSource, "source", false, "Print files to source")
	orderCmd.Flags().BoolVar(&orderFpath, "fpath", false, "Print directories to add to fpath")
	orderCmd.MarkFlagsMutuallyExclusive("source", "fpath")
	rootCmd.AddCommand(orderCmd)
}

func runOrder(cmd *cobra.Command, args []string) error {
	paths, err := config.ResolvePaths()
	if err != nil {
		return err
	}
	entries, err := order.Resolve(paths.Plugins)
	if err != nil {
		return err
	}

	switch {
	case orderSource:
		return writeLines(os.Stdout, sourceFiles(paths.Plugins, entries))
	case orderFpath:
		dirs, err := fpathDirs(paths, entries, configuredFpathDirs(paths))
		if err != nil {
			return err
		}
		return writeLines(os.Stdout, dirs)
	default:
		for _, e := range entries {
			fmt.Println("- " + e.Display)
		}
		return nil
	}
}

// sourceFiles returns the link paths of entries that point at files
func sourceFiles(pluginsDir string, entries []order.Entry) []string {
	var files []string
	for _, e := range entries {
		fi, err := os.Stat(e.Target)
		if err != nil || fi.IsDir() {
			continue
		}
		files = append(files, filepath.Join(pluginsDir, e.Name))
	}
	return files
}

// fpathDirs returns the completion directories of entries that point at
// directories. configured maps a repository identifier to its fpath_dirs.
func fpathDirs(paths *config.Paths, entries []order.Entry, configured map[string][]string) ([]string, error) {
	var dirs []string
	for _, e := range entries {
		fi, err := os.Stat(e.Target)
		if err != nil || !fi.IsDir() {
			continue
		}
		if e.Slug == "" {
			dirs = append(dirs, order.DiscoverCompletionDirs(e.Target)...)
			continue
		}
		found, err := order.FpathDirs(paths.Plugins, e.Slug, configured[e.Slug])
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, found...)
	}
	return dirs, nil
}

// configuredFpathDirs reads fpath_dirs from config.toml. Without a readable
// config every plugin falls back to discovery.
func configuredFpathDirs(paths *config.Paths) map[string][]string {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		logger := logging.Get("order")
		logger.Debug().Err(err).Msg("Using discovered fpath dirs")
		return nil
	}
	out := make(map[string][]string)
	for _, pl := range cfg.Plugins {
		if len(pl.FpathDirs) > 0 {
			out[pl.Slug()] = pl.FpathDirs
		}
	}
	return out
}

func writeLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
