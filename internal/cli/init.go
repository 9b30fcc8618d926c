package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const coreTemplate = `# Core Memory

## Key Decisions

## Lessons Learned
`

func init() {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a memory workspace",
		Long:  "Create the memory directory structure, starter files, and a .env pointing at the workspace, then run a first index pass.",
		Run:   runInit,
	}

	cmd.Flags().Bool("no-index", false, "Skip the first index pass")

	RootCmd.AddCommand(cmd)
}

func runInit(cmd *cobra.Command, args []string) {
	noIndex, _ := cmd.Flags().GetBool("no-index")
	cfg := loadConfig()

	steps := []struct {
		path    string
		dir     bool
		content string
	}{
		{filepath.Join(cfg.Root, "memory"), true, ""},
		{filepath.Join(cfg.Root, "memory", "core.md"), false, coreTemplate},
		{cfg.ProjectsDir, true, ""},
		{cfg.ObservationsFile, false, "# Observations\n\n"},
		{filepath.Join(cfg.Root, ".env"), false, fmt.Sprintf("OPENCLAW_MEM_ROOT=%q\n", cfg.Root)},
	}

	results := map[string]string{}
	for _, s := range steps {
		rel, _ := filepath.Rel(cfg.Root, s.path)
		created, err := ensurePath(s.path, s.dir, s.content)
		switch {
		case err != nil:
			exitErr("init "+rel, err)
		case created:
			results[rel] = "created"
		default:
			results[rel] = "exists"
		}
	}

	if !noIndex {
		ix, closeStore, err := openIndexer(cfg)
		if err != nil {
			// The workspace is usable without an index; report and move on.
			results["index"] = fmt.Sprintf("skipped: %v", err)
		} else {
			defer closeStore()
			if report, err := ix.IndexAll(cmd.Context()); err != nil {
				results["index"] = fmt.Sprintf("skipped: %v", err)
			} else {
				results["index"] = fmt.Sprintf("%d chunks from %d files", report.Chunks, report.Files)
			}
		}
	}

	printJSON(results)
}

// ensurePath creates a directory or file if missing. It reports whether it
// created anything.
func ensurePath(path string, dir bool, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if dir {
		return true, os.MkdirAll(path, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, []byte(content), 0o644)
}
