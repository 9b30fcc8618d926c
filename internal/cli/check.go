package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kjaylee/openclaw-mem/internal/brain"
)

func init() {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check brain files for injection patterns",
		Long:  "Scan project brain files for prompt-injection patterns and report PASS/WARN per file. With --fix, flagged lines are sanitized in place and the files rescanned. Exits 1 if warnings remain.",
		Run:   runCheck,
	}

	cmd.Flags().Bool("fix", false, "Sanitize flagged lines in place")
	cmd.Flags().String("dir", "", "Directory to scan (default: memory/projects)")

	RootCmd.AddCommand(cmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	fix, _ := cmd.Flags().GetBool("fix")
	dir, _ := cmd.Flags().GetString("dir")

	cfg := loadConfig()
	if dir == "" {
		dir = cfg.ProjectsDir
	}

	c := brain.NewChecker()
	reports, err := c.ScanDir(dir)
	if err != nil {
		exitErr("scan brain files", err)
	}

	if fix {
		for _, r := range reports {
			if len(r.Findings) == 0 {
				continue
			}
			linesFixed, patternsRemoved, err := c.FixFile(r.Path)
			if err != nil {
				exitErr("fix brain file", err)
			}
			fmt.Printf("FIXED %s: %d line(s), %d pattern(s) removed\n",
				filepath.Base(r.Path), linesFixed, patternsRemoved)
		}
		reports, err = c.ScanDir(dir)
		if err != nil {
			exitErr("rescan brain files", err)
		}
	}

	warned := 0
	for _, r := range reports {
		base := filepath.Base(r.Path)
		if len(r.Findings) == 0 {
			fmt.Printf("PASS  %s\n", base)
			continue
		}
		warned++
		fmt.Printf("WARN  %s (%d issue(s))\n", base, len(r.Findings))
		for _, f := range r.Findings {
			fmt.Printf("  L%d: %s\n", f.Line, truncate(f.Text, 80))
			for _, p := range f.Patterns {
				fmt.Printf("    pattern: %s\n", p)
			}
		}
	}
	fmt.Printf("\n%d passed, %d warned\n", len(reports)-warned, warned)

	if warned > 0 {
		os.Exit(1)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
