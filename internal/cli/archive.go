package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kjaylee/openclaw-mem/internal/archive"
)

func init() {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Move old memory files to the archive",
		Long:  "Move daily note files older than the retention window into memory/archive/. The default is a dry run; pass --execute to move files, or --reindex to refresh the archive's search index.",
		Run:   runArchive,
	}

	cmd.Flags().Bool("execute", false, "Actually move files (default is a dry run)")
	cmd.Flags().Bool("reindex", false, "Reindex the archive directory")
	cmd.Flags().Int("days", 0, "Archive files older than N days (default from config)")

	RootCmd.AddCommand(cmd)
}

func runArchive(cmd *cobra.Command, args []string) {
	execute, _ := cmd.Flags().GetBool("execute")
	reindex, _ := cmd.Flags().GetBool("reindex")
	days, _ := cmd.Flags().GetInt("days")

	cfg := loadConfig()
	if days <= 0 {
		days = cfg.ArchiveAfterDays
	}

	if reindex {
		ix, closeStore, err := openIndexer(cfg)
		if err != nil {
			exitErr("open index", err)
		}
		defer closeStore()

		chunks, err := archive.New(cfg, ix).Reindex(cmd.Context())
		if err != nil {
			exitErr("reindex archive", err)
		}
		printJSON(map[string]any{"reindexed_chunks": chunks})
		return
	}

	a := archive.New(cfg, nil)
	candidates, err := a.FindArchivableAfter(days)
	if err != nil {
		exitErr("find archivable", err)
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = filepath.Base(c)
	}
	result := map[string]any{
		"days":       days,
		"candidates": names,
		"dry_run":    !execute,
	}

	if execute && len(candidates) > 0 {
		moved, err := a.Move(candidates)
		if err != nil {
			exitErr("archive files", err)
		}
		result["moved"] = len(moved)
	}

	printJSON(result)
}
