package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "index [file]",
		Short: "Index memory files into the vector store",
		Long:  "Index markdown memory files. With a file argument, only that file is reindexed; --all rebuilds everything; --changed (the default) touches only modified files.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runIndex,
	}

	cmd.Flags().Bool("all", false, "Rebuild the whole index")
	cmd.Flags().Bool("changed", false, "Index only files modified since the last run")

	RootCmd.AddCommand(cmd)
}

func runIndex(cmd *cobra.Command, args []string) {
	all, _ := cmd.Flags().GetBool("all")
	cfg := loadConfig()

	ix, closeStore, err := openIndexer(cfg)
	if err != nil {
		exitErr("open index", err)
	}
	defer closeStore()

	switch {
	case len(args) == 1:
		report, err := ix.IndexFile(cmd.Context(), args[0])
		if err != nil {
			exitErr("index file", err)
		}
		printJSON(report)
	case all:
		report, err := ix.IndexAll(cmd.Context())
		if err != nil {
			exitErr("index all", err)
		}
		printJSON(report)
	default:
		report, err := ix.IndexChanged(cmd.Context())
		if err != nil {
			exitErr("index changed", err)
		}
		printJSON(report)
	}
}
