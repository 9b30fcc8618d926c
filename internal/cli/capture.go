package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kjaylee/openclaw-mem/internal/brain"
	"github.com/kjaylee/openclaw-mem/internal/capture"
	"github.com/kjaylee/openclaw-mem/internal/model"
	"github.com/kjaylee/openclaw-mem/internal/state"
)

func init() {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Mine observations from recent session transcripts",
		Long: "Scan session JSONL transcripts for decisions, learnings, errors and other\n" +
			"observations using rule-based extraction. New observations are appended to\n" +
			"the observations file and indexed; --route-to-brain sends project-specific\n" +
			"ones to their brain files instead.",
		Run: runCapture,
	}

	cmd.Flags().String("since", "3h", "Time window for session files (e.g. 3h, 24h, 7d)")
	cmd.Flags().String("file", "", "Scan one specific session file")
	cmd.Flags().Bool("dry-run", false, "Show what would be recorded without writing")
	cmd.Flags().Bool("route-to-brain", false, "Route matching observations to project brain files")

	RootCmd.AddCommand(cmd)
}

// parseSince accepts windows like "3h", "24h", "7d".
func parseSince(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("bad window %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("bad window %q", s)
	}
	return d, nil
}

func runCapture(cmd *cobra.Command, args []string) {
	since, _ := cmd.Flags().GetString("since")
	file, _ := cmd.Flags().GetString("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	routeToBrain, _ := cmd.Flags().GetBool("route-to-brain")

	cfg := loadConfig()

	var sessions []string
	if file != "" {
		sessions = []string{file}
	} else {
		window, err := parseSince(since)
		if err != nil {
			exitErr("capture", err)
		}
		sessions = capture.RecentSessions(cfg.SessionDir, window)
	}

	var all []model.Observation
	for _, s := range sessions {
		all = append(all, capture.ScanFile(s)...)
	}

	seen := state.LoadCapture(cfg.CaptureStateFile)
	fresh := capture.Dedup(all, seen)

	result := map[string]any{
		"sessions": len(sessions),
		"found":    len(all),
		"new":      len(fresh),
		"dry_run":  dryRun,
	}

	if len(fresh) == 0 {
		printJSON(result)
		return
	}

	ix, closeStore, err := openIndexer(cfg)
	if err != nil {
		exitErr("open index", err)
	}
	defer closeStore()
	rec := capture.NewRecorder(cfg.ObservationsFile, ix)

	toRecord := fresh
	if routeToBrain {
		router := brain.NewRouter(cfg.Root, cfg.BrainRoutes())
		routed, fallback, err := router.Route(fresh, dryRun)
		if err != nil {
			exitErr("route to brain", err)
		}
		result["brain_routed"] = len(routed)
		toRecord = fallback
	}

	recorded, err := rec.Record(cmd.Context(), toRecord, dryRun)
	if err != nil {
		exitErr("record observations", err)
	}
	result["recorded"] = recorded

	if !dryRun {
		if err := seen.Save(cfg.CaptureStateFile); err != nil {
			exitErr("save capture state", err)
		}
	}

	printJSON(result)
}
