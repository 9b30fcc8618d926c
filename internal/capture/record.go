package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kjaylee/openclaw-mem/internal/model"
	"github.com/kjaylee/openclaw-mem/internal/sanitizer"
)

// ObservationIndexer pushes a recorded observation into the vector store.
type ObservationIndexer interface {
	IndexObservation(ctx context.Context, obs model.Observation) error
}

// Recorder appends observations to the observations file and mirrors them
// into the vector store. Text passes through the sanitizer before any write.
type Recorder struct {
	obsFile string
	guard   *sanitizer.Sanitizer
	indexer ObservationIndexer // may be nil
}

func NewRecorder(obsFile string, indexer ObservationIndexer) *Recorder {
	return &Recorder{
		obsFile: obsFile,
		guard:   sanitizer.New(),
		indexer: indexer,
	}
}

// Record appends each observation as a markdown list entry. With dryRun set
// nothing is written; the would-be count is still returned. Indexing errors
// are logged, not fatal: the file append is the source of truth.
func (r *Recorder) Record(ctx context.Context, observations []model.Observation, dryRun bool) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}
	if dryRun {
		return len(observations), nil
	}

	if err := r.ensureFile(); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(r.obsFile, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open observations file: %w", err)
	}
	defer f.Close()

	recorded := 0
	for _, obs := range observations {
		text := r.guard.Sanitize(obs.Text)
		line := FormatEntry(obs.Tag, text, obs.Timestamp)
		if _, err := fmt.Fprintln(f, line); err != nil {
			return recorded, fmt.Errorf("append observation: %w", err)
		}
		recorded++

		if r.indexer != nil {
			obs.Text = text
			if err := r.indexer.IndexObservation(ctx, obs); err != nil {
				slog.Warn("observation recorded but not indexed", "tag", obs.Tag, "err", err)
			}
		}
	}
	return recorded, nil
}

func (r *Recorder) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(r.obsFile), 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	if _, err := os.Stat(r.obsFile); err == nil {
		return nil
	}
	return os.WriteFile(r.obsFile, []byte("# Observations\n\n"), 0o644)
}

// FormatEntry renders one observation line. A timestamp that does not parse
// as RFC 3339 falls back to the current time.
func FormatEntry(tag, text, timestamp string) string {
	return fmt.Sprintf("- [%s] **[%s]** %s", FormatTimestamp(timestamp), tag, text)
}

// FormatTimestamp normalizes an RFC 3339 timestamp to "2006-01-02 15:04",
// falling back to now when it does not parse.
func FormatTimestamp(timestamp string) string {
	if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
		return t.Format("2006-01-02 15:04")
	}
	return time.Now().Format("2006-01-02 15:04")
}
