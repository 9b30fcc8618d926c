// Package archive moves cold memory files out of the hot directory.
//
// Daily note files older than the retention window move to memory/archive/
// where they stay searchable; the hot layer (core.md, observations.md,
// today.md) is never archived.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/kjaylee/openclaw-mem/internal/config"
	"github.com/kjaylee/openclaw-mem/internal/indexer"
)

// protected names the hot-layer files that are never archived.
var protected = map[string]struct{}{
	"core.md":         {},
	"observations.md": {},
	"today.md":        {},
}

var filenameDateRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// Archiver finds and moves stale memory files.
type Archiver struct {
	cfg config.Config
	ix  *indexer.Indexer // used by Reindex; may be nil otherwise
}

func New(cfg config.Config, ix *indexer.Indexer) *Archiver {
	return &Archiver{cfg: cfg, ix: ix}
}

// MemoryFiles lists the candidate files in memory/: plain .md files that are
// neither protected nor symlinks (today.md is usually a symlink), sorted.
func (a *Archiver) MemoryFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(a.cfg.Root, "memory", "*.md"))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, m := range matches {
		if _, ok := protected[filepath.Base(m)]; ok {
			continue
		}
		info, err := os.Lstat(m)
		if err != nil || info.Mode()&os.ModeSymlink != 0 {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// IsOldEnough reports whether the file predates the retention window. A
// YYYY-MM-DD date in the filename is authoritative; otherwise the mtime
// decides.
func IsOldEnough(path string, days int) bool {
	cutoff := time.Now().AddDate(0, 0, -days)

	if m := filenameDateRe.FindString(filepath.Base(path)); m != "" {
		if d, err := time.ParseInLocation("2006-01-02", m, time.Local); err == nil {
			return d.Before(cutoff)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.ModTime().Before(cutoff)
}

// FindArchivable returns the files due for archiving with the configured
// retention.
func (a *Archiver) FindArchivable() ([]string, error) {
	return a.FindArchivableAfter(a.cfg.ArchiveAfterDays)
}

// FindArchivableAfter returns the files older than the given number of days.
func (a *Archiver) FindArchivableAfter(days int) ([]string, error) {
	files, err := a.MemoryFiles()
	if err != nil {
		return nil, err
	}
	var old []string
	for _, f := range files {
		if IsOldEnough(f, days) {
			old = append(old, f)
		}
	}
	return old, nil
}

// Move relocates files into the archive directory and returns the new
// paths. A file whose name already exists in the archive is skipped rather
// than overwritten.
func (a *Archiver) Move(files []string) ([]string, error) {
	if err := os.MkdirAll(a.cfg.ArchiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	var moved []string
	for _, src := range files {
		dst := filepath.Join(a.cfg.ArchiveDir, filepath.Base(src))
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			return moved, fmt.Errorf("move %s: %w", src, err)
		}
		moved = append(moved, dst)
	}
	return moved, nil
}

// Reindex reindexes every file in the archive directory so moved files stay
// searchable under their new source path.
func (a *Archiver) Reindex(ctx context.Context) (int, error) {
	if a.ix == nil {
		return 0, fmt.Errorf("no indexer configured")
	}
	matches, err := filepath.Glob(filepath.Join(a.cfg.ArchiveDir, "*.md"))
	if err != nil {
		return 0, err
	}
	sort.Strings(matches)

	total := 0
	for _, f := range matches {
		report, err := a.ix.IndexFile(ctx, f)
		if err != nil {
			return total, err
		}
		total += report.Chunks
	}
	return total, nil
}
