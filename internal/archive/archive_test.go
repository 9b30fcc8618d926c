package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kjaylee/openclaw-mem/internal/config"
	"github.com/kjaylee/openclaw-mem/internal/embedding"
	"github.com/kjaylee/openclaw-mem/internal/indexer"
	"github.com/kjaylee/openclaw-mem/internal/vectordb"
)

func testArchiver(t *testing.T) (*Archiver, config.Config) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "memory"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{
		Root:             root,
		ArchiveDir:       filepath.Join(root, "memory", "archive"),
		ArchiveAfterDays: 30,
		MaxChunkSize:     200,
		ChunkOverlap:     20,
		IndexPatterns:    []string{"memory/*.md", "memory/archive/*.md"},
		IndexStateFile:   filepath.Join(root, ".index_state.json"),
		DBPath:           filepath.Join(root, "test.db"),
		Table:            "test_memory",
	}
	return New(cfg, nil), cfg
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryFiles_SkipsProtected(t *testing.T) {
	a, cfg := testArchiver(t)
	memDir := filepath.Join(cfg.Root, "memory")
	write(t, filepath.Join(memDir, "core.md"), "# Core")
	write(t, filepath.Join(memDir, "observations.md"), "# Observations")
	write(t, filepath.Join(memDir, "2020-01-01.md"), "old note")
	os.Symlink(filepath.Join(memDir, "2020-01-01.md"), filepath.Join(memDir, "today.md"))

	files, err := a.MemoryFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "2020-01-01.md" {
		t.Errorf("unexpected candidates: %v", files)
	}
}

func TestIsOldEnough_FilenameDateWins(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "2020-01-01.md")
	write(t, old, "x")
	if !IsOldEnough(old, 30) {
		t.Error("file dated 2020 should be old enough")
	}

	// Fresh date in the filename beats an old mtime.
	today := filepath.Join(dir, time.Now().Format("2006-01-02")+".md")
	write(t, today, "x")
	stale := time.Now().AddDate(0, 0, -90)
	os.Chtimes(today, stale, stale)
	if IsOldEnough(today, 30) {
		t.Error("filename date should override mtime")
	}
}

func TestIsOldEnough_MtimeFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "undated-notes.md")
	write(t, path, "x")

	if IsOldEnough(path, 30) {
		t.Error("freshly written file flagged as old")
	}

	stale := time.Now().AddDate(0, 0, -90)
	os.Chtimes(path, stale, stale)
	if !IsOldEnough(path, 30) {
		t.Error("stale mtime not detected")
	}
}

func TestFindArchivable(t *testing.T) {
	a, cfg := testArchiver(t)
	memDir := filepath.Join(cfg.Root, "memory")
	write(t, filepath.Join(memDir, "2020-01-01.md"), "old")
	write(t, filepath.Join(memDir, time.Now().Format("2006-01-02")+".md"), "fresh")
	write(t, filepath.Join(memDir, "core.md"), "# Core")

	old, err := a.FindArchivable()
	if err != nil {
		t.Fatal(err)
	}
	if len(old) != 1 || filepath.Base(old[0]) != "2020-01-01.md" {
		t.Errorf("unexpected archivable set: %v", old)
	}
}

func TestMove(t *testing.T) {
	a, cfg := testArchiver(t)
	memDir := filepath.Join(cfg.Root, "memory")
	src := filepath.Join(memDir, "2020-01-01.md")
	write(t, src, "old note content")

	moved, err := a.Move([]string{src})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(moved) != 1 {
		t.Fatalf("moved %d files, want 1", len(moved))
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still present after move")
	}
	data, err := os.ReadFile(filepath.Join(cfg.ArchiveDir, "2020-01-01.md"))
	if err != nil || string(data) != "old note content" {
		t.Errorf("archived content wrong: %s, %v", data, err)
	}
}

func TestMove_SkipsCollisions(t *testing.T) {
	a, cfg := testArchiver(t)
	memDir := filepath.Join(cfg.Root, "memory")
	src := filepath.Join(memDir, "2020-01-01.md")
	write(t, src, "new version")

	os.MkdirAll(cfg.ArchiveDir, 0o755)
	write(t, filepath.Join(cfg.ArchiveDir, "2020-01-01.md"), "already archived")

	moved, err := a.Move([]string{src})
	if err != nil {
		t.Fatal(err)
	}
	if len(moved) != 0 {
		t.Errorf("collision should be skipped, moved %v", moved)
	}
	data, _ := os.ReadFile(filepath.Join(cfg.ArchiveDir, "2020-01-01.md"))
	if string(data) != "already archived" {
		t.Error("existing archive file overwritten")
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("source should remain on collision")
	}
}

func TestReindex(t *testing.T) {
	_, cfg := testArchiver(t)
	os.MkdirAll(cfg.ArchiveDir, 0o755)
	write(t, filepath.Join(cfg.ArchiveDir, "2020-01-01.md"), "## Old\n\nArchived but searchable.")

	store, err := vectordb.OpenSQLite(cfg.DBPath, cfg.Table)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ix := indexer.New(cfg, store, embedding.NewMock(32))
	a := New(cfg, ix)

	chunks, err := a.Reindex(context.Background())
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if chunks == 0 {
		t.Error("no chunks indexed from archive")
	}
	if n, _ := store.Count(context.Background()); n != chunks {
		t.Errorf("store count %d != reported %d", n, chunks)
	}
}

func TestReindex_WithoutIndexer(t *testing.T) {
	a, _ := testArchiver(t)
	if _, err := a.Reindex(context.Background()); err == nil {
		t.Error("reindex without indexer should fail")
	}
}
