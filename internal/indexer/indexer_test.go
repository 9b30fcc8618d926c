package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kjaylee/openclaw-mem/internal/config"
	"github.com/kjaylee/openclaw-mem/internal/embedding"
	"github.com/kjaylee/openclaw-mem/internal/model"
	"github.com/kjaylee/openclaw-mem/internal/vectordb"
)

func testSetup(t *testing.T) (*Indexer, vectordb.Store, config.Config) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "memory", "archive"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{
		Root:             root,
		Table:            "test_memory",
		DBPath:           filepath.Join(root, "test.db"),
		MaxChunkSize:     200,
		ChunkOverlap:     20,
		IndexPatterns:    []string{"memory/*.md", "memory/archive/*.md"},
		IndexStateFile:   filepath.Join(root, ".index_state.json"),
		CaptureStateFile: filepath.Join(root, ".capture_state.json"),
	}

	store, err := vectordb.OpenSQLite(cfg.DBPath, cfg.Table)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return New(cfg, store, embedding.NewMock(32)), store, cfg
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIndexAll(t *testing.T) {
	ix, store, cfg := testSetup(t)
	writeFile(t, cfg.Root, "memory/core.md", "# Core\n\n## Decisions\n\nUse SQLite for storage.")
	writeFile(t, cfg.Root, "memory/2026-01-05.md", "## Log\n\nFixed the indexing bug.")
	writeFile(t, cfg.Root, "memory/archive/2025-12-01.md", "## Old\n\nArchived note.")

	report, err := ix.IndexAll(context.Background())
	if err != nil {
		t.Fatalf("index all: %v", err)
	}
	if report.Files != 3 {
		t.Errorf("files = %d, want 3", report.Files)
	}
	if report.Chunks == 0 {
		t.Error("no chunks indexed")
	}

	n, _ := store.Count(context.Background())
	if n != report.Chunks {
		t.Errorf("store count %d != reported chunks %d", n, report.Chunks)
	}
}

func TestIndexAll_ReplacesStaleRecords(t *testing.T) {
	ix, store, cfg := testSetup(t)
	path := writeFile(t, cfg.Root, "memory/core.md", "## One\n\nOriginal content.")

	if _, err := ix.IndexAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	os.Remove(path)
	writeFile(t, cfg.Root, "memory/other.md", "## Two\n\nReplacement content.")

	if _, err := ix.IndexAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	hits, _ := store.Search(context.Background(), mustEmbed(t, "anything"), 10, vectordb.Filter{})
	for _, h := range hits {
		if h.Filename == "core.md" {
			t.Error("records from removed file survived a full reindex")
		}
	}
}

func TestIndexChanged_SkipsUnchanged(t *testing.T) {
	ix, _, cfg := testSetup(t)
	writeFile(t, cfg.Root, "memory/core.md", "## A\n\nStable content.")

	if _, err := ix.IndexAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	report, err := ix.IndexChanged(context.Background())
	if err != nil {
		t.Fatalf("index changed: %v", err)
	}
	if report.Files != 0 {
		t.Errorf("unchanged file reindexed: files=%d", report.Files)
	}
}

func TestIndexChanged_PicksUpModified(t *testing.T) {
	ix, store, cfg := testSetup(t)
	path := writeFile(t, cfg.Root, "memory/core.md", "## A\n\nVersion one.")

	if _, err := ix.IndexAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Push mtime past the recorded state.
	writeFile(t, cfg.Root, "memory/core.md", "## A\n\nVersion two, longer than before.")
	future := time.Now().Add(2 * time.Second)
	os.Chtimes(path, future, future)

	report, err := ix.IndexChanged(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Files != 1 {
		t.Fatalf("modified file not reindexed: files=%d", report.Files)
	}

	hits, _ := store.Search(context.Background(), mustEmbed(t, "version"), 10, vectordb.Filter{})
	for _, h := range hits {
		if strings.Contains(h.Text, "Version one") {
			t.Error("stale chunk survived incremental reindex")
		}
	}
}

func TestIndexFile(t *testing.T) {
	ix, store, cfg := testSetup(t)
	path := writeFile(t, cfg.Root, "memory/2026-02-10.md", "## Note\n\nSingle file index.")

	report, err := ix.IndexFile(context.Background(), path)
	if err != nil {
		t.Fatalf("index file: %v", err)
	}
	if report.Files != 1 || report.Chunks == 0 {
		t.Errorf("unexpected report %+v", report)
	}

	hits, _ := store.Search(context.Background(), mustEmbed(t, "note"), 10, vectordb.Filter{})
	found := false
	for _, h := range hits {
		if h.Filename == "2026-02-10.md" {
			found = true
			if h.Date != "2026-02-10" {
				t.Errorf("date not extracted from filename: %q", h.Date)
			}
		}
	}
	if !found {
		t.Error("file chunks not searchable")
	}
}

func TestIndexObservation(t *testing.T) {
	ix, store, _ := testSetup(t)

	obs := model.Observation{Tag: "decision", Text: "Use Redis for the cache layer"}
	if err := ix.IndexObservation(context.Background(), obs); err != nil {
		t.Fatalf("index observation: %v", err)
	}

	hits, err := store.Search(context.Background(),
		mustEmbed(t, "Use Redis for the cache layer"), 5,
		vectordb.Filter{Tag: "decision"})
	if err != nil || len(hits) != 1 {
		t.Fatalf("observation not found: err=%v hits=%d", err, len(hits))
	}
	h := hits[0]
	if h.Text != obs.Text {
		t.Errorf("stored text %q, want the bare observation text", h.Text)
	}
	if !strings.HasPrefix(h.ID, "obs:") {
		t.Errorf("observation ID %q missing obs: prefix", h.ID)
	}
	if h.Source != "memory/observations.md" || h.Tag != "decision" {
		t.Errorf("observation metadata wrong: %+v", h.Record)
	}
}

func TestIndexObservation_UniqueIDs(t *testing.T) {
	ix, store, _ := testSetup(t)
	obs := model.Observation{Tag: "learning", Text: "identical text"}

	ix.IndexObservation(context.Background(), obs)
	ix.IndexObservation(context.Background(), obs)

	if n, _ := store.Count(context.Background()); n != 2 {
		t.Errorf("each insert should get a fresh ID, count=%d", n)
	}
}

func mustEmbed(t *testing.T, text string) []float32 {
	t.Helper()
	vec, err := embedding.NewMock(32).EmbedSingle(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	return vec
}
