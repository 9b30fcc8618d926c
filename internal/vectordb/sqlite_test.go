package vectordb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kjaylee/openclaw-mem/internal/config"
	"github.com/kjaylee/openclaw-mem/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), "test_memory")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rec(id, text, source, filename, tag string, vec []float32) model.Record {
	return model.Record{
		ID: id, Text: text, Source: source, Filename: filename,
		Tag: tag, Vector: vec,
	}
}

func TestSQLite_AddAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := rec("core.md:0:abcd1234", "## Key Decisions", "memory/core.md", "core.md", "", []float32{1, 0})
	if err := s.Add(ctx, []model.Record{r}); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != r.Text || got.Source != r.Source || len(got.Vector) != 2 {
		t.Errorf("record mangled: %+v", got)
	}
}

func TestSQLite_GetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestSQLite_AddUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := rec("id1", "old text", "memory/a.md", "a.md", "", []float32{1, 0})
	s.Add(ctx, []model.Record{r})
	r.Text = "new text"
	if err := s.Add(ctx, []model.Record{r}); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("upsert should not duplicate: count=%d", n)
	}
	got, _ := s.Get(ctx, "id1")
	if got.Text != "new text" {
		t.Errorf("upsert did not replace text: %q", got.Text)
	}
}

func TestSQLite_Replace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Add(ctx, []model.Record{
		rec("a", "x", "memory/a.md", "a.md", "", []float32{1, 0}),
		rec("b", "y", "memory/b.md", "b.md", "", []float32{0, 1}),
	})
	if err := s.Replace(ctx, []model.Record{
		rec("c", "z", "memory/c.md", "c.md", "", []float32{1, 1}),
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("replace should leave only new records: count=%d", n)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Error("old record survived replace")
	}
}

func TestSQLite_DeleteByFilename(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Add(ctx, []model.Record{
		rec("a1", "x", "memory/a.md", "a.md", "", []float32{1, 0}),
		rec("a2", "y", "memory/a.md", "a.md", "", []float32{0, 1}),
		rec("b1", "z", "memory/b.md", "b.md", "", []float32{1, 1}),
	})
	if err := s.DeleteByFilename(ctx, "a.md"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("expected only b.md records left, count=%d", n)
	}
	if _, err := s.Get(ctx, "b1"); err != nil {
		t.Error("unrelated record deleted")
	}
}

func TestSQLite_SearchOrdersByDistance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Add(ctx, []model.Record{
		rec("near", "near", "memory/a.md", "a.md", "", []float32{1, 0}),
		rec("mid", "mid", "memory/b.md", "b.md", "", []float32{1, 1}),
		rec("far", "far", "memory/c.md", "c.md", "", []float32{0, 1}),
	})

	hits, err := s.Search(ctx, []float32{1, 0}, 2, Filter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("want 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "near" || hits[1].ID != "mid" {
		t.Errorf("wrong order: %s, %s", hits[0].ID, hits[1].ID)
	}
	if hits[0].Distance > hits[1].Distance {
		t.Error("distances not ascending")
	}
	if hits[0].Distance > 1e-6 {
		t.Errorf("identical vector should have ~0 distance, got %v", hits[0].Distance)
	}
}

func TestSQLite_SearchFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Add(ctx, []model.Record{
		rec("c1", "chunk", "memory/core.md", "core.md", "", []float32{1, 0}),
		rec("o1", "obs", "memory/observations.md", "observations.md", "decision", []float32{1, 0}),
		rec("o2", "obs2", "memory/observations.md", "observations.md", "error", []float32{1, 0}),
	})

	hits, _ := s.Search(ctx, []float32{1, 0}, 10, Filter{SourceContains: "core"})
	if len(hits) != 1 || hits[0].ID != "c1" {
		t.Errorf("source filter failed: %+v", hits)
	}

	hits, _ = s.Search(ctx, []float32{1, 0}, 10, Filter{Tag: "decision"})
	if len(hits) != 1 || hits[0].ID != "o1" {
		t.Errorf("tag filter failed: %+v", hits)
	}

	hits, _ = s.Search(ctx, []float32{1, 0}, 10, Filter{SourceContains: "observations", Tag: "error"})
	if len(hits) != 1 || hits[0].ID != "o2" {
		t.Errorf("combined filter failed: %+v", hits)
	}
}

func TestSQLite_SearchEmptyStore(t *testing.T) {
	s := openTestStore(t)
	hits, err := s.Search(context.Background(), []float32{1, 0}, 5, Filter{})
	if err != nil {
		t.Fatalf("search empty: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := config.Config{
		StoreBackend: "wat",
		DBPath:       filepath.Join(t.TempDir(), "x.db"),
		Table:        "t",
	}
	if _, err := Open(cfg); err == nil {
		t.Error("unknown backend should fail")
	}
}
