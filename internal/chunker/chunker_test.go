package chunker

import (
	"strings"
	"testing"
)

func TestChunk_EmptyInput(t *testing.T) {
	if got := Chunk("", "memory/core.md", DefaultOptions()); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if got := Chunk("\n\n   \n", "memory/core.md", DefaultOptions()); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}
}

func TestChunk_ShortContent(t *testing.T) {
	text := "A short note about Redis."
	chunks := Chunk(text, "memory/core.md", DefaultOptions())
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Content != text {
		t.Errorf("expected %q, got %q", text, c.Content)
	}
	if c.Filename != "core.md" || c.Source != "memory/core.md" {
		t.Errorf("bad metadata: %+v", c)
	}
	if c.ChunkIndex != 0 {
		t.Errorf("expected index 0, got %d", c.ChunkIndex)
	}
}

func TestChunk_SplitsOnHeadings(t *testing.T) {
	text := "## Section One\n\nFirst section body.\n\n### Section Two\n\nSecond section body."
	chunks := Chunk(text, "notes.md", DefaultOptions())
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Content, "Section One") {
		t.Errorf("first chunk should hold section one, got %q", chunks[0].Content)
	}
	if !strings.HasPrefix(chunks[1].Content, "### Section Two") {
		t.Errorf("second chunk should start at the heading, got %q", chunks[1].Content)
	}
	if chunks[1].ChunkIndex != 1 {
		t.Errorf("expected index 1, got %d", chunks[1].ChunkIndex)
	}
}

func TestChunk_OversizedSectionRespectsMaxSize(t *testing.T) {
	text := "## Section\n\n" + strings.Repeat("A", 600)
	opts := Options{MaxSize: 200, Overlap: 20}
	chunks := Chunk(text, "big.md", opts)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Content) > 200 {
			t.Errorf("chunk %d exceeds max size: %d chars", c.ChunkIndex, len(c.Content))
		}
	}
}

func TestChunk_ParagraphPackingWithOverlap(t *testing.T) {
	para := strings.Repeat("word ", 60) // ~300 chars
	text := "## S\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para)
	opts := Options{MaxSize: 400, Overlap: 50}
	chunks := Chunk(text, "p.md", opts)
	if len(chunks) < 2 {
		t.Fatalf("expected paragraph split, got %d chunks", len(chunks))
	}
	// The second buffer starts with the tail of the first.
	tail := chunks[0].Content[len(chunks[0].Content)-50:]
	if !strings.HasPrefix(chunks[1].Content, tail) {
		t.Errorf("expected overlap carry-forward, got %q", chunks[1].Content[:60])
	}
}

func TestForceSplit_FullCoverage(t *testing.T) {
	text := strings.Repeat("0123456789", 30)
	parts := forceSplit(text, 100, 25)

	// Reconstruct by dropping each part's duplicated prefix.
	rebuilt := parts[0]
	for _, p := range parts[1:] {
		if len(p) > 25 {
			rebuilt += p[25:]
		}
	}
	if rebuilt != text {
		t.Errorf("reconstruction lost characters: %d vs %d", len(rebuilt), len(text))
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	text := "## A\n\nStable content."
	a := Chunk(text, "memory/a.md", DefaultOptions())
	b := Chunk(text, "memory/a.md", DefaultOptions())
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("chunk %d IDs differ: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}
	if ChunkID("a.md", 0, "x") == ChunkID("a.md", 0, "y") {
		t.Error("different content must yield different IDs")
	}
}

func TestChunk_DateFromFilename(t *testing.T) {
	chunks := Chunk("daily note", "memory/2026-01-15.md", DefaultOptions())
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Date != "2026-01-15" {
		t.Errorf("expected date 2026-01-15, got %q", chunks[0].Date)
	}

	chunks = Chunk("no date here", "memory/core.md", DefaultOptions())
	if chunks[0].Date != "" {
		t.Errorf("expected empty date, got %q", chunks[0].Date)
	}
}

func TestChunk_OverlapClampedBelowMaxSize(t *testing.T) {
	// overlap >= maxSize would stall the window; normalize clamps it.
	text := "## S\n\n" + strings.Repeat("B", 500)
	chunks := Chunk(text, "clamp.md", Options{MaxSize: 100, Overlap: 100})
	if len(chunks) == 0 {
		t.Fatal("expected chunks despite degenerate overlap")
	}
	for _, c := range chunks {
		if len(c.Content) > 100 {
			t.Errorf("chunk exceeds max size: %d", len(c.Content))
		}
	}
}
