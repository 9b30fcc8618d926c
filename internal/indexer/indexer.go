// Package indexer turns markdown files and observations into embedded
// records in the vector store, tracking per-file mtimes so incremental
// indexing only touches changed files.
package indexer

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kjaylee/openclaw-mem/internal/chunker"
	"github.com/kjaylee/openclaw-mem/internal/config"
	"github.com/kjaylee/openclaw-mem/internal/embedding"
	"github.com/kjaylee/openclaw-mem/internal/model"
	"github.com/kjaylee/openclaw-mem/internal/sanitizer"
	"github.com/kjaylee/openclaw-mem/internal/state"
	"github.com/kjaylee/openclaw-mem/internal/vectordb"
)

// Indexer coordinates chunking, safety screening, embedding, and storage.
type Indexer struct {
	cfg      config.Config
	store    vectordb.Store
	embedder embedding.Embedder
	guard    *sanitizer.Sanitizer
}

// Report summarizes an indexing run.
type Report struct {
	Files  int `json:"files"`
	Chunks int `json:"chunks"`
}

func New(cfg config.Config, store vectordb.Store, embedder embedding.Embedder) *Indexer {
	return &Indexer{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		guard:    sanitizer.New(),
	}
}

// IndexAll rebuilds the whole table from every file matching the configured
// patterns.
func (ix *Indexer) IndexAll(ctx context.Context) (Report, error) {
	files, err := ix.filesToIndex()
	if err != nil {
		return Report{}, err
	}

	var recs []model.Record
	st := state.IndexState{}
	for _, f := range files {
		fileRecs, mtime, err := ix.buildRecords(ctx, f)
		if err != nil {
			return Report{}, err
		}
		recs = append(recs, fileRecs...)
		st[ix.relPath(f)] = mtime
	}

	if err := ix.store.Replace(ctx, recs); err != nil {
		return Report{}, fmt.Errorf("replace records: %w", err)
	}
	if err := st.Save(ix.cfg.IndexStateFile); err != nil {
		return Report{}, err
	}
	return Report{Files: len(files), Chunks: len(recs)}, nil
}

// IndexChanged reindexes only files modified since their last indexing.
func (ix *Indexer) IndexChanged(ctx context.Context) (Report, error) {
	files, err := ix.filesToIndex()
	if err != nil {
		return Report{}, err
	}

	st := state.LoadIndex(ix.cfg.IndexStateFile)
	report := Report{}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		rel := ix.relPath(f)
		mtime := float64(info.ModTime().UnixNano()) / float64(time.Second)
		if mtime <= st[rel] {
			continue
		}

		n, err := ix.reindexFile(ctx, f)
		if err != nil {
			return report, err
		}
		st[rel] = mtime
		report.Files++
		report.Chunks += n
	}

	if err := st.Save(ix.cfg.IndexStateFile); err != nil {
		return report, err
	}
	return report, nil
}

// IndexFile reindexes a single file, replacing its previous chunks.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (Report, error) {
	n, err := ix.reindexFile(ctx, path)
	if err != nil {
		return Report{}, err
	}

	st := state.LoadIndex(ix.cfg.IndexStateFile)
	if info, err := os.Stat(path); err == nil {
		st[ix.relPath(path)] = float64(info.ModTime().UnixNano()) / float64(time.Second)
		if err := st.Save(ix.cfg.IndexStateFile); err != nil {
			return Report{Files: 1, Chunks: n}, err
		}
	}
	return Report{Files: 1, Chunks: n}, nil
}

func (ix *Indexer) reindexFile(ctx context.Context, path string) (int, error) {
	recs, _, err := ix.buildRecords(ctx, path)
	if err != nil {
		return 0, err
	}
	// Stale-delete failures are harmless: Add upserts by ID anyway.
	_ = ix.store.DeleteByFilename(ctx, filepath.Base(path))
	if err := ix.store.Add(ctx, recs); err != nil {
		return 0, fmt.Errorf("add records for %s: %w", path, err)
	}
	return len(recs), nil
}

// IndexObservation embeds and stores a single observation immediately,
// without touching the file index state.
func (ix *Indexer) IndexObservation(ctx context.Context, obs model.Observation) error {
	vec, err := ix.embedder.EmbedSingle(ctx, obs.Text)
	if err != nil {
		return fmt.Errorf("embed observation: %w", err)
	}

	// The tag lives in its own column; the stored text stays bare so
	// search matches the observation itself, not its label.
	rec := model.Record{
		ID:       observationID(obs.Text),
		Text:     obs.Text,
		Source:   "memory/observations.md",
		Filename: "observations.md",
		Date:     time.Now().Format("2006-01-02"),
		Tag:      obs.Tag,
		Vector:   vec,
	}
	return ix.store.Add(ctx, []model.Record{rec})
}

// observationID combines a ULID with a short content hash, so the ID is
// unique per insert but still traceable to its text.
func observationID(text string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf("obs:%s:%s", id.String(), hex.EncodeToString(sum[:])[:8])
}

// buildRecords reads, chunks, screens, and embeds one file. Unsafe chunks
// are logged and indexed anyway: the sanitizer gates writes of new
// observations, while files on disk are the user's own content.
func (ix *Indexer) buildRecords(ctx context.Context, path string) ([]model.Record, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, err
	}
	mtime := float64(info.ModTime().UnixNano()) / float64(time.Second)

	source := ix.relPath(path)
	chunks := chunker.Chunk(string(data), source, chunker.Options{
		MaxSize: ix.cfg.MaxChunkSize,
		Overlap: ix.cfg.ChunkOverlap,
	})
	if len(chunks) == 0 {
		return nil, mtime, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		if safe, patterns := ix.guard.Check(c.Content); !safe {
			slog.Warn("suspicious content in indexed file",
				"source", source, "chunk", c.ChunkIndex, "patterns", patterns)
		}
		texts[i] = c.Content
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, 0, fmt.Errorf("embed %s: %w", path, err)
	}

	recs := make([]model.Record, len(chunks))
	for i, c := range chunks {
		recs[i] = model.Record{
			ID:         c.ID,
			Text:       c.Content,
			Source:     c.Source,
			Filename:   c.Filename,
			ChunkIndex: c.ChunkIndex,
			Date:       c.Date,
			Vector:     vectors[i],
		}
	}
	return recs, mtime, nil
}

// filesToIndex expands the configured glob patterns, deduplicated and sorted.
func (ix *Indexer) filesToIndex() ([]string, error) {
	seen := map[string]struct{}{}
	var files []string
	for _, pattern := range ix.cfg.IndexPatterns {
		matches, err := filepath.Glob(filepath.Join(ix.cfg.Root, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (ix *Indexer) relPath(path string) string {
	if rel, err := filepath.Rel(ix.cfg.Root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}
