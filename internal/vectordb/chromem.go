package vectordb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/kjaylee/openclaw-mem/internal/model"
)

// ChromemStore keeps records in a chromem-go persistent collection. All
// embeddings are computed by the caller, so the collection's own embedding
// func is a stub that refuses to run.
type ChromemStore struct {
	db   *chromem.DB
	coll *chromem.Collection
	name string
}

// OpenChromem opens (creating if needed) a persistent chromem DB at path.
func OpenChromem(path, name string) (*ChromemStore, error) {
	if name == "" {
		name = "openclaw_memory"
	}
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem %s: %w", path, err)
	}
	coll, err := db.GetOrCreateCollection(name, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", name, err)
	}
	return &ChromemStore{db: db, coll: coll, name: name}, nil
}

func noEmbed(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embeddings must be precomputed")
}

func toDocument(rec model.Record) chromem.Document {
	return chromem.Document{
		ID:        rec.ID,
		Content:   rec.Text,
		Embedding: rec.Vector,
		Metadata: map[string]string{
			"source":      rec.Source,
			"filename":    rec.Filename,
			"chunk_index": strconv.Itoa(rec.ChunkIndex),
			"date":        rec.Date,
			"tag":         rec.Tag,
		},
	}
}

func fromDocument(id, content string, embedding []float32, meta map[string]string) model.Record {
	idx, _ := strconv.Atoi(meta["chunk_index"])
	return model.Record{
		ID:         id,
		Text:       content,
		Source:     meta["source"],
		Filename:   meta["filename"],
		ChunkIndex: idx,
		Date:       meta["date"],
		Tag:        meta["tag"],
		Vector:     embedding,
	}
}

func (s *ChromemStore) Add(ctx context.Context, recs []model.Record) error {
	if len(recs) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(recs))
	for i, rec := range recs {
		docs[i] = toDocument(rec)
	}
	if err := s.coll.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Replace(ctx context.Context, recs []model.Record) error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("reset collection: %w", err)
	}
	coll, err := s.db.GetOrCreateCollection(s.name, nil, noEmbed)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.coll = coll
	return s.Add(ctx, recs)
}

func (s *ChromemStore) DeleteByFilename(ctx context.Context, filename string) error {
	return s.coll.Delete(ctx, map[string]string{"filename": filename}, nil)
}

func (s *ChromemStore) Search(ctx context.Context, vector []float32, k int, f Filter) ([]Hit, error) {
	total := s.coll.Count()
	if total == 0 {
		return nil, nil
	}

	var where map[string]string
	if f.Tag != "" {
		where = map[string]string{"tag": f.Tag}
	}

	// The source filter is a substring match, which chromem's exact-match
	// metadata filter cannot express, so fetch everything and filter here.
	n := k
	if f.SourceContains != "" || n <= 0 || n > total {
		n = total
	}

	results, err := s.coll.QueryEmbedding(ctx, vector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	var hits []Hit
	for _, r := range results {
		rec := fromDocument(r.ID, r.Content, r.Embedding, r.Metadata)
		if f.SourceContains != "" && !containsFold(rec.Source, f.SourceContains) {
			continue
		}
		hits = append(hits, Hit{Record: rec, Distance: 1 - float64(r.Similarity)})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *ChromemStore) Get(ctx context.Context, id string) (*model.Record, error) {
	doc, err := s.coll.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	rec := fromDocument(doc.ID, doc.Content, doc.Embedding, doc.Metadata)
	return &rec, nil
}

func (s *ChromemStore) Count(_ context.Context) (int, error) {
	return s.coll.Count(), nil
}

func (s *ChromemStore) Close() error { return nil }

// containsFold matches SQLite's case-insensitive LIKE for ASCII.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
