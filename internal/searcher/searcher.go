// Package searcher answers semantic queries over the vector store.
//
// Two retrieval shapes: Search returns full chunk content; SearchIndex
// returns compact summaries so an agent can triage cheaply and then pull
// only the chunks it needs via GetDetail.
package searcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/kjaylee/openclaw-mem/internal/config"
	"github.com/kjaylee/openclaw-mem/internal/embedding"
	"github.com/kjaylee/openclaw-mem/internal/model"
	"github.com/kjaylee/openclaw-mem/internal/vectordb"
)

// summaryLen caps the excerpt in index-mode results.
const summaryLen = 120

// Params configures one search.
type Params struct {
	Query    string
	TopK     int     // <= 0 selects the default
	Source   string  // substring filter on source path
	Tag      string  // exact observation tag filter
	MinScore float64 // drop results scoring below this
}

// Searcher runs embed-then-rank queries against a store.
type Searcher struct {
	store    vectordb.Store
	embedder embedding.Embedder
}

func New(store vectordb.Store, embedder embedding.Embedder) *Searcher {
	return &Searcher{store: store, embedder: embedder}
}

// Search returns the top matches with full content, highest score first.
// Score is cosine similarity in [0, 1]; results below MinScore are dropped.
func (s *Searcher) Search(ctx context.Context, p Params) ([]model.SearchResult, error) {
	hits, err := s.query(ctx, p)
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(hits))
	for _, h := range hits {
		score := 1 - h.Distance
		if score < p.MinScore {
			continue
		}
		results = append(results, toResult(h.Record, score))
	}
	return results, nil
}

// SearchIndex is the cheap first phase: summaries only, no chunk content.
func (s *Searcher) SearchIndex(ctx context.Context, p Params) ([]model.Summary, error) {
	hits, err := s.query(ctx, p)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.Summary, 0, len(hits))
	for _, h := range hits {
		score := 1 - h.Distance
		if score < p.MinScore {
			continue
		}
		summaries = append(summaries, model.Summary{
			ID:      h.ID,
			Source:  h.Source,
			Score:   score,
			Summary: summarize(h.Text),
			Tag:     h.Tag,
		})
	}
	return summaries, nil
}

// GetDetail is the second phase: full content for one ID from the index
// phase. Returns vectordb.ErrNotFound for unknown IDs.
func (s *Searcher) GetDetail(ctx context.Context, id string) (*model.SearchResult, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toResult(*rec, 0)
	return &result, nil
}

func (s *Searcher) query(ctx context.Context, p Params) ([]vectordb.Hit, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, fmt.Errorf("empty query")
	}
	topK := p.TopK
	if topK <= 0 {
		topK = config.DefaultTopK
	}

	vec, err := s.embedder.EmbedSingle(ctx, p.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return s.store.Search(ctx, vec, topK, vectordb.Filter{
		SourceContains: p.Source,
		Tag:            p.Tag,
	})
}

// summarize keeps the first line, truncated to summaryLen.
func summarize(text string) string {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if runes := []rune(line); len(runes) > summaryLen {
		line = string(runes[:summaryLen])
	}
	return line
}

func toResult(rec model.Record, score float64) model.SearchResult {
	return model.SearchResult{
		ID:      rec.ID,
		Source:  rec.Source,
		Content: rec.Text,
		Score:   score,
		Metadata: model.ResultMeta{
			Filename:   rec.Filename,
			ChunkIndex: rec.ChunkIndex,
			Date:       rec.Date,
			Tag:        rec.Tag,
		},
	}
}
