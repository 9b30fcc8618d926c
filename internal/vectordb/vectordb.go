// Package vectordb stores embedded records and answers nearest-neighbor
// queries. Two backends: an embedded SQLite database (default) and a
// chromem-go persistent collection.
package vectordb

import (
	"context"
	"errors"
	"fmt"

	"github.com/kjaylee/openclaw-mem/internal/config"
	"github.com/kjaylee/openclaw-mem/internal/model"
)

// ErrNotFound is returned by Get when no record has the requested ID.
var ErrNotFound = errors.New("record not found")

// Filter narrows a search. Zero values mean no filtering.
type Filter struct {
	// SourceContains keeps records whose source path contains the substring.
	SourceContains string
	// Tag keeps records with exactly this observation tag.
	Tag string
}

// Hit is a record with its cosine distance from the query (lower is closer).
type Hit struct {
	model.Record
	Distance float64
}

// Store is the persistence interface shared by both backends.
type Store interface {
	// Add upserts records by ID.
	Add(ctx context.Context, recs []model.Record) error
	// Replace drops all existing records and inserts recs.
	Replace(ctx context.Context, recs []model.Record) error
	// DeleteByFilename removes every record originating from filename.
	DeleteByFilename(ctx context.Context, filename string) error
	// Search returns up to k hits sorted by ascending distance.
	Search(ctx context.Context, vector []float32, k int, f Filter) ([]Hit, error)
	// Get returns the record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Record, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open creates the store selected by cfg.StoreBackend.
func Open(cfg config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case "sqlite", "":
		return OpenSQLite(cfg.DBPath, cfg.Table)
	case "chromem":
		return OpenChromem(cfg.DBPath, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want sqlite or chromem)", cfg.StoreBackend)
	}
}
