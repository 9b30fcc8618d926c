package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/kjaylee/openclaw-mem/internal/embedding"
	"github.com/kjaylee/openclaw-mem/internal/model"
)

// SQLiteStore keeps records in an embedded SQLite database. Embeddings are
// stored as JSON arrays and similarity is computed in Go over the candidate
// rows; at the few-thousand-record scale of a memory workspace a full scan
// is faster than maintaining an ANN index.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path, table string) (*SQLiteStore, error) {
	if table == "" {
		table = "openclaw_memory"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Single-writer CLI; WAL keeps concurrent read commands from blocking.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	s := &SQLiteStore{db: db, table: table}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id          TEXT PRIMARY KEY,
	text        TEXT NOT NULL,
	source      TEXT NOT NULL,
	filename    TEXT NOT NULL,
	chunk_index INTEGER NOT NULL DEFAULT 0,
	date        TEXT NOT NULL DEFAULT '',
	tag         TEXT NOT NULL DEFAULT '',
	embedding   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_filename ON %[1]s(filename);
CREATE INDEX IF NOT EXISTS idx_%[1]s_tag ON %[1]s(tag);
`, s.table)
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, recs []model.Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (id, text, source, filename, chunk_index, date, tag, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range recs {
		emb, err := json.Marshal(rec.Vector)
		if err != nil {
			return fmt.Errorf("marshal embedding for %s: %w", rec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Text, rec.Source,
			rec.Filename, rec.ChunkIndex, rec.Date, rec.Tag, string(emb)); err != nil {
			return fmt.Errorf("insert %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Replace(ctx context.Context, recs []model.Record) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return fmt.Errorf("clear table: %w", err)
	}
	return s.Add(ctx, recs)
}

func (s *SQLiteStore) DeleteByFilename(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE filename = ?", s.table), filename)
	return err
}

func (s *SQLiteStore) Search(ctx context.Context, vector []float32, k int, f Filter) ([]Hit, error) {
	query := fmt.Sprintf(
		"SELECT id, text, source, filename, chunk_index, date, tag, embedding FROM %s WHERE 1=1", s.table)
	var args []any
	if f.SourceContains != "" {
		query += " AND source LIKE ?"
		args = append(args, "%"+f.SourceContains+"%")
	}
	if f.Tag != "" {
		query += " AND tag = ?"
		args = append(args, f.Tag)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var rec model.Record
		var emb string
		if err := rows.Scan(&rec.ID, &rec.Text, &rec.Source, &rec.Filename,
			&rec.ChunkIndex, &rec.Date, &rec.Tag, &emb); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(emb), &rec.Vector); err != nil {
			continue // unreadable embedding, skip the row
		}
		hits = append(hits, Hit{
			Record:   rec,
			Distance: 1 - embedding.CosineSimilarity(vector, rec.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT id, text, source, filename, chunk_index, date, tag, embedding FROM %s WHERE id = ?",
		s.table), id)

	var rec model.Record
	var emb string
	err := row.Scan(&rec.ID, &rec.Text, &rec.Source, &rec.Filename,
		&rec.ChunkIndex, &rec.Date, &rec.Tag, &emb)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(emb), &rec.Vector); err != nil {
		rec.Vector = nil
	}
	return &rec, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
