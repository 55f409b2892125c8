package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"ragify/internal/logger"
)

func init() {
	sqlite_vec.Auto()
}

// Store provides persistence for embedded chunks.
type Store interface {
	// Insert appends records. Vectors must match the store dimension.
	Insert(ctx context.Context, records []Record) error
	// Search returns up to k records ranked by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(ctx context.Context, key string) (string, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(ctx context.Context, key, value string) error
	// DeleteAll removes every record. Metadata is kept.
	DeleteAll(ctx context.Context) error
	// Close releases the underlying resources.
	Close() error
}

// Backend reports where records are kept.
type Backend int

const (
	// Persisted records live in a SQLite database on disk.
	Persisted Backend = iota
	// Ephemeral records live in memory and are lost on exit.
	Ephemeral
)

func (b Backend) String() string {
	if b == Persisted {
		return "persisted"
	}
	return "ephemeral"
}

// Open opens the SQLite store at path. If the database cannot be created
// or initialized, a warning is logged and an in-memory store is returned
// instead. An empty path selects the in-memory store directly.
func Open(path string, dim int) (Store, Backend) {
	if path == "" {
		return NewMemoryStore(), Ephemeral
	}
	s, err := OpenSQLite(path, dim)
	if err != nil {
		logger.Warn("persistent index unavailable at %s, using in-memory index: %v", path, err)
		return NewMemoryStore(), Ephemeral
	}
	return s, Persisted
}

// SQLiteStore implements Store backed by SQLite + sqlite-vec.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path and
// initializes the schema for vectors of length dim.
func OpenSQLite(dbPath string, dim int) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db, dim); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	docStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO documents (record_id, text, source, url, title, chunk_index) VALUES (?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return err
	}
	defer docStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, "INSERT INTO vec_documents (doc_id, embedding) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer vecStmt.Close()

	for _, r := range records {
		m := r.Metadata
		res, err := docStmt.ExecContext(ctx, r.ID, r.Text, m.Source, m.URL, m.Title, m.ChunkIndex)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
		docID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		blob, err := sqlite_vec.SerializeFloat32(r.Vector)
		if err != nil {
			return fmt.Errorf("serialize embedding for record %s: %w", r.ID, err)
		}
		if _, err := vecStmt.ExecContext(ctx, docID, blob); err != nil {
			return fmt.Errorf("insert embedding for record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		WITH knn AS (
			SELECT doc_id, distance
			FROM vec_documents
			WHERE embedding MATCH ? AND k = ?
		)
		SELECT d.record_id, d.text, d.source, d.url, d.title, d.chunk_index, knn.distance
		FROM knn
		JOIN documents d ON d.id = knn.doc_id
		ORDER BY knn.distance, d.id
	`, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h        Hit
			distance sql.NullFloat64
		)
		err := rows.Scan(
			&h.ID, &h.Text,
			&h.Metadata.Source, &h.Metadata.URL, &h.Metadata.Title, &h.Metadata.ChunkIndex,
			&distance,
		)
		if err != nil {
			return nil, err
		}
		// Zero vectors have no defined cosine distance.
		if distance.Valid {
			h.Similarity = clamp01(1 - distance.Float64)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vec_documents"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
