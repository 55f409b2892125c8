package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

const ddl = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS documents (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    record_id   TEXT NOT NULL UNIQUE,
    text        TEXT NOT NULL,
    source      TEXT NOT NULL DEFAULT '',
    url         TEXT NOT NULL DEFAULT '',
    title       TEXT NOT NULL DEFAULT '',
    chunk_index INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const vecDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS vec_documents USING vec0(
    doc_id INTEGER PRIMARY KEY,
    embedding float[%d] distance_metric=cosine
);
`

const metaDimension = "embedding_dim"

// Init creates the schema tables if they don't exist. The vector table is
// sized to dim; if it was created with another dimension it is dropped and
// all documents are cleared.
func Init(db *sql.DB, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dim)
	}
	if _, err := db.Exec(ddl); err != nil {
		return err
	}

	var stored string
	err := db.QueryRow("SELECT value FROM meta WHERE key = ?", metaDimension).Scan(&stored)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if stored != "" && stored != strconv.Itoa(dim) {
		if _, err := db.Exec("DROP TABLE IF EXISTS vec_documents"); err != nil {
			return fmt.Errorf("drop vector table: %w", err)
		}
		if _, err := db.Exec("DELETE FROM documents"); err != nil {
			return fmt.Errorf("clear documents: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf(vecDDL, dim)); err != nil {
		return fmt.Errorf("create vector table: %w", err)
	}
	_, err = db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		metaDimension, strconv.Itoa(dim),
	)
	return err
}
