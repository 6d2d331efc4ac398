// Package sqlitestore is a durable store.SiteStore/SnapshotStore/
// AlertStore/JobStore implementation backed by modernc.org/sqlite (pure
// Go, no cgo): a single *sql.DB and schema created on open. Query
// failures are returned as StorageErrors; only a schema-creation failure
// is also logged through zerolog.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store wraps a sqlite connection used by every port adapter in this
// package.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if absent) the sqlite database at path and
// ensures the schema exists.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "sqlitestore").Logger()
	logger.Info().Str("path", path).Msg("opening store")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		display_name TEXT,
		schedule_kind TEXT NOT NULL,
		schedule_expression TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		max_depth INTEGER NOT NULL DEFAULT 0,
		priority INTEGER NOT NULL DEFAULT 0,
		similarity_threshold REAL NOT NULL DEFAULT 0,
		structural_threshold REAL NOT NULL DEFAULT 0,
		critical_change_threshold REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		site_id TEXT NOT NULL REFERENCES sites(id),
		captured_at DATETIME NOT NULL,
		http_status INTEGER,
		response_time_ms INTEGER,
		raw_html BLOB,
		extracted_text TEXT,
		content_hash TEXT,
		structure_hash TEXT,
		text_block_hash TEXT,
		semantic_hash TEXT,
		vector_ref TEXT,
		verdict TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		truncated INTEGER NOT NULL DEFAULT 0,
		depth INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_site_captured
		ON snapshots(site_id, captured_at DESC);
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		site_id TEXT NOT NULL,
		snapshot_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		title TEXT,
		description TEXT,
		verdict_label TEXT,
		confidence REAL,
		similarity REAL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		site_id TEXT NOT NULL UNIQUE,
		next_run_at DATETIME NOT NULL,
		last_run_at DATETIME,
		last_success_at DATETIME,
		retry_count INTEGER NOT NULL DEFAULT 0,
		max_retries INTEGER NOT NULL DEFAULT 0,
		consecutive_failures INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS vectors (
		id TEXT PRIMARY KEY,
		site_id TEXT NOT NULL,
		snapshot_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		dimension INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_vectors_site_snapshot
		ON vectors(site_id, snapshot_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		s.logger.Error().Err(err).Msg("failed to initialize schema")
		return err
	}
	return nil
}
