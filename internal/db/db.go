package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pcathey/trellis/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/trellis.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.trellis.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "trellis.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify WAL mode is active
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
// Call after Init if you need to tune pool behavior for contention.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS cards (
		  id                            TEXT PRIMARY KEY,
		  kind                          TEXT NOT NULL,
		  prompt                        TEXT NOT NULL,
		  response                      TEXT,
		  summary                       TEXT,
		  quote                         TEXT,
		  quote_source_id               TEXT,
		  parent_id                     TEXT,
		  parent_ids_json               TEXT,
		  excluded_ancestor_ids_json    TEXT,
		  excluded_attachment_ids_json  TEXT,
		  virtual_ancestor_ids_json     TEXT,
		  is_stale                      INTEGER NOT NULL DEFAULT 0,
		  last_context_fingerprint      TEXT,
		  created_at                    INTEGER NOT NULL,
		  updated_at                    INTEGER NOT NULL,
		  deleted_at                    INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_cards_updated
		ON cards(updated_at DESC)
		WHERE deleted_at IS NULL;

		-- Edge insertion order is load-bearing: the snapshot resolves
		-- incoming-edge parents in rowid order.
		CREATE TABLE IF NOT EXISTS edges (
		  source_id   TEXT NOT NULL,
		  target_id   TEXT NOT NULL,
		  created_at  INTEGER NOT NULL,
		  UNIQUE(source_id, target_id)
		);

		CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
		CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);

		CREATE TABLE IF NOT EXISTS attachments (
		  attachment_id  TEXT NOT NULL,
		  card_id        TEXT NOT NULL,
		  kind           TEXT NOT NULL,
		  excerpt        TEXT,
		  summary        TEXT,
		  description    TEXT,
		  version        TEXT,
		  created_at     INTEGER NOT NULL,
		  PRIMARY KEY (attachment_id, card_id)
		);

		CREATE INDEX IF NOT EXISTS idx_attachments_card ON attachments(card_id);

		CREATE TABLE IF NOT EXISTS documents (
		  id           TEXT PRIMARY KEY,
		  kind         TEXT NOT NULL,
		  excerpt      TEXT,
		  summary      TEXT,
		  description  TEXT,
		  version      TEXT,
		  updated_at   INTEGER NOT NULL
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS cards_fts USING fts5(
		  prompt, response, summary,
		  content='cards', content_rowid='rowid'
		);

		CREATE TRIGGER IF NOT EXISTS cards_fts_insert AFTER INSERT ON cards BEGIN
		  INSERT INTO cards_fts(rowid, prompt, response, summary)
		  VALUES (new.rowid, new.prompt, coalesce(new.response, ''), coalesce(new.summary, ''));
		END;

		CREATE TRIGGER IF NOT EXISTS cards_fts_delete AFTER DELETE ON cards BEGIN
		  INSERT INTO cards_fts(cards_fts, rowid, prompt, response, summary)
		  VALUES ('delete', old.rowid, old.prompt, coalesce(old.response, ''), coalesce(old.summary, ''));
		END;

		CREATE TRIGGER IF NOT EXISTS cards_fts_update AFTER UPDATE ON cards BEGIN
		  INSERT INTO cards_fts(cards_fts, rowid, prompt, response, summary)
		  VALUES ('delete', old.rowid, old.prompt, coalesce(old.response, ''), coalesce(old.summary, ''));
		  INSERT INTO cards_fts(rowid, prompt, response, summary)
		  VALUES (new.rowid, new.prompt, coalesce(new.response, ''), coalesce(new.summary, ''));
		END;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
