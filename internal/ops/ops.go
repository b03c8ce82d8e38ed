// Package ops implements the operation layer shared by the CLI, the MCP
// server, and the web preview. Every operation is a function of the database
// plus an input struct; graph reads go through a snapshot loaded at the top
// of the operation, and every mutation ends with a staleness refresh over the
// affected subtree.
package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/db"
	"github.com/pcathey/trellis/internal/staleness"
)

// Pagination limits
const (
	DefaultListLimit   = 20
	MaxListLimit       = 100
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// refreshStaleness recomputes fingerprints for rootID and its descendants
// against a fresh snapshot and persists any stale-flag flips. Mutating
// operations call this last, after their own writes are durable.
func refreshStaleness(ctx context.Context, database *sql.DB, cfg *config.Config, rootID string) error {
	snap, docs, err := db.LoadSnapshot(database, cfg)
	if err != nil {
		return err
	}

	for _, change := range staleness.Refresh(snap, docs, cfg, rootID) {
		if err := db.SetStale(database, change.CardID, change.IsStale); err != nil {
			return err
		}
	}
	return nil
}

// clampLimit applies default and ceiling to a caller-supplied limit.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
