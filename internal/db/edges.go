package db

import (
	"database/sql"
	"time"

	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/errors"
)

// InsertEdge records a parent->child link. Inserting an existing pair is a
// no-op so re-linking is idempotent.
func InsertEdge(db *sql.DB, sourceID, targetID string) error {
	_, err := db.Exec(`
		INSERT INTO edges (source_id, target_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(source_id, target_id) DO NOTHING
	`, sourceID, targetID, time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteEdge removes a parent->child link.
func DeleteEdge(db *sql.DB, sourceID, targetID string) error {
	result, err := db.Exec(
		`DELETE FROM edges WHERE source_id = ? AND target_id = ?`,
		sourceID, targetID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(sourceID + " -> " + targetID)
	}

	return nil
}

// AllEdges returns every edge in insertion (rowid) order. The snapshot
// depends on this order for deterministic incoming-edge parent resolution.
func AllEdges(db *sql.DB) ([]card.Edge, error) {
	rows, err := db.Query(`SELECT source_id, target_id, created_at FROM edges ORDER BY rowid`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []card.Edge
	for rows.Next() {
		var e card.Edge
		if err := rows.Scan(&e.SourceID, &e.TargetID, &e.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return out, nil
}
