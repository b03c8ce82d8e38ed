package db

import (
	"database/sql"

	"github.com/pcathey/trellis/internal/assembly"
	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/graph"
)

// LoadSnapshot reads the whole card graph and document store into an
// immutable in-memory snapshot. Operations load one snapshot per request:
// within a single assembly or staleness pass the graph never shifts
// underfoot, and determinism follows.
func LoadSnapshot(db *sql.DB, cfg *config.Config) (*graph.Snapshot, assembly.DocumentSet, error) {
	cards, err := AllCards(db)
	if err != nil {
		return nil, nil, err
	}

	attachments, err := AllAttachments(db)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range cards {
		c.Attachments = attachments[c.ID]
	}

	edges, err := AllEdges(db)
	if err != nil {
		return nil, nil, err
	}

	documents, err := AllDocuments(db)
	if err != nil {
		return nil, nil, err
	}

	snap := graph.NewSnapshot(cards, edges)
	if cfg != nil && cfg.MaxTraversal > 0 {
		snap.SetMaxTraversal(cfg.MaxTraversal)
	}

	return snap, assembly.DocumentSet(documents), nil
}
