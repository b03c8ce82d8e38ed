package ops

import (
	"context"
	"database/sql"

	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/db"
	"github.com/pcathey/trellis/internal/errors"
)

// LinkCardsInput contains parameters for the LinkCards and UnlinkCards
// operations. SourceID becomes a parent of TargetID.
type LinkCardsInput struct {
	SourceID string
	TargetID string
}

// LinkCardsOutput contains the result of a link mutation.
type LinkCardsOutput struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// LinkCards records a parent->child edge. Linking a card to itself or to one
// of its own descendants would make it its own ancestor and is rejected.
func LinkCards(ctx context.Context, database *sql.DB, cfg *config.Config, input LinkCardsInput) (*LinkCardsOutput, error) {
	if input.SourceID == "" || input.TargetID == "" {
		return nil, errors.NewInvalidRequest("source_id and target_id are required")
	}
	if input.SourceID == input.TargetID {
		return nil, errors.NewCycle(input.SourceID, input.TargetID)
	}

	snap, _, err := db.LoadSnapshot(database, cfg)
	if err != nil {
		return nil, err
	}
	if snap.Card(input.SourceID) == nil {
		return nil, errors.NewNotFound(input.SourceID)
	}
	if snap.Card(input.TargetID) == nil {
		return nil, errors.NewNotFound(input.TargetID)
	}
	// The new parent must not already sit below the child.
	if snap.IsAncestorOf(input.SourceID, input.TargetID) {
		return nil, errors.NewCycle(input.SourceID, input.TargetID)
	}

	if err := db.InsertEdge(database, input.SourceID, input.TargetID); err != nil {
		return nil, err
	}

	if err := refreshStaleness(ctx, database, cfg, input.TargetID); err != nil {
		return nil, err
	}

	return &LinkCardsOutput{SourceID: input.SourceID, TargetID: input.TargetID}, nil
}

// UnlinkCards removes a parent->child edge.
func UnlinkCards(ctx context.Context, database *sql.DB, cfg *config.Config, input LinkCardsInput) (*LinkCardsOutput, error) {
	if input.SourceID == "" || input.TargetID == "" {
		return nil, errors.NewInvalidRequest("source_id and target_id are required")
	}

	if err := db.DeleteEdge(database, input.SourceID, input.TargetID); err != nil {
		return nil, err
	}

	if err := refreshStaleness(ctx, database, cfg, input.TargetID); err != nil {
		return nil, err
	}

	return &LinkCardsOutput{SourceID: input.SourceID, TargetID: input.TargetID}, nil
}

// SetParentsInput contains parameters for the SetParents operation.
type SetParentsInput struct {
	ID        string
	ParentIDs []string
}

// SetParentsOutput contains the result of the SetParents operation.
type SetParentsOutput struct {
	ID        string   `json:"id"`
	ParentIDs []string `json:"parent_ids"`
}

// SetParents replaces a card's explicit ordered parent list, the
// highest-priority parent mechanism. Each proposed parent is cycle-checked
// against the current graph.
func SetParents(ctx context.Context, database *sql.DB, cfg *config.Config, input SetParentsInput) (*SetParentsOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	snap, _, err := db.LoadSnapshot(database, cfg)
	if err != nil {
		return nil, err
	}
	if snap.Card(input.ID) == nil {
		return nil, errors.NewNotFound(input.ID)
	}

	parents := dedupIDs(input.ParentIDs)
	for _, pid := range parents {
		if pid == input.ID || snap.IsAncestorOf(pid, input.ID) {
			return nil, errors.NewCycle(pid, input.ID)
		}
	}

	c, err := db.GetCard(database, input.ID, false)
	if err != nil {
		return nil, err
	}
	c.ParentIDs = parents
	if err := db.UpdateCard(database, c); err != nil {
		return nil, err
	}

	if err := refreshStaleness(ctx, database, cfg, input.ID); err != nil {
		return nil, err
	}

	return &SetParentsOutput{ID: input.ID, ParentIDs: parents}, nil
}
