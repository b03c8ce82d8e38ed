package ops

import (
	"context"
	"database/sql"

	"github.com/pcathey/trellis/internal/assembly"
	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/db"
	"github.com/pcathey/trellis/internal/errors"
)

// VirtualCandidatesInput contains parameters for the VirtualCandidates
// operation. Query defaults to the card's prompt.
type VirtualCandidatesInput struct {
	CardID string
	Query  string
	Limit  int
}

// VirtualCandidatesOutput contains the result of the VirtualCandidates
// operation.
type VirtualCandidatesOutput struct {
	Candidates []assembly.Candidate `json:"candidates"`
}

// VirtualCandidates ranks cards semantically related to the target and
// filters out everything that may never become a virtual ancestor: the card
// itself, its true lineage, dead ids, and hits below the similarity
// threshold. Survivors are capped to the configured top-K.
func VirtualCandidates(ctx context.Context, database *sql.DB, cfg *config.Config, input VirtualCandidatesInput) (*VirtualCandidatesOutput, error) {
	if input.CardID == "" {
		return nil, errors.NewInvalidRequest("card_id is required")
	}

	snap, _, err := db.LoadSnapshot(database, cfg)
	if err != nil {
		return nil, err
	}
	target := snap.Card(input.CardID)
	if target == nil {
		return nil, errors.NewNotFound(input.CardID)
	}

	query := input.Query
	if query == "" {
		query = target.Prompt
	}

	provider := &db.SearchProvider{DB: database}
	// Over-fetch so lineage filtering still leaves enough survivors.
	hits, err := provider.Search(query, clampLimit(input.Limit, DefaultSearchLimit, MaxSearchLimit)+cfg.VirtualTopK)
	if err != nil {
		return nil, err
	}

	scored := hits[:0]
	for _, h := range hits {
		if h.Score >= cfg.SimilarityThreshold {
			scored = append(scored, h)
		}
	}

	candidates := assembly.FilterVirtual(snap, input.CardID, scored, cfg.VirtualTopK)

	return &VirtualCandidatesOutput{Candidates: candidates}, nil
}

// SetVirtualAncestorsInput contains parameters for the SetVirtualAncestors
// operation.
type SetVirtualAncestorsInput struct {
	CardID string
	IDs    []string
}

// SetVirtualAncestorsOutput contains the result of the SetVirtualAncestors
// operation.
type SetVirtualAncestorsOutput struct {
	CardID string   `json:"card_id"`
	IDs    []string `json:"ids"`
}

// SetVirtualAncestors stores the card's virtual-ancestor list. Ids that are
// lineage or dead are dropped up front; assembly re-checks at compile time
// anyway, since the graph can shift after storing.
func SetVirtualAncestors(ctx context.Context, database *sql.DB, cfg *config.Config, input SetVirtualAncestorsInput) (*SetVirtualAncestorsOutput, error) {
	if input.CardID == "" {
		return nil, errors.NewInvalidRequest("card_id is required")
	}

	snap, _, err := db.LoadSnapshot(database, cfg)
	if err != nil {
		return nil, err
	}
	if snap.Card(input.CardID) == nil {
		return nil, errors.NewNotFound(input.CardID)
	}

	var candidates []assembly.Candidate
	for _, id := range dedupIDs(input.IDs) {
		candidates = append(candidates, assembly.Candidate{CardID: id})
	}
	kept := assembly.FilterVirtual(snap, input.CardID, candidates, cfg.VirtualTopK)

	ids := make([]string, 0, len(kept))
	for _, k := range kept {
		ids = append(ids, k.CardID)
	}

	c, err := db.GetCard(database, input.CardID, false)
	if err != nil {
		return nil, err
	}
	c.VirtualAncestorIDs = ids
	if err := db.UpdateCard(database, c); err != nil {
		return nil, err
	}

	if err := refreshStaleness(ctx, database, cfg, input.CardID); err != nil {
		return nil, err
	}

	return &SetVirtualAncestorsOutput{CardID: input.CardID, IDs: ids}, nil
}

// SearchCardsInput contains parameters for the SearchCards operation.
type SearchCardsInput struct {
	Query string
	Limit int
}

// SearchCardsOutput contains the result of the SearchCards operation.
type SearchCardsOutput struct {
	Hits []assembly.Candidate `json:"hits"`
}

// SearchCards runs a plain full-text search over prompts and responses.
func SearchCards(ctx context.Context, database *sql.DB, cfg *config.Config, input SearchCardsInput) (*SearchCardsOutput, error) {
	if input.Query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}

	provider := &db.SearchProvider{DB: database}
	hits, err := provider.Search(input.Query, clampLimit(input.Limit, DefaultSearchLimit, MaxSearchLimit))
	if err != nil {
		return nil, err
	}

	return &SearchCardsOutput{Hits: hits}, nil
}
