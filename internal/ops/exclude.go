package ops

import (
	"context"
	"database/sql"

	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/db"
	"github.com/pcathey/trellis/internal/errors"
)

// ToggleExcludeInput contains parameters for the exclusion toggles. TargetID
// is the ancestor card id or attachment id being toggled.
type ToggleExcludeInput struct {
	CardID   string
	TargetID string
}

// ToggleExcludeOutput contains the result of an exclusion toggle.
type ToggleExcludeOutput struct {
	CardID   string `json:"card_id"`
	TargetID string `json:"target_id"`
	Excluded bool   `json:"excluded"`
}

// ToggleExcludeAncestor flips an ancestor in or out of the card's exclusion
// registry. Ids that are not currently ancestors are accepted: exclusions
// survive re-parenting, and a stored id that never matches simply has no
// effect on assembly.
func ToggleExcludeAncestor(ctx context.Context, database *sql.DB, cfg *config.Config, input ToggleExcludeInput) (*ToggleExcludeOutput, error) {
	return toggleExclusion(ctx, database, cfg, input, false)
}

// ToggleExcludeAttachment flips an attachment in or out of the card's
// exclusion registry.
func ToggleExcludeAttachment(ctx context.Context, database *sql.DB, cfg *config.Config, input ToggleExcludeInput) (*ToggleExcludeOutput, error) {
	return toggleExclusion(ctx, database, cfg, input, true)
}

func toggleExclusion(ctx context.Context, database *sql.DB, cfg *config.Config, input ToggleExcludeInput, attachment bool) (*ToggleExcludeOutput, error) {
	if input.CardID == "" || input.TargetID == "" {
		return nil, errors.NewInvalidRequest("card_id and target_id are required")
	}

	c, err := db.GetCard(database, input.CardID, false)
	if err != nil {
		return nil, err
	}

	var excluded bool
	if attachment {
		c.ExcludedAttachmentIDs, excluded = toggleID(c.ExcludedAttachmentIDs, input.TargetID)
	} else {
		c.ExcludedAncestorIDs, excluded = toggleID(c.ExcludedAncestorIDs, input.TargetID)
	}

	if err := db.UpdateCard(database, c); err != nil {
		return nil, err
	}

	if err := refreshStaleness(ctx, database, cfg, input.CardID); err != nil {
		return nil, err
	}

	return &ToggleExcludeOutput{
		CardID:   input.CardID,
		TargetID: input.TargetID,
		Excluded: excluded,
	}, nil
}

// toggleID removes id if present, appends it if not, and reports whether it
// is present afterwards.
func toggleID(ids []string, id string) ([]string, bool) {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...), false
		}
	}
	return append(ids, id), true
}
