package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/db"
	"github.com/pcathey/trellis/internal/errors"
)

// UpdateCardInput contains parameters for the UpdateCard operation.
// Nil pointer fields are left untouched; ClearQuote removes the quote anchor.
type UpdateCardInput struct {
	ID            string
	Prompt        *string
	Summary       *string
	Quote         *string
	QuoteSourceID *string
	ClearQuote    bool
}

// UpdateCardOutput contains the result of the UpdateCard operation.
type UpdateCardOutput struct {
	ID string `json:"id"`
}

// UpdateCard edits a card's content fields. Prompt, quote, and summary edits
// all feed descendant fingerprints, so the staleness refresh runs over the
// card's subtree afterwards.
func UpdateCard(ctx context.Context, database *sql.DB, cfg *config.Config, input UpdateCardInput) (*UpdateCardOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	c, err := db.GetCard(database, input.ID, false)
	if err != nil {
		return nil, err
	}

	if input.Prompt != nil {
		if strings.TrimSpace(*input.Prompt) == "" {
			return nil, errors.NewInvalidRequest("prompt must not be empty")
		}
		c.Prompt = *input.Prompt
	}
	if input.Summary != nil {
		c.Summary = input.Summary
	}
	if input.ClearQuote {
		c.Quote = nil
		c.QuoteSourceID = nil
	} else if input.Quote != nil || input.QuoteSourceID != nil {
		quote := c.Quote
		source := c.QuoteSourceID
		if input.Quote != nil {
			quote = input.Quote
		}
		if input.QuoteSourceID != nil {
			source = input.QuoteSourceID
		}
		if err := validateQuote(quote, source); err != nil {
			return nil, err
		}
		c.Quote = quote
		c.QuoteSourceID = source
	}

	if err := db.UpdateCard(database, c); err != nil {
		return nil, err
	}

	if err := refreshStaleness(ctx, database, cfg, c.ID); err != nil {
		return nil, err
	}

	return &UpdateCardOutput{ID: c.ID}, nil
}

// DeleteCardInput contains parameters for the DeleteCard operation.
type DeleteCardInput struct {
	ID string
}

// DeleteCardOutput contains the result of the DeleteCard operation.
type DeleteCardOutput struct {
	ID string `json:"id"`
}

// DeleteCard soft-deletes a card. Its children lose an ancestor, so their
// subtrees are refreshed; the children are captured before the delete since
// the deleted card no longer resolves afterwards.
func DeleteCard(ctx context.Context, database *sql.DB, cfg *config.Config, input DeleteCardInput) (*DeleteCardOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	snap, _, err := db.LoadSnapshot(database, cfg)
	if err != nil {
		return nil, err
	}
	children := snap.ChildrenOf(input.ID)

	if err := db.SoftDeleteCard(database, input.ID); err != nil {
		return nil, err
	}

	for _, child := range children {
		if err := refreshStaleness(ctx, database, cfg, child.ID); err != nil {
			return nil, err
		}
	}

	return &DeleteCardOutput{ID: input.ID}, nil
}
