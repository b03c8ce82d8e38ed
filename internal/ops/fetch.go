package ops

import (
	"context"
	"database/sql"

	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/db"
	"github.com/pcathey/trellis/internal/errors"
)

// FetchCardInput contains parameters for the FetchCard operation.
type FetchCardInput struct {
	ID             string
	IncludeDeleted bool
}

// FetchCardOutput contains the result of the FetchCard operation.
type FetchCardOutput struct {
	Card *card.Card `json:"card"`
}

// FetchCard retrieves a card with its attachments populated.
func FetchCard(ctx context.Context, database *sql.DB, cfg *config.Config, input FetchCardInput) (*FetchCardOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	c, err := db.GetCard(database, input.ID, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	c.Attachments, err = db.AttachmentsFor(database, c.ID)
	if err != nil {
		return nil, err
	}

	return &FetchCardOutput{Card: c}, nil
}

// ListCardsInput contains parameters for the ListCards operation.
type ListCardsInput struct {
	Limit int // default 20, max 100
}

// ListCardsOutput contains the result of the ListCards operation.
type ListCardsOutput struct {
	Cards []*card.Card `json:"cards"`
	Count int          `json:"count"`
}

// ListCards returns live cards, most recently updated first.
func ListCards(ctx context.Context, database *sql.DB, cfg *config.Config, input ListCardsInput) (*ListCardsOutput, error) {
	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)

	cards, err := db.ListCards(database, limit)
	if err != nil {
		return nil, err
	}

	return &ListCardsOutput{Cards: cards, Count: len(cards)}, nil
}
