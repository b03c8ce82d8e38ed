package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/db"
	"github.com/pcathey/trellis/internal/errors"
)

// StoreCardInput contains parameters for the StoreCard operation.
type StoreCardInput struct {
	Kind          string   // default: "answerable"
	Prompt        string   // required
	ParentIDs     []string // explicit ordered parent list
	Quote         *string  // fragment of an ancestor's response
	QuoteSourceID *string  // required when Quote is set
}

// StoreCardOutput contains the result of the StoreCard operation.
type StoreCardOutput struct {
	ID string `json:"id"`
}

// StoreCard creates a new card. Parents are recorded as the explicit ordered
// list; a brand-new card cannot introduce a cycle, so no guard is needed
// here.
func StoreCard(ctx context.Context, database *sql.DB, cfg *config.Config, input StoreCardInput) (*StoreCardOutput, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, errors.NewInvalidRequest("prompt is required")
	}

	kind := card.Kind(input.Kind)
	if input.Kind == "" {
		kind = card.KindAnswerable
	}
	if kind != card.KindAnswerable && kind != card.KindNote {
		return nil, errors.NewInvalidRequest("kind must be one of: answerable, note")
	}

	if err := validateQuote(input.Quote, input.QuoteSourceID); err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	c := &card.Card{
		ID:            id,
		Kind:          kind,
		Prompt:        input.Prompt,
		Quote:         input.Quote,
		QuoteSourceID: input.QuoteSourceID,
		ParentIDs:     dedupIDs(input.ParentIDs),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := db.InsertCard(database, c); err != nil {
		return nil, err
	}

	return &StoreCardOutput{ID: id}, nil
}

// validateQuote enforces quote/source pairing: a quote without its source
// card id can never be anchored.
func validateQuote(quote, sourceID *string) error {
	hasQuote := quote != nil && *quote != ""
	hasSource := sourceID != nil && *sourceID != ""
	if hasQuote != hasSource {
		return errors.NewInvalidRequest("quote and quote_source_id must be set together")
	}
	return nil
}

// dedupIDs drops duplicate ids preserving first-occurrence order.
func dedupIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
