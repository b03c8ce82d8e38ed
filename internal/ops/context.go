package ops

import (
	"context"
	"database/sql"

	"github.com/pcathey/trellis/internal/assembly"
	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/db"
	"github.com/pcathey/trellis/internal/errors"
	"github.com/pcathey/trellis/internal/staleness"
)

// ContextInput contains parameters for the Context operation.
type ContextInput struct {
	CardID string
}

// ContextOutput contains the result of the Context operation.
type ContextOutput struct {
	CardID         string              `json:"card_id"`
	Blocks         []card.ContextBlock `json:"blocks"`
	ContextText    string              `json:"context_text"`
	Fingerprint    string              `json:"fingerprint"`
	IsStale        bool                `json:"is_stale"`
	TokensEstimate int                 `json:"tokens_estimate"`
}

// Context assembles a card's full context: the block sequence, the flattened
// generation text, the current fingerprint, and the stale flag. Preview,
// generation, and the web surface all read this one operation, so what the
// user inspects is exactly what generation would consume.
func Context(ctx context.Context, database *sql.DB, cfg *config.Config, input ContextInput) (*ContextOutput, error) {
	if input.CardID == "" {
		return nil, errors.NewInvalidRequest("card_id is required")
	}

	snap, docs, err := db.LoadSnapshot(database, cfg)
	if err != nil {
		return nil, err
	}
	target := snap.Card(input.CardID)
	if target == nil {
		return nil, errors.NewNotFound(input.CardID)
	}

	st := assembly.SettingsFor(cfg, target)
	blocks := assembly.Compile(snap, docs, input.CardID, st)
	text := assembly.Flatten(blocks)

	return &ContextOutput{
		CardID:         input.CardID,
		Blocks:         blocks,
		ContextText:    text,
		Fingerprint:    staleness.Fingerprint(snap, docs, input.CardID, st),
		IsStale:        target.IsStale,
		TokensEstimate: card.EstimateTokens(text),
	}, nil
}

// CommitResponseInput contains parameters for the CommitResponse operation.
type CommitResponseInput struct {
	CardID   string
	Response string
}

// CommitResponseOutput contains the result of the CommitResponse operation.
type CommitResponseOutput struct {
	CardID      string `json:"card_id"`
	Fingerprint string `json:"fingerprint"`
}

// CommitResponse saves a generated response together with the fingerprint of
// the context it was produced under, clearing the stale flag. Partial text
// from a cancelled generation commits the same way: the user chose to keep
// it, so it is a response like any other. Descendants consume this card's
// response as context, so their subtrees are refreshed afterwards.
func CommitResponse(ctx context.Context, database *sql.DB, cfg *config.Config, input CommitResponseInput) (*CommitResponseOutput, error) {
	if input.CardID == "" {
		return nil, errors.NewInvalidRequest("card_id is required")
	}
	if input.Response == "" {
		return nil, errors.NewInvalidRequest("response is required")
	}

	snap, docs, err := db.LoadSnapshot(database, cfg)
	if err != nil {
		return nil, err
	}
	if snap.Card(input.CardID) == nil {
		return nil, errors.NewNotFound(input.CardID)
	}

	fingerprint := staleness.FingerprintFor(snap, docs, cfg, input.CardID)
	if err := db.CommitResponse(database, input.CardID, input.Response, fingerprint); err != nil {
		return nil, err
	}

	if err := refreshStaleness(ctx, database, cfg, input.CardID); err != nil {
		return nil, err
	}

	return &CommitResponseOutput{CardID: input.CardID, Fingerprint: fingerprint}, nil
}
