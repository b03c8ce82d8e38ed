package ops

import (
	"context"
	"database/sql"

	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/db"
	"github.com/pcathey/trellis/internal/errors"
)

// AttachDocInput contains parameters for the AttachDoc operation. The
// surrogate fields are optional cached copies; the authoritative record goes
// through PutDocument.
type AttachDocInput struct {
	CardID       string
	AttachmentID string
	Kind         string // "text" or "image"
	Excerpt      *string
	Summary      *string
	Description  *string
	Version      *string
}

// AttachDocOutput contains the result of the AttachDoc operation.
type AttachDocOutput struct {
	CardID       string `json:"card_id"`
	AttachmentID string `json:"attachment_id"`
}

// AttachDoc attaches a document to a card.
func AttachDoc(ctx context.Context, database *sql.DB, cfg *config.Config, input AttachDocInput) (*AttachDocOutput, error) {
	if input.CardID == "" || input.AttachmentID == "" {
		return nil, errors.NewInvalidRequest("card_id and attachment_id are required")
	}

	kind := card.AttachmentKind(input.Kind)
	if input.Kind == "" {
		kind = card.AttachmentText
	}
	if kind != card.AttachmentText && kind != card.AttachmentImage {
		return nil, errors.NewInvalidRequest("kind must be one of: text, image")
	}

	if _, err := db.GetCard(database, input.CardID, false); err != nil {
		return nil, err
	}

	err := db.InsertAttachment(database, &card.Attachment{
		AttachmentID: input.AttachmentID,
		CardID:       input.CardID,
		Kind:         kind,
		Excerpt:      input.Excerpt,
		Summary:      input.Summary,
		Description:  input.Description,
		Version:      input.Version,
	})
	if err != nil {
		return nil, err
	}

	if err := refreshStaleness(ctx, database, cfg, input.CardID); err != nil {
		return nil, err
	}

	return &AttachDocOutput{CardID: input.CardID, AttachmentID: input.AttachmentID}, nil
}

// DetachDocInput contains parameters for the DetachDoc operation.
type DetachDocInput struct {
	CardID       string
	AttachmentID string
}

// DetachDocOutput contains the result of the DetachDoc operation.
type DetachDocOutput struct {
	CardID       string `json:"card_id"`
	AttachmentID string `json:"attachment_id"`
}

// DetachDoc removes an attachment from a card. The document store entry is
// left alone; other cards may reference it.
func DetachDoc(ctx context.Context, database *sql.DB, cfg *config.Config, input DetachDocInput) (*DetachDocOutput, error) {
	if input.CardID == "" || input.AttachmentID == "" {
		return nil, errors.NewInvalidRequest("card_id and attachment_id are required")
	}

	if err := db.DeleteAttachment(database, input.AttachmentID, input.CardID); err != nil {
		return nil, err
	}

	if err := refreshStaleness(ctx, database, cfg, input.CardID); err != nil {
		return nil, err
	}

	return &DetachDocOutput{CardID: input.CardID, AttachmentID: input.AttachmentID}, nil
}

// PutDocumentInput contains parameters for the PutDocument operation.
type PutDocumentInput struct {
	ID          string
	Kind        string // "text" or "image"
	Excerpt     *string
	Summary     *string
	Description *string
	Version     *string
}

// PutDocumentOutput contains the result of the PutDocument operation.
type PutDocumentOutput struct {
	ID string `json:"id"`
}

// PutDocument upserts an authoritative document store entry, typically
// called by the async processing pipeline when an excerpt, summary, or image
// description lands. Every card carrying the attachment gets a staleness
// refresh: the surrogate is a primary context input.
func PutDocument(ctx context.Context, database *sql.DB, cfg *config.Config, input PutDocumentInput) (*PutDocumentOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	kind := card.AttachmentKind(input.Kind)
	if input.Kind == "" {
		kind = card.AttachmentText
	}
	if kind != card.AttachmentText && kind != card.AttachmentImage {
		return nil, errors.NewInvalidRequest("kind must be one of: text, image")
	}

	err := db.UpsertDocument(database, &card.Document{
		ID:          input.ID,
		Kind:        kind,
		Excerpt:     input.Excerpt,
		Summary:     input.Summary,
		Description: input.Description,
		Version:     input.Version,
	})
	if err != nil {
		return nil, err
	}

	carriers, err := db.AllAttachments(database)
	if err != nil {
		return nil, err
	}
	for cardID, atts := range carriers {
		for _, a := range atts {
			if a.AttachmentID != input.ID {
				continue
			}
			if err := refreshStaleness(ctx, database, cfg, cardID); err != nil {
				return nil, err
			}
			break
		}
	}

	return &PutDocumentOutput{ID: input.ID}, nil
}
