package db

import (
	"database/sql"
	"time"

	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/errors"
)

// InsertAttachment adds an attachment row to a card. The cached surrogate
// fields are optional; the authoritative copies live in documents.
func InsertAttachment(db *sql.DB, a *card.Attachment) error {
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}

	_, err := db.Exec(`
		INSERT INTO attachments (attachment_id, card_id, kind, excerpt, summary, description, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.AttachmentID, a.CardID, string(a.Kind),
		toNullString(a.Excerpt), toNullString(a.Summary),
		toNullString(a.Description), toNullString(a.Version), a.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	return nil
}

// DeleteAttachment removes an attachment row from a card. The document store
// entry is untouched: other cards may still reference it.
func DeleteAttachment(db *sql.DB, attachmentID, cardID string) error {
	result, err := db.Exec(
		`DELETE FROM attachments WHERE attachment_id = ? AND card_id = ?`,
		attachmentID, cardID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(attachmentID)
	}

	return nil
}

// AttachmentsFor returns a card's attachments in insertion order.
func AttachmentsFor(db *sql.DB, cardID string) ([]card.Attachment, error) {
	rows, err := db.Query(`
		SELECT attachment_id, card_id, kind, excerpt, summary, description, version, created_at
		FROM attachments
		WHERE card_id = ?
		ORDER BY rowid
	`, cardID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return scanAttachments(rows)
}

// AllAttachments returns every attachment grouped by owning card, for
// snapshot loading.
func AllAttachments(db *sql.DB) (map[string][]card.Attachment, error) {
	rows, err := db.Query(`
		SELECT attachment_id, card_id, kind, excerpt, summary, description, version, created_at
		FROM attachments
		ORDER BY rowid
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	all, err := scanAttachments(rows)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]card.Attachment)
	for _, a := range all {
		out[a.CardID] = append(out[a.CardID], a)
	}
	return out, nil
}

func scanAttachments(rows *sql.Rows) ([]card.Attachment, error) {
	var out []card.Attachment
	for rows.Next() {
		var (
			a           card.Attachment
			kind        string
			excerpt     sql.NullString
			summary     sql.NullString
			description sql.NullString
			version     sql.NullString
		)
		err := rows.Scan(&a.AttachmentID, &a.CardID, &kind,
			&excerpt, &summary, &description, &version, &a.CreatedAt)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		a.Kind = card.AttachmentKind(kind)
		a.Excerpt = fromNullString(excerpt)
		a.Summary = fromNullString(summary)
		a.Description = fromNullString(description)
		a.Version = fromNullString(version)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}
