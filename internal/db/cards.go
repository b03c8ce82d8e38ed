package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.TrellisError{
	Code:    errors.ErrConflict,
	Status:  409,
	Message: "unique constraint violation",
}

const cardColumns = `id, kind, prompt, response, summary, quote, quote_source_id,
	parent_id, parent_ids_json, excluded_ancestor_ids_json,
	excluded_attachment_ids_json, virtual_ancestor_ids_json,
	is_stale, last_context_fingerprint, created_at, updated_at, deleted_at`

// InsertCard stores a new card.
func InsertCard(db *sql.DB, c *card.Card) error {
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err := db.Exec(query,
		c.ID, string(c.Kind), c.Prompt,
		toNullString(c.Response), toNullString(c.Summary),
		toNullString(c.Quote), toNullString(c.QuoteSourceID),
		toNullString(c.ParentID),
		toJSONList(c.ParentIDs), toJSONList(c.ExcludedAncestorIDs),
		toJSONList(c.ExcludedAttachmentIDs), toJSONList(c.VirtualAncestorIDs),
		boolToInt(c.IsStale), toNullString(c.LastContextFingerprint),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	return nil
}

// GetCard retrieves a card by id. Attachments are not populated; use
// AttachmentsFor or LoadSnapshot for that.
// If includeDeleted is false, soft-deleted cards are excluded.
func GetCard(db *sql.DB, id string, includeDeleted bool) (*card.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	row := db.QueryRow(query, id)
	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return c, nil
}

// UpdateCard writes all mutable fields of an existing card and bumps
// updated_at. Does NOT change: id, kind, created_at.
func UpdateCard(db *sql.DB, c *card.Card) error {
	now := time.Now().Unix()

	query := `
		UPDATE cards
		SET prompt = ?, response = ?, summary = ?, quote = ?,
			quote_source_id = ?, parent_id = ?, parent_ids_json = ?,
			excluded_ancestor_ids_json = ?, excluded_attachment_ids_json = ?,
			virtual_ancestor_ids_json = ?, is_stale = ?,
			last_context_fingerprint = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.Exec(query,
		c.Prompt, toNullString(c.Response), toNullString(c.Summary),
		toNullString(c.Quote), toNullString(c.QuoteSourceID),
		toNullString(c.ParentID),
		toJSONList(c.ParentIDs), toJSONList(c.ExcludedAncestorIDs),
		toJSONList(c.ExcludedAttachmentIDs), toJSONList(c.VirtualAncestorIDs),
		boolToInt(c.IsStale), toNullString(c.LastContextFingerprint),
		now, c.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(c.ID)
	}

	c.UpdatedAt = now

	return nil
}

// SetStale flips a card's stale flag without touching updated_at: staleness
// is derived bookkeeping, not a user edit.
func SetStale(db *sql.DB, id string, stale bool) error {
	result, err := db.Exec(
		`UPDATE cards SET is_stale = ? WHERE id = ? AND deleted_at IS NULL`,
		boolToInt(stale), id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// CommitResponse writes a response and the fingerprint it was generated
// under in one statement, clearing the stale flag. The single UPDATE keeps
// response and fingerprint atomic: no reader can see one without the other.
func CommitResponse(db *sql.DB, id, response, fingerprint string) error {
	now := time.Now().Unix()

	result, err := db.Exec(`
		UPDATE cards
		SET response = ?, last_context_fingerprint = ?, is_stale = 0, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, response, fingerprint, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// SoftDeleteCard marks a card as deleted by setting deleted_at.
func SoftDeleteCard(db *sql.DB, id string) error {
	now := time.Now().Unix()

	result, err := db.Exec(
		`UPDATE cards SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// ListCards returns cards ordered by most recently updated. limit <= 0 means
// no limit. Soft-deleted cards are always excluded.
func ListCards(db *sql.DB, limit int) ([]*card.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE deleted_at IS NULL
		ORDER BY updated_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []*card.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return out, nil
}

// AllCards returns every card including soft-deleted ones, for snapshot
// loading (the snapshot itself filters deleted cards from resolution).
func AllCards(db *sql.DB) ([]*card.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY created_at, id`

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []*card.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return out, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanCard scans a single row into a Card struct.
func scanCard(row scanner) (*card.Card, error) {
	var (
		c            card.Card
		kind         string
		response     sql.NullString
		summary      sql.NullString
		quote        sql.NullString
		quoteSource  sql.NullString
		parentID     sql.NullString
		parentIDs    sql.NullString
		exclAnc      sql.NullString
		exclAtt      sql.NullString
		virtualIDs   sql.NullString
		isStale      int
		fingerprint  sql.NullString
		deletedAt    sql.NullInt64
	)

	err := row.Scan(
		&c.ID, &kind, &c.Prompt, &response, &summary, &quote, &quoteSource,
		&parentID, &parentIDs, &exclAnc, &exclAtt, &virtualIDs,
		&isStale, &fingerprint, &c.CreatedAt, &c.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Kind = card.Kind(kind)
	c.Response = fromNullString(response)
	c.Summary = fromNullString(summary)
	c.Quote = fromNullString(quote)
	c.QuoteSourceID = fromNullString(quoteSource)
	c.ParentID = fromNullString(parentID)
	c.IsStale = isStale != 0
	c.LastContextFingerprint = fromNullString(fingerprint)

	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Int64
	}

	if c.ParentIDs, err = fromJSONList(parentIDs); err != nil {
		return nil, err
	}
	if c.ExcludedAncestorIDs, err = fromJSONList(exclAnc); err != nil {
		return nil, err
	}
	if c.ExcludedAttachmentIDs, err = fromJSONList(exclAtt); err != nil {
		return nil, err
	}
	if c.VirtualAncestorIDs, err = fromJSONList(virtualIDs); err != nil {
		return nil, err
	}

	return &c, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// toJSONList converts an id list to a nullable JSON column value.
func toJSONList(ids []string) sql.NullString {
	if len(ids) == 0 {
		return sql.NullString{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

// fromJSONList parses a nullable JSON column back into an id list.
func fromJSONList(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
