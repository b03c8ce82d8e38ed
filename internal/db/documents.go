package db

import (
	"database/sql"
	"time"

	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/errors"
)

// UpsertDocument writes a document store entry, replacing surrogate fields
// wholesale. The async pipeline always sends the full record it knows, so a
// field it sends as null really is absent.
func UpsertDocument(db *sql.DB, d *card.Document) error {
	now := time.Now().Unix()

	_, err := db.Exec(`
		INSERT INTO documents (id, kind, excerpt, summary, description, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			excerpt = excluded.excerpt,
			summary = excluded.summary,
			description = excluded.description,
			version = excluded.version,
			updated_at = excluded.updated_at
	`, d.ID, string(d.Kind),
		toNullString(d.Excerpt), toNullString(d.Summary),
		toNullString(d.Description), toNullString(d.Version), now,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	d.UpdatedAt = now

	return nil
}

// GetDocument retrieves a document store entry by id.
func GetDocument(db *sql.DB, id string) (*card.Document, error) {
	row := db.QueryRow(`
		SELECT id, kind, excerpt, summary, description, version, updated_at
		FROM documents WHERE id = ?
	`, id)

	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return d, nil
}

// AllDocuments loads the whole document store keyed by id, for snapshot
// loading.
func AllDocuments(db *sql.DB) (map[string]*card.Document, error) {
	rows, err := db.Query(`
		SELECT id, kind, excerpt, summary, description, version, updated_at
		FROM documents
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := make(map[string]*card.Document)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return out, nil
}

func scanDocument(row scanner) (*card.Document, error) {
	var (
		d           card.Document
		kind        string
		excerpt     sql.NullString
		summary     sql.NullString
		description sql.NullString
		version     sql.NullString
	)

	err := row.Scan(&d.ID, &kind, &excerpt, &summary, &description, &version, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	d.Kind = card.AttachmentKind(kind)
	d.Excerpt = fromNullString(excerpt)
	d.Summary = fromNullString(summary)
	d.Description = fromNullString(description)
	d.Version = fromNullString(version)

	return &d, nil
}
