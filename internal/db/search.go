package db

import (
	"database/sql"
	"math"
	"strings"

	"github.com/pcathey/trellis/internal/assembly"
	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/errors"
)

// previewChars caps the preview snippet attached to each search hit.
const previewChars = 120

// SearchProvider ranks cards against a text query using the FTS index over
// prompt, response, and summary. It implements assembly.SearchService, which is how
// virtual-ancestor candidates are sourced.
type SearchProvider struct {
	DB *sql.DB
}

// Search returns ranked candidates for query, best first. Scores are bm25
// ranks normalized to (0, 1]. Soft-deleted cards never match.
func (p *SearchProvider) Search(query string, limit int) ([]assembly.Candidate, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := p.DB.Query(`
		SELECT c.id, c.prompt, bm25(cards_fts) AS rank
		FROM cards_fts
		JOIN cards c ON c.rowid = cards_fts.rowid
		WHERE cards_fts MATCH ? AND c.deleted_at IS NULL
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []assembly.Candidate
	for rows.Next() {
		var (
			id     string
			prompt string
			rank   float64
		)
		if err := rows.Scan(&id, &prompt, &rank); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, assembly.Candidate{
			CardID:  id,
			Score:   1.0 / (1.0 + math.Abs(rank)),
			Preview: card.Truncate(prompt, previewChars),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return out, nil
}

// ftsQuery converts free text into an FTS5 match expression. Each token is
// double-quoted so user input cannot inject FTS syntax (NEAR, column
// filters, boolean operators).
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}
