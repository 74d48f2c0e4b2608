//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			note_id UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, id, title, body string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete fts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO notes_fts (note_id, title, body) VALUES (?, ?, ?)`, id, title, body); err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete fts: %w", err)
	}
	return nil
}

// matchExpr quotes every term as a prefix phrase so user input never reaches
// the FTS5 query parser unescaped.
func matchExpr(terms []string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = `"` + t + `"*`
	}
	return strings.Join(parts, " ")
}

// Search performs an FTS5 query ranked by bm25 with title hits weighted above
// body hits.
func (db *DB) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return []models.SearchResult{}, nil
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.note_id, n.title, n.plain_text
		FROM notes_fts f JOIN notes n ON n.id = f.note_id
		WHERE notes_fts MATCH ? AND n.is_trashed = 0 AND n.is_folder = 0
		ORDER BY bm25(notes_fts, 0.0, 10.0, 1.0)
		LIMIT ?
	`, matchExpr(terms), SearchLimit)
	if err != nil {
		return nil, apperr.Storage("store: search", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (models.SearchResult, error) {
		var res models.SearchResult
		var body string
		err := r.Scan(&res.NoteID, &res.Title, &body)
		res.ID = res.NoteID
		res.Snippet = highlight(body, terms)
		return res, err
	})
	return out, apperr.Storage("store: search", err)
}
