//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not compiled in; search scans notes.plain_text directly.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _, _, _ string) error { return nil }

func ftsDelete(_ context.Context, _ *sql.Tx, _ string) error { return nil }

// Search scans live notes for every query term (title or plain text) and ranks
// the hits in Go.
func (db *DB) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return []models.SearchResult{}, nil
	}

	var where []string
	var args []any
	for _, t := range terms {
		like := "%" + escapeLike(t) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR plain_text LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, plain_text, updated_at FROM notes
		WHERE is_trashed = 0 AND is_folder = 0 AND `+strings.Join(where, " AND "), args...)
	if err != nil {
		return nil, apperr.Storage("store: search", err)
	}
	type hit struct {
		id, title, body string
		updated         int64
		score           int
	}
	hits, err := collect(rows, func(r *sql.Rows) (hit, error) {
		var h hit
		err := r.Scan(&h.id, &h.title, &h.body, &h.updated)
		return h, err
	})
	if err != nil {
		return nil, apperr.Storage("store: search", err)
	}

	ranked := hits[:0]
	for _, h := range hits {
		// LIKE folds ASCII only; re-check with full case folding.
		if h.score = scoreText(h.title, h.body, terms); h.score > 0 {
			ranked = append(ranked, h)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].updated > ranked[j].updated
	})
	if len(ranked) > SearchLimit {
		ranked = ranked[:SearchLimit]
	}

	out := make([]models.SearchResult, 0, len(ranked))
	for _, h := range ranked {
		out = append(out, models.SearchResult{ID: h.id, NoteID: h.id, Title: h.title, Snippet: highlight(h.body, terms)})
	}
	return out, nil
}
