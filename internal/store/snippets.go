package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

const snippetColumns = `id, title, content, language, tags, created_at`

func scanSnippet(s rowScanner) (models.Snippet, error) {
	var sn models.Snippet
	err := s.Scan(&sn.ID, &sn.Title, &sn.Content, &sn.Language, &sn.Tags, &sn.CreatedAt)
	return sn, err
}

// CreateSnippet stores a standalone code snippet.
func (db *DB) CreateSnippet(ctx context.Context, title, content, language, tags string) (models.Snippet, error) {
	sn := models.Snippet{
		ID:        newID(),
		Title:     strings.TrimSpace(title),
		Content:   content,
		Language:  strings.ToLower(strings.TrimSpace(language)),
		Tags:      strings.TrimSpace(tags),
		CreatedAt: db.unixNow(),
	}
	if sn.Title == "" {
		return sn, apperr.Invalid("snippet title is empty")
	}
	if sn.Language == "" {
		sn.Language = "text"
	}
	err := db.withTx(ctx, "create snippet", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snippets (`+snippetColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			sn.ID, sn.Title, sn.Content, sn.Language, sn.Tags, sn.CreatedAt)
		return err
	})
	return sn, err
}

// GetSnippet returns one snippet.
func (db *DB) GetSnippet(ctx context.Context, id string) (models.Snippet, error) {
	sn, err := scanSnippet(db.conn.QueryRowContext(ctx, `SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return sn, apperr.NotFound("snippet", id)
	}
	return sn, apperr.Storage("store: get snippet", err)
}

// GetSnippets lists snippets, newest first.
func (db *DB) GetSnippets(ctx context.Context) ([]models.Snippet, error) {
	return db.SearchSnippets(ctx, "")
}

// SearchSnippets matches query against title, content, tags and language.
// An empty query lists everything.
func (db *DB) SearchSnippets(ctx context.Context, query string) ([]models.Snippet, error) {
	q := `SELECT ` + snippetColumns + ` FROM snippets`
	var args []any
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + escapeLike(query) + "%"
		q += ` WHERE title LIKE ?1 ESCAPE '\' OR content LIKE ?1 ESCAPE '\'
			OR tags LIKE ?1 ESCAPE '\' OR language LIKE ?1 ESCAPE '\'`
		args = append(args, like)
	}
	q += ` ORDER BY created_at DESC, id`
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.Storage("store: search snippets", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (models.Snippet, error) { return scanSnippet(r) })
	return out, apperr.Storage("store: search snippets", err)
}

// DeleteSnippet removes a snippet.
func (db *DB) DeleteSnippet(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "snippet", `DELETE FROM snippets WHERE id = ?`, id)
}
