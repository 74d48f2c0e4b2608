package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

// EdgeTypeWikilink is the only edge type the graph currently produces.
const EdgeTypeWikilink = "wikilink"

// SyncWikilinks replaces the outgoing wikilink set of a live note.
func (db *DB) SyncWikilinks(ctx context.Context, noteID string, titles []string) error {
	return db.withTx(ctx, "sync wikilinks", func(tx *sql.Tx) error {
		if _, err := requireLive(ctx, tx, noteID); err != nil {
			return err
		}
		return syncWikilinksTx(ctx, tx, noteID, titles)
	})
}

// syncWikilinksTx stores edges by raw target title; they are resolved to note
// ids only when read.
func syncWikilinksTx(ctx context.Context, tx *sql.Tx, noteID string, titles []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM wikilinks WHERE source_note_id = ?`, noteID); err != nil {
		return err
	}
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wikilinks (source_note_id, target_title, target_key) VALUES (?, ?, ?)
			ON CONFLICT(source_note_id, target_key) DO NOTHING
		`, noteID, title, titleKey(title)); err != nil {
			return err
		}
	}
	return nil
}

// canonicalSQL picks the note a title resolves to: the most recently updated
// live note carrying it.
const canonicalSQL = `
	SELECT id FROM notes
	WHERE title_key = ? AND is_trashed = 0 AND is_folder = 0
	ORDER BY updated_at DESC, id
	LIMIT 1`

// FindByTitle resolves title case-insensitively. It returns nil when no live
// note has that title.
func (db *DB) FindByTitle(ctx context.Context, title string) (*string, error) {
	var id string
	err := db.conn.QueryRowContext(ctx, canonicalSQL, titleKey(title)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("store: find by title", err)
	}
	return &id, nil
}

// GetBacklinks lists live notes whose wikilinks name the current title of
// noteID. Only the note a title resolves to receives its backlinks.
func (db *DB) GetBacklinks(ctx context.Context, noteID string) ([]models.NoteRef, error) {
	var key string
	var trashed bool
	err := db.conn.QueryRowContext(ctx, `SELECT title_key, is_trashed FROM notes WHERE id = ?`, noteID).Scan(&key, &trashed)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && trashed) {
		return nil, apperr.NotFound("note", noteID)
	}
	if err != nil {
		return nil, apperr.Storage("store: backlinks", err)
	}

	var canonical string
	err = db.conn.QueryRowContext(ctx, canonicalSQL, key).Scan(&canonical)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && canonical != noteID) {
		return []models.NoteRef{}, nil
	}
	if err != nil {
		return nil, apperr.Storage("store: backlinks", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT n.id, n.title, n.emoji
		FROM wikilinks w JOIN notes n ON n.id = w.source_note_id
		WHERE w.target_key = ? AND n.is_trashed = 0 AND n.id != ?
		ORDER BY n.updated_at DESC, n.id
	`, key, noteID)
	if err != nil {
		return nil, apperr.Storage("store: backlinks", err)
	}
	out, err := collect(rows, scanRef)
	return out, apperr.Storage("store: backlinks", err)
}

// GetAllTitles lists id and title of every live note, for link completion.
func (db *DB) GetAllTitles(ctx context.Context) ([]models.NoteTitleItem, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title FROM notes
		WHERE is_trashed = 0 AND is_folder = 0
		ORDER BY title COLLATE NOCASE, id
	`)
	if err != nil {
		return nil, apperr.Storage("store: all titles", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (models.NoteTitleItem, error) {
		var t models.NoteTitleItem
		err := r.Scan(&t.ID, &t.Title)
		return t, err
	})
	return out, apperr.Storage("store: all titles", err)
}

// titleIndex maps title keys to their canonical note id.
func (db *DB) titleIndex(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title_key FROM notes
		WHERE is_trashed = 0 AND is_folder = 0
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	type pair struct{ id, key string }
	list, err := collect(rows, func(r *sql.Rows) (pair, error) {
		var p pair
		err := r.Scan(&p.id, &p.key)
		return p, err
	})
	if err != nil {
		return nil, err
	}
	idx := make(map[string]string, len(list))
	for _, p := range list {
		if _, ok := idx[p.key]; !ok {
			idx[p.key] = p.id
		}
	}
	return idx, nil
}

// ResolveTitles maps each title to its canonical note id; unresolved titles
// are absent from the result.
func (db *DB) ResolveTitles(ctx context.Context, titles []string) (map[string]string, error) {
	idx, err := db.titleIndex(ctx)
	if err != nil {
		return nil, apperr.Storage("store: resolve titles", err)
	}
	out := make(map[string]string, len(titles))
	for _, t := range titles {
		if id, ok := idx[titleKey(t)]; ok {
			out[t] = id
		}
	}
	return out, nil
}

// GetGraphData returns every live note as a node and every resolvable wikilink
// between live notes as an edge.
func (db *DB) GetGraphData(ctx context.Context) (models.GraphData, error) {
	data := models.GraphData{Nodes: []models.NoteRef{}, Edges: []models.GraphEdge{}}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, emoji FROM notes
		WHERE is_trashed = 0 AND is_folder = 0
		ORDER BY title COLLATE NOCASE, id
	`)
	if err != nil {
		return data, apperr.Storage("store: graph nodes", err)
	}
	nodes, err := collect(rows, scanRef)
	if err != nil {
		return data, apperr.Storage("store: graph nodes", err)
	}
	data.Nodes = nodes

	idx, err := db.titleIndex(ctx)
	if err != nil {
		return data, apperr.Storage("store: graph index", err)
	}

	rows, err = db.conn.QueryContext(ctx, `
		SELECT w.source_note_id, w.target_key
		FROM wikilinks w JOIN notes n ON n.id = w.source_note_id
		WHERE n.is_trashed = 0
		ORDER BY w.source_note_id, w.target_key
	`)
	if err != nil {
		return data, apperr.Storage("store: graph edges", err)
	}
	type link struct{ source, key string }
	links, err := collect(rows, func(r *sql.Rows) (link, error) {
		var l link
		err := r.Scan(&l.source, &l.key)
		return l, err
	})
	if err != nil {
		return data, apperr.Storage("store: graph edges", err)
	}
	for _, l := range links {
		target, ok := idx[l.key]
		if !ok || target == l.source {
			continue
		}
		data.Edges = append(data.Edges, models.GraphEdge{Source: l.source, Target: target, EdgeType: EdgeTypeWikilink})
	}
	return data, nil
}

// OutgoingLinks returns the raw target titles of a note's wikilinks.
func (db *DB) OutgoingLinks(ctx context.Context, noteID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT target_title FROM wikilinks WHERE source_note_id = ? ORDER BY target_key`, noteID)
	if err != nil {
		return nil, apperr.Storage("store: outgoing links", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (string, error) {
		var s string
		err := r.Scan(&s)
		return s, err
	})
	return out, apperr.Storage("store: outgoing links", err)
}
