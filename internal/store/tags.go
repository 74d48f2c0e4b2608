package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/parser"
)

// ensureTag returns the id of the tag named name (already normalized),
// creating it on first use. Concurrent creators converge on one row.
func (db *DB) ensureTag(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tags (id, name, created_at) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
		newID(), name, db.unixNow()); err != nil {
		return "", err
	}
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id)
	return id, err
}

func normalizeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = parser.NormalizeTag(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// SyncInlineTags replaces the inline tag set of a live note. Manual
// associations are left untouched.
func (db *DB) SyncInlineTags(ctx context.Context, noteID string, names []string) error {
	return db.withTx(ctx, "sync inline tags", func(tx *sql.Tx) error {
		if _, err := requireLive(ctx, tx, noteID); err != nil {
			return err
		}
		return db.syncInlineTagsTx(ctx, tx, noteID, names)
	})
}

func (db *DB) syncInlineTagsTx(ctx context.Context, tx *sql.Tx, noteID string, names []string) error {
	want := normalizeTags(names)
	wantSet := make(map[string]struct{}, len(want))
	for _, n := range want {
		wantSet[n] = struct{}{}
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT t.name, t.id FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id = ? AND nt.source = 'inline'
	`, noteID)
	if err != nil {
		return err
	}
	type pair struct{ name, id string }
	current, err := collect(rows, func(r *sql.Rows) (pair, error) {
		var p pair
		err := r.Scan(&p.name, &p.id)
		return p, err
	})
	if err != nil {
		return err
	}

	have := make(map[string]struct{}, len(current))
	for _, p := range current {
		have[p.name] = struct{}{}
		if _, keep := wantSet[p.name]; keep {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM note_tags WHERE note_id = ? AND tag_id = ? AND source = 'inline'`, noteID, p.id); err != nil {
			return err
		}
	}
	for _, name := range want {
		if _, ok := have[name]; ok {
			continue
		}
		tagID, err := db.ensureTag(ctx, tx, name)
		if err != nil {
			return err
		}
		// A manual association for the same tag wins and stays manual.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO note_tags (note_id, tag_id, source) VALUES (?, ?, 'inline')
			ON CONFLICT(note_id, tag_id) DO NOTHING
		`, noteID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// AddManualTag attaches the tag name to a live note as a manual association,
// upgrading an existing inline association.
func (db *DB) AddManualTag(ctx context.Context, noteID, name string) (models.NoteTagInfo, error) {
	var info models.NoteTagInfo
	name = parser.NormalizeTag(name)
	if name == "" {
		return info, apperr.Invalid("tag name is empty")
	}
	err := db.withTx(ctx, "add manual tag", func(tx *sql.Tx) error {
		if _, err := requireLive(ctx, tx, noteID); err != nil {
			return err
		}
		tagID, err := db.ensureTag(ctx, tx, name)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO note_tags (note_id, tag_id, source) VALUES (?, ?, 'manual')
			ON CONFLICT(note_id, tag_id) DO UPDATE SET source = 'manual'
		`, noteID, tagID); err != nil {
			return err
		}
		var color sql.NullString
		if err := tx.QueryRowContext(ctx, `SELECT color FROM tags WHERE id = ?`, tagID).Scan(&color); err != nil {
			return err
		}
		info = models.NoteTagInfo{TagID: tagID, TagName: name, TagColor: nullString(color), Source: models.TagSourceManual}
		return nil
	})
	return info, err
}

// RemoveManualTag detaches a manual tag from a note. Inline associations are
// owned by the note content and cannot be removed this way.
func (db *DB) RemoveManualTag(ctx context.Context, noteID, tagID string) error {
	return db.withTx(ctx, "remove manual tag", func(tx *sql.Tx) error {
		if _, err := loadState(ctx, tx, noteID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM note_tags WHERE note_id = ? AND tag_id = ? AND source = 'manual'`, noteID, tagID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("manual tag", tagID)
		}
		return nil
	})
}

// MoveNoteToTag moves a note between kanban columns: the fromTag association
// is removed whatever its source and toTag is attached manually.
func (db *DB) MoveNoteToTag(ctx context.Context, noteID, fromTag, toTag string) error {
	from, to := parser.NormalizeTag(fromTag), parser.NormalizeTag(toTag)
	if to == "" {
		return apperr.Invalid("target tag is empty")
	}
	return db.withTx(ctx, "move note to tag", func(tx *sql.Tx) error {
		if _, err := requireLive(ctx, tx, noteID); err != nil {
			return err
		}
		if from != "" && from != to {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM note_tags
				WHERE note_id = ? AND tag_id = (SELECT id FROM tags WHERE name = ?)
			`, noteID, from); err != nil {
				return err
			}
		}
		tagID, err := db.ensureTag(ctx, tx, to)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO note_tags (note_id, tag_id, source) VALUES (?, ?, 'manual')
			ON CONFLICT(note_id, tag_id) DO UPDATE SET source = 'manual'
		`, noteID, tagID)
		return err
	})
}

// SetTagColor changes the display color of a tag.
func (db *DB) SetTagColor(ctx context.Context, tagID, color string) error {
	return db.withTx(ctx, "set tag color", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE tags SET color = ? WHERE id = ?`, color, tagID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("tag", tagID)
		}
		return nil
	})
}

// GetAllTags lists every tag with the number of live notes carrying it.
func (db *DB) GetAllTags(ctx context.Context) ([]models.TagInfo, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, COUNT(n.id)
		FROM tags t
		LEFT JOIN note_tags nt ON nt.tag_id = t.id
		LEFT JOIN notes n ON n.id = nt.note_id AND n.is_trashed = 0
		GROUP BY t.id
		ORDER BY t.name
	`)
	if err != nil {
		return nil, apperr.Storage("store: all tags", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (models.TagInfo, error) {
		var t models.TagInfo
		var color sql.NullString
		err := r.Scan(&t.ID, &t.Name, &color, &t.NoteCount)
		t.Color = nullString(color)
		return t, err
	})
	return out, apperr.Storage("store: all tags", err)
}

// GetTagsForNote lists the tags of a note with their association source.
func (db *DB) GetTagsForNote(ctx context.Context, noteID string) ([]models.NoteTagInfo, error) {
	if _, err := loadState(ctx, db.conn, noteID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.Storage("store: note tags", err)
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, nt.source
		FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id = ?
		ORDER BY t.name
	`, noteID)
	if err != nil {
		return nil, apperr.Storage("store: note tags", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (models.NoteTagInfo, error) {
		var t models.NoteTagInfo
		var color sql.NullString
		err := r.Scan(&t.TagID, &t.TagName, &color, &t.Source)
		t.TagColor = nullString(color)
		return t, err
	})
	return out, apperr.Storage("store: note tags", err)
}
