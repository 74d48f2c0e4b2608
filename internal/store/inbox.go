package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/parser"
)

// ImportInput is a Markdown file picked up from the inbox directory.
type ImportInput struct {
	Path     string
	Checksum string
	Title    string
	Emoji    string
	Body     string
	Tags     []string
}

// ImportResult reports what an import did.
type ImportResult struct {
	NoteID  string
	Created bool
	Skipped bool
}

// ImportMarkdown creates or updates the note backing an inbox file. A file
// whose checksum matches the last import is skipped. The body becomes the
// note's plain text; frontmatter tags become manual tags.
func (db *DB) ImportMarkdown(ctx context.Context, in ImportInput) (ImportResult, error) {
	var res ImportResult
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = DefaultTitle
	}
	emoji := in.Emoji
	if emoji == "" {
		emoji = DefaultNoteEmoji
	}
	err := db.withTx(ctx, "import markdown", func(tx *sql.Tx) error {
		var prevSum string
		var noteID sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT checksum, note_id FROM inbox_imports WHERE path = ?`, in.Path).Scan(&prevSum, &noteID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err == nil && prevSum == in.Checksum && noteID.Valid {
			res = ImportResult{NoteID: noteID.String, Skipped: true}
			return nil
		}

		id := noteID.String
		if noteID.Valid {
			if st, err := loadState(ctx, tx, id); err != nil || st.trashed {
				id = ""
			}
		}
		if id == "" {
			id, err = db.insertNote(ctx, tx, newNote{title: title, emoji: emoji})
			if err != nil {
				return err
			}
			res.Created = true
		} else if _, err := tx.ExecContext(ctx, `UPDATE notes SET emoji = ? WHERE id = ?`, emoji, id); err != nil {
			return err
		}
		res.NoteID = id

		content := parser.PlateDocument(title, in.Body)
		if err := db.applyContent(ctx, tx, id, title, content, in.Body); err != nil {
			return err
		}
		for _, tag := range normalizeTags(in.Tags) {
			tagID, err := db.ensureTag(ctx, tx, tag)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO note_tags (note_id, tag_id, source) VALUES (?, ?, 'manual')
				ON CONFLICT(note_id, tag_id) DO UPDATE SET source = 'manual'
			`, id, tagID); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO inbox_imports (path, checksum, note_id, imported_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				checksum    = excluded.checksum,
				note_id     = excluded.note_id,
				imported_at = excluded.imported_at
		`, in.Path, in.Checksum, id, db.unixNow())
		return err
	})
	return res, err
}

// ImportedChecksums maps every imported inbox path to its last checksum.
func (db *DB) ImportedChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, checksum FROM inbox_imports`)
	if err != nil {
		return nil, apperr.Storage("store: imported checksums", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, apperr.Storage("store: imported checksums", err)
		}
		out[p] = cs
	}
	return out, apperr.Storage("store: imported checksums", rows.Err())
}

// RenameImport moves the import record of oldPath to newPath so a renamed
// inbox file keeps updating the same note.
func (db *DB) RenameImport(ctx context.Context, oldPath, newPath string) error {
	return db.withTx(ctx, "rename import", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM inbox_imports WHERE path = ?`, newPath); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE inbox_imports SET path = ? WHERE path = ?`, newPath, oldPath)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("inbox import", oldPath)
		}
		return nil
	})
}
