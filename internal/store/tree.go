package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

const subtreeSQL = `
	WITH RECURSIVE subtree(id) AS (
		SELECT id FROM notes WHERE id = ?
		UNION ALL
		SELECT n.id FROM notes n JOIN subtree s ON n.parent_id = s.id
	)
	SELECT id FROM subtree`

func subtreeIDs(ctx context.Context, q querier, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx, subtreeSQL, id)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r *sql.Rows) (string, error) {
		var s string
		err := r.Scan(&s)
		return s, err
	})
}

// Move re-parents a live note (nil newParentID moves it to the root). Moving a
// note under itself or one of its descendants is rejected.
func (db *DB) Move(ctx context.Context, id string, newParentID *string) error {
	return db.withTx(ctx, "move note", func(tx *sql.Tx) error {
		if _, err := requireLive(ctx, tx, id); err != nil {
			return err
		}
		if newParentID != nil {
			if *newParentID == id {
				return apperr.Invalid("cannot move %q into itself", id)
			}
			if err := checkParent(ctx, tx, newParentID); err != nil {
				return err
			}
			if err := checkNoCycle(ctx, tx, id, *newParentID); err != nil {
				return err
			}
		}
		order, err := nextSortOrder(ctx, tx, newParentID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE notes SET parent_id = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
			newParentID, order, db.unixNow(), id)
		return err
	})
}

// checkNoCycle walks from parentID up to the root and fails if it meets id.
func checkNoCycle(ctx context.Context, q querier, id, parentID string) error {
	cur := sql.NullString{String: parentID, Valid: true}
	for depth := 0; cur.Valid; depth++ {
		if cur.String == id {
			return apperr.Invalid("cannot move %q under its own descendant %q", id, parentID)
		}
		if depth > 10000 {
			return apperr.Invalid("ancestor chain of %q is too deep", parentID)
		}
		if err := q.QueryRowContext(ctx, `SELECT parent_id FROM notes WHERE id = ?`, cur.String).Scan(&cur); err != nil {
			return err
		}
	}
	return nil
}

// Trash soft-deletes a note and every live descendant. Trashing a trashed
// note is a no-op.
func (db *DB) Trash(ctx context.Context, id string) error {
	return db.withTx(ctx, "trash note", func(tx *sql.Tx) error {
		st, err := loadState(ctx, tx, id)
		if err != nil {
			return err
		}
		if st.trashed {
			return nil
		}
		ids, err := subtreeIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		now := db.unixNow()
		for _, nid := range ids {
			res, err := tx.ExecContext(ctx, `
				UPDATE notes SET is_trashed = 1, trashed_at = ?, trash_root_id = ?
				WHERE id = ? AND is_trashed = 0
			`, now, id, nid)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				continue
			}
			if err := ftsDelete(ctx, tx, nid); err != nil {
				return err
			}
		}
		return nil
	})
}

// Restore brings a trashed note back together with the descendants that were
// trashed along with it. If its parent is still in the trash it is restored at
// the root. Restoring a live note is a no-op.
func (db *DB) Restore(ctx context.Context, id string) error {
	return db.withTx(ctx, "restore note", func(tx *sql.Tx) error {
		return db.restoreTx(ctx, tx, id)
	})
}

func (db *DB) restoreTx(ctx context.Context, tx *sql.Tx, id string) error {
	st, err := loadState(ctx, tx, id)
	if err != nil {
		return err
	}
	if !st.trashed {
		return nil
	}
	if st.parentID.Valid {
		parent, err := loadState(ctx, tx, st.parentID.String)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if err != nil || parent.trashed {
			if _, err := tx.ExecContext(ctx, `UPDATE notes SET parent_id = NULL WHERE id = ?`, id); err != nil {
				return err
			}
		}
	}
	// Rows trashed by the same delete share trash_root_id; descendants trashed
	// earlier on their own stay in the trash.
	var root sql.NullString
	if err := tx.QueryRowContext(ctx, `SELECT trash_root_id FROM notes WHERE id = ?`, id).Scan(&root); err != nil {
		return err
	}
	if !root.Valid {
		root.String = id
	}
	rows, err := tx.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM notes WHERE id = ?1
			UNION ALL
			SELECT n.id FROM notes n JOIN subtree s ON n.parent_id = s.id
		)
		SELECT n.id, n.title, n.plain_text, n.is_folder FROM notes n JOIN subtree s ON s.id = n.id
		WHERE n.is_trashed = 1 AND (n.id = ?1 OR n.trash_root_id = ?2)
	`, id, root.String)
	if err != nil {
		return err
	}
	type restored struct {
		id, title, plain string
		folder           bool
	}
	list, err := collect(rows, func(r *sql.Rows) (restored, error) {
		var x restored
		err := r.Scan(&x.id, &x.title, &x.plain, &x.folder)
		return x, err
	})
	if err != nil {
		return err
	}
	for _, x := range list {
		if _, err := tx.ExecContext(ctx,
			`UPDATE notes SET is_trashed = 0, trashed_at = NULL, trash_root_id = NULL WHERE id = ?`, x.id); err != nil {
			return err
		}
		if x.folder {
			continue
		}
		if err := ftsUpsert(ctx, tx, x.id, x.title, x.plain); err != nil {
			return err
		}
	}
	return nil
}

// PermanentlyDelete removes a note and its whole subtree together with their
// tag associations, outgoing links, flashcards and canvas items.
func (db *DB) PermanentlyDelete(ctx context.Context, id string) error {
	return db.withTx(ctx, "permanently delete note", func(tx *sql.Tx) error {
		if _, err := loadState(ctx, tx, id); err != nil {
			return err
		}
		ids, err := subtreeIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, nid := range ids {
			if err := ftsDelete(ctx, tx, nid); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
		return err
	})
}

// GetTrashed lists trashed notes, most recently trashed first.
func (db *DB) GetTrashed(ctx context.Context) ([]models.TrashedNote, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, emoji, trashed_at FROM notes
		WHERE is_trashed = 1
		ORDER BY trashed_at DESC, id
	`)
	if err != nil {
		return nil, apperr.Storage("store: trashed notes", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (models.TrashedNote, error) {
		var n models.TrashedNote
		var emoji sql.NullString
		var at sql.NullInt64
		err := r.Scan(&n.ID, &n.Title, &emoji, &at)
		n.Emoji, n.TrashedAt = nullString(emoji), nullInt(at)
		return n, err
	})
	return out, apperr.Storage("store: trashed notes", err)
}
