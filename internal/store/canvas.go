package store

import (
	"context"
	"database/sql"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

// GetCanvasData returns every canvas placement and connection.
func (db *DB) GetCanvasData(ctx context.Context) (models.CanvasData, error) {
	data := models.CanvasData{Items: []models.CanvasItem{}, Connections: []models.CanvasConnection{}}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, note_id, x, y, width, height FROM canvas_items ORDER BY created_at, id`)
	if err != nil {
		return data, apperr.Storage("store: canvas items", err)
	}
	items, err := collect(rows, func(r *sql.Rows) (models.CanvasItem, error) {
		var it models.CanvasItem
		var noteID sql.NullString
		err := r.Scan(&it.ID, &noteID, &it.X, &it.Y, &it.Width, &it.Height)
		it.NoteID = nullString(noteID)
		return it, err
	})
	if err != nil {
		return data, apperr.Storage("store: canvas items", err)
	}
	rows, err = db.conn.QueryContext(ctx,
		`SELECT id, from_item_id, to_item_id FROM canvas_connections ORDER BY created_at, id`)
	if err != nil {
		return data, apperr.Storage("store: canvas connections", err)
	}
	conns, err := collect(rows, func(r *sql.Rows) (models.CanvasConnection, error) {
		var c models.CanvasConnection
		err := r.Scan(&c.ID, &c.FromItemID, &c.ToItemID)
		return c, err
	})
	if err != nil {
		return data, apperr.Storage("store: canvas connections", err)
	}
	data.Items, data.Connections = items, conns
	return data, nil
}

// SaveCanvasItem inserts or updates a placement by id. An empty id gets a
// fresh one. A referenced note must exist.
func (db *DB) SaveCanvasItem(ctx context.Context, it models.CanvasItem) (models.CanvasItem, error) {
	if it.ID == "" {
		it.ID = newID()
	}
	if it.Width <= 0 || it.Height <= 0 {
		return it, apperr.Invalid("canvas item size must be positive")
	}
	err := db.withTx(ctx, "save canvas item", func(tx *sql.Tx) error {
		if it.NoteID != nil {
			if _, err := loadState(ctx, tx, *it.NoteID); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO canvas_items (id, note_id, x, y, width, height, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				note_id = excluded.note_id,
				x       = excluded.x,
				y       = excluded.y,
				width   = excluded.width,
				height  = excluded.height
		`, it.ID, it.NoteID, it.X, it.Y, it.Width, it.Height, db.unixNow())
		return err
	})
	return it, err
}

// DeleteCanvasItem removes a placement and its connections.
func (db *DB) DeleteCanvasItem(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "canvas item", `DELETE FROM canvas_items WHERE id = ?`, id)
}

// SaveCanvasConnection inserts or updates a connection between two existing
// placements.
func (db *DB) SaveCanvasConnection(ctx context.Context, c models.CanvasConnection) (models.CanvasConnection, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.FromItemID == c.ToItemID {
		return c, apperr.Invalid("canvas connection must join two different items")
	}
	err := db.withTx(ctx, "save canvas connection", func(tx *sql.Tx) error {
		for _, item := range []string{c.FromItemID, c.ToItemID} {
			var n int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM canvas_items WHERE id = ?`, item).Scan(&n); err != nil {
				return err
			}
			if n == 0 {
				return apperr.NotFound("canvas item", item)
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO canvas_connections (id, from_item_id, to_item_id, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				from_item_id = excluded.from_item_id,
				to_item_id   = excluded.to_item_id
		`, c.ID, c.FromItemID, c.ToItemID, db.unixNow())
		return err
	})
	return c, err
}

// DeleteCanvasConnection removes one connection.
func (db *DB) DeleteCanvasConnection(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "canvas connection", `DELETE FROM canvas_connections WHERE id = ?`, id)
}

func (db *DB) deleteByID(ctx context.Context, kind, stmt, id string) error {
	return db.withTx(ctx, "delete "+kind, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, stmt, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound(kind, id)
		}
		return nil
	})
}
