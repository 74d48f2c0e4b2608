package store

import (
	"context"
	"database/sql"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

// RecordWritingStat adds activity to today's row. Calls on the same day
// accumulate.
func (db *DB) RecordWritingStat(ctx context.Context, words, notes, seconds int) (models.WritingStat, error) {
	var st models.WritingStat
	if words < 0 || notes < 0 || seconds < 0 {
		return st, apperr.Invalid("writing stat increments must not be negative")
	}
	st.Date = db.now().Format(dateLayout)
	err := db.withTx(ctx, "record writing stat", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO writing_stats (date, words_written, notes_edited, time_spent_seconds)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(date) DO UPDATE SET
				words_written      = words_written + excluded.words_written,
				notes_edited       = notes_edited + excluded.notes_edited,
				time_spent_seconds = time_spent_seconds + excluded.time_spent_seconds
		`, st.Date, words, notes, seconds); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`SELECT words_written, notes_edited, time_spent_seconds FROM writing_stats WHERE date = ?`, st.Date,
		).Scan(&st.WordsWritten, &st.NotesEdited, &st.TimeSpentSeconds)
	})
	return st, err
}

// GetWritingStats returns the recorded days among the last days calendar days,
// oldest first.
func (db *DB) GetWritingStats(ctx context.Context, days int) ([]models.WritingStat, error) {
	if days <= 0 {
		days = 30
	}
	from := db.now().AddDate(0, 0, -(days - 1)).Format(dateLayout)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT date, words_written, notes_edited, time_spent_seconds
		FROM writing_stats WHERE date >= ?
		ORDER BY date
	`, from)
	if err != nil {
		return nil, apperr.Storage("store: writing stats", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (models.WritingStat, error) {
		var s models.WritingStat
		err := r.Scan(&s.Date, &s.WordsWritten, &s.NotesEdited, &s.TimeSpentSeconds)
		return s, err
	})
	return out, apperr.Storage("store: writing stats", err)
}
