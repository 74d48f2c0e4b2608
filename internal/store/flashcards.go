package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/srs"
)

const flashcardColumns = `f.id, f.note_id, f.question, f.answer, f.next_review, f.interval,
	f.ease_factor, f.repetitions, n.title`

func scanFlashcard(s rowScanner) (models.Flashcard, error) {
	var c models.Flashcard
	err := s.Scan(&c.ID, &c.NoteID, &c.Question, &c.Answer, &c.NextReview, &c.Interval,
		&c.EaseFactor, &c.Repetitions, &c.NoteTitle)
	return c, err
}

// SyncFlashcards replaces the card set of a live note. Cards are matched by
// question; matched cards keep their scheduling state.
func (db *DB) SyncFlashcards(ctx context.Context, noteID string, cards []models.QA) error {
	return db.withTx(ctx, "sync flashcards", func(tx *sql.Tx) error {
		if _, err := requireLive(ctx, tx, noteID); err != nil {
			return err
		}
		return db.syncFlashcardsTx(ctx, tx, noteID, cards)
	})
}

func (db *DB) syncFlashcardsTx(ctx context.Context, tx *sql.Tx, noteID string, cards []models.QA) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, question, answer FROM flashcards WHERE note_id = ?`, noteID)
	if err != nil {
		return err
	}
	type existing struct{ id, question, answer string }
	list, err := collect(rows, func(r *sql.Rows) (existing, error) {
		var e existing
		err := r.Scan(&e.id, &e.question, &e.answer)
		return e, err
	})
	if err != nil {
		return err
	}
	byQuestion := make(map[string]existing, len(list))
	for _, e := range list {
		byQuestion[e.question] = e
	}

	// First occurrence of a question wins.
	want := make(map[string]string, len(cards))
	order := make([]string, 0, len(cards))
	for _, c := range cards {
		if c.Question == "" {
			continue
		}
		if _, dup := want[c.Question]; dup {
			continue
		}
		want[c.Question] = c.Answer
		order = append(order, c.Question)
	}

	for _, e := range list {
		if _, keep := want[e.question]; keep {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ?`, e.id); err != nil {
			return err
		}
	}

	now := db.now()
	fresh := srs.New(now)
	for _, q := range order {
		answer := want[q]
		if e, ok := byQuestion[q]; ok {
			if e.answer != answer {
				if _, err := tx.ExecContext(ctx, `UPDATE flashcards SET answer = ?, updated_at = ? WHERE id = ?`,
					answer, now.Unix(), e.id); err != nil {
					return err
				}
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO flashcards (id, note_id, question, answer, next_review, interval, ease_factor,
				repetitions, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, newID(), noteID, q, answer, fresh.NextReview.Unix(), fresh.Interval, fresh.EaseFactor,
			fresh.Repetitions, now.Unix(), now.Unix()); err != nil {
			return err
		}
	}
	return nil
}

// GetDueFlashcards returns cards of live notes due now, oldest due first.
func (db *DB) GetDueFlashcards(ctx context.Context) ([]models.Flashcard, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+flashcardColumns+`
		FROM flashcards f JOIN notes n ON n.id = f.note_id
		WHERE n.is_trashed = 0 AND f.next_review <= ?
		ORDER BY f.next_review, f.created_at, f.id
	`, db.unixNow())
	if err != nil {
		return nil, apperr.Storage("store: due flashcards", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (models.Flashcard, error) { return scanFlashcard(r) })
	return out, apperr.Storage("store: due flashcards", err)
}

// GetNoteFlashcards returns every card of a note in question order.
func (db *DB) GetNoteFlashcards(ctx context.Context, noteID string) ([]models.Flashcard, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+flashcardColumns+`
		FROM flashcards f JOIN notes n ON n.id = f.note_id
		WHERE f.note_id = ?
		ORDER BY f.created_at, f.question
	`, noteID)
	if err != nil {
		return nil, apperr.Storage("store: note flashcards", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (models.Flashcard, error) { return scanFlashcard(r) })
	return out, apperr.Storage("store: note flashcards", err)
}

// ReviewFlashcard applies an SM-2 review to a card and logs it.
func (db *DB) ReviewFlashcard(ctx context.Context, cardID string, rating int) (models.Flashcard, error) {
	var card models.Flashcard
	r := srs.Rating(rating)
	if !r.Valid() {
		return card, apperr.Invalid("rating %d is not one of 0, 2, 3, 4", rating)
	}
	err := db.withTx(ctx, "review flashcard", func(tx *sql.Tx) error {
		var err error
		card, err = scanFlashcard(tx.QueryRowContext(ctx, `
			SELECT `+flashcardColumns+`
			FROM flashcards f JOIN notes n ON n.id = f.note_id
			WHERE f.id = ?
		`, cardID))
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("flashcard", cardID)
		}
		if err != nil {
			return err
		}
		now := db.now()
		next := srs.Review(srs.State{
			Interval:    card.Interval,
			EaseFactor:  card.EaseFactor,
			Repetitions: card.Repetitions,
			NextReview:  time.Unix(card.NextReview, 0),
		}, r, now)
		card.Interval, card.EaseFactor, card.Repetitions = next.Interval, next.EaseFactor, next.Repetitions
		card.NextReview = next.NextReview.Unix()
		if _, err := tx.ExecContext(ctx, `
			UPDATE flashcards SET interval = ?, ease_factor = ?, repetitions = ?, next_review = ?, updated_at = ?
			WHERE id = ?
		`, card.Interval, card.EaseFactor, card.Repetitions, card.NextReview, now.Unix(), cardID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO flashcard_reviews (card_id, rating, reviewed_at) VALUES (?, ?, ?)`,
			cardID, rating, now.Unix())
		return err
	})
	return card, err
}

// GetFlashcardStats summarizes cards of live notes and the review streak.
func (db *DB) GetFlashcardStats(ctx context.Context) (models.FlashcardStats, error) {
	var st models.FlashcardStats
	now := db.now()
	dayStart, dayEnd := dayBounds(now)

	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN f.next_review < ? THEN 1 ELSE 0 END), 0)
		FROM flashcards f JOIN notes n ON n.id = f.note_id
		WHERE n.is_trashed = 0
	`, dayEnd).Scan(&st.TotalCards, &st.DueToday)
	if err != nil {
		return st, apperr.Storage("store: flashcard stats", err)
	}
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM flashcard_reviews WHERE reviewed_at >= ? AND reviewed_at < ?`,
		dayStart, dayEnd).Scan(&st.ReviewedToday); err != nil {
		return st, apperr.Storage("store: flashcard stats", err)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT reviewed_at FROM flashcard_reviews ORDER BY reviewed_at DESC`)
	if err != nil {
		return st, apperr.Storage("store: flashcard stats", err)
	}
	stamps, err := collect(rows, func(r *sql.Rows) (int64, error) {
		var v int64
		err := r.Scan(&v)
		return v, err
	})
	if err != nil {
		return st, apperr.Storage("store: flashcard stats", err)
	}
	days := make(map[string]struct{}, len(stamps))
	for _, ts := range stamps {
		days[time.Unix(ts, 0).In(now.Location()).Format(dateLayout)] = struct{}{}
	}
	st.Streak = Streak(days, now)
	return st, nil
}

// Streak counts consecutive active days ending today. A day without activity
// yet does not break the streak; it is then counted from yesterday.
func Streak(days map[string]struct{}, now time.Time) int {
	d := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	if _, ok := days[d.Format(dateLayout)]; !ok {
		d = d.AddDate(0, 0, -1)
	}
	n := 0
	for {
		if _, ok := days[d.Format(dateLayout)]; !ok {
			return n
		}
		n++
		d = d.AddDate(0, 0, -1)
	}
}
