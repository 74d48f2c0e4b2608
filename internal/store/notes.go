package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/parser"
)

// Default glyphs and titles.
const (
	DefaultTitle       = "Untitled"
	DefaultNoteEmoji   = "📝"
	DefaultFolderEmoji = "📁"
	DailyNoteEmoji     = "📅"
)

const noteColumns = `id, title, content, plain_text, emoji, parent_id, is_folder, is_favorite,
	is_pinned, is_trashed, sort_order, created_at, updated_at, trashed_at, word_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(s rowScanner) (*models.Note, error) {
	var (
		n                models.Note
		content, emoji   sql.NullString
		plain            string
		parentID         sql.NullString
		trashedAt        sql.NullInt64
		folder, fav, pin bool
		trashed          bool
	)
	if err := s.Scan(&n.ID, &n.Title, &content, &plain, &emoji, &parentID, &folder, &fav,
		&pin, &trashed, &n.SortOrder, &n.CreatedAt, &n.UpdatedAt, &trashedAt, &n.WordCount); err != nil {
		return nil, err
	}
	n.Content = nullString(content)
	n.PlainText = &plain
	n.Emoji = nullString(emoji)
	n.ParentID = nullString(parentID)
	n.TrashedAt = nullInt(trashedAt)
	n.IsFolder, n.IsFavorite, n.IsPinned, n.IsTrashed = folder, fav, pin, trashed
	return &n, nil
}

// noteState is the minimal row state mutations validate against.
type noteState struct {
	id       string
	parentID sql.NullString
	folder   bool
	trashed  bool
	saveSeq  int64
}

func loadState(ctx context.Context, q querier, id string) (*noteState, error) {
	st := noteState{id: id}
	err := q.QueryRowContext(ctx,
		`SELECT parent_id, is_folder, is_trashed, save_seq FROM notes WHERE id = ?`, id,
	).Scan(&st.parentID, &st.folder, &st.trashed, &st.saveSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("note", id)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// requireLive loads a note that must exist and not be in the trash.
func requireLive(ctx context.Context, q querier, id string) (*noteState, error) {
	st, err := loadState(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if st.trashed {
		return nil, apperr.NotFound("note", id)
	}
	return st, nil
}

// checkParent validates that parentID, when set, names a live folder.
func checkParent(ctx context.Context, q querier, parentID *string) error {
	if parentID == nil {
		return nil
	}
	st, err := requireLive(ctx, q, *parentID)
	if err != nil {
		return err
	}
	if !st.folder {
		return apperr.Invalid("parent %q is not a folder", *parentID)
	}
	return nil
}

func nextSortOrder(ctx context.Context, q querier, parentID *string) (int, error) {
	var max sql.NullInt64
	var err error
	if parentID == nil {
		err = q.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM notes WHERE parent_id IS NULL`).Scan(&max)
	} else {
		err = q.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM notes WHERE parent_id = ?`, *parentID).Scan(&max)
	}
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

type newNote struct {
	title     string
	content   *string
	emoji     string
	parentID  *string
	folder    bool
	dailyDate *string
}

func (db *DB) insertNote(ctx context.Context, tx *sql.Tx, n newNote) (string, error) {
	if err := checkParent(ctx, tx, n.parentID); err != nil {
		return "", err
	}
	order, err := nextSortOrder(ctx, tx, n.parentID)
	if err != nil {
		return "", err
	}
	id := newID()
	now := db.unixNow()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, title, title_key, content, emoji, parent_id, is_folder,
			sort_order, created_at, updated_at, daily_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, n.title, titleKey(n.title), n.content, n.emoji, n.parentID, boolInt(n.folder),
		order, now, now, n.dailyDate)
	if err != nil {
		return "", err
	}
	return id, nil
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// CreateNote creates an empty note under parentID (nil for root).
func (db *DB) CreateNote(ctx context.Context, parentID *string) (string, error) {
	var id string
	err := db.withTx(ctx, "create note", func(tx *sql.Tx) error {
		var err error
		id, err = db.insertNote(ctx, tx, newNote{title: DefaultTitle, emoji: DefaultNoteEmoji, parentID: parentID})
		if err != nil {
			return err
		}
		return ftsUpsert(ctx, tx, id, DefaultTitle, "")
	})
	return id, err
}

// CreateFolder creates a folder named name under parentID (nil for root).
func (db *DB) CreateFolder(ctx context.Context, name string, parentID *string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Invalid("folder name is empty")
	}
	var id string
	err := db.withTx(ctx, "create folder", func(tx *sql.Tx) error {
		var err error
		id, err = db.insertNote(ctx, tx, newNote{title: name, emoji: DefaultFolderEmoji, parentID: parentID, folder: true})
		return err
	})
	return id, err
}

// CreateFromTemplate creates a root note with the given title, emoji and
// content and indexes it like a regular save.
func (db *DB) CreateFromTemplate(ctx context.Context, title, emoji, content string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	if emoji == "" {
		emoji = DefaultNoteEmoji
	}
	var id string
	err := db.withTx(ctx, "create from template", func(tx *sql.Tx) error {
		var err error
		id, err = db.insertNote(ctx, tx, newNote{title: title, emoji: emoji})
		if err != nil {
			return err
		}
		return db.applyContent(ctx, tx, id, title, content, "")
	})
	return id, err
}

// GetOrCreateDailyNote returns the daily note for date (YYYY-MM-DD), creating
// it on first use. A trashed daily note is restored rather than duplicated.
func (db *DB) GetOrCreateDailyNote(ctx context.Context, date string) (string, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", apperr.Invalid("date %q is not YYYY-MM-DD", date)
	}
	var id string
	err := db.withTx(ctx, "daily note", func(tx *sql.Tx) error {
		var trashed bool
		err := tx.QueryRowContext(ctx, `SELECT id, is_trashed FROM notes WHERE daily_date = ?`, date).Scan(&id, &trashed)
		switch {
		case err == nil:
			if trashed {
				return db.restoreTx(ctx, tx, id)
			}
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
		content := parser.PlateDocument(date, "")
		id, err = db.insertNote(ctx, tx, newNote{title: date, content: &content, emoji: DailyNoteEmoji, dailyDate: &date})
		if err != nil {
			return err
		}
		return db.applyContent(ctx, tx, id, date, content, date)
	})
	return id, err
}

// GetNote returns the note with id, trashed or not.
func (db *DB) GetNote(ctx context.Context, id string) (*models.Note, error) {
	n, err := scanNote(db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("note", id)
	}
	if err != nil {
		return nil, apperr.Storage("store: get note", err)
	}
	return n, nil
}

// SaveInput is one content save. Seq, when positive, orders saves of the same
// note: a save whose Seq is not above the last applied one is dropped.
type SaveInput struct {
	ID        string
	Content   string
	Title     string
	PlainText string
	Seq       int64
}

// SaveContent persists content and its derived projections and reconciles
// inline tags, wikilinks, flashcards and the search index in the same
// transaction.
func (db *DB) SaveContent(ctx context.Context, in SaveInput) (models.SaveResult, error) {
	var res models.SaveResult
	err := db.withTx(ctx, "save content", func(tx *sql.Tx) error {
		st, err := requireLive(ctx, tx, in.ID)
		if err != nil {
			return err
		}
		if st.folder {
			return apperr.Invalid("note %q is a folder and has no content", in.ID)
		}
		res.Seq = st.saveSeq
		if in.Seq > 0 && in.Seq <= st.saveSeq {
			return nil
		}
		title := strings.TrimSpace(in.Title)
		if title == "" {
			title = parser.PlateTitle(in.Content)
		}
		if title == "" {
			title = DefaultTitle
		}
		if err := db.applyContent(ctx, tx, in.ID, title, in.Content, in.PlainText); err != nil {
			return err
		}
		if in.Seq > 0 {
			if _, err := tx.ExecContext(ctx, `UPDATE notes SET save_seq = ? WHERE id = ?`, in.Seq, in.ID); err != nil {
				return err
			}
			res.Seq = in.Seq
		}
		res.Applied = true
		res.Title = title
		return nil
	})
	return res, err
}

// applyContent writes content, title and derived fields of note id and
// re-derives its inline tags, wikilinks, flashcards and search entry. An empty
// plainText is derived from content.
func (db *DB) applyContent(ctx context.Context, tx *sql.Tx, id, title, content, plainText string) error {
	if plainText == "" {
		if text, ok := parser.PlateText(content); ok {
			plainText = text
		} else {
			plainText = content
		}
	}
	d := parser.Derive(plainText)
	_, err := tx.ExecContext(ctx, `
		UPDATE notes SET content = ?, plain_text = ?, title = ?, title_key = ?,
			word_count = ?, updated_at = ?
		WHERE id = ?
	`, content, plainText, title, titleKey(title), d.WordCount, db.unixNow(), id)
	if err != nil {
		return err
	}
	if err := db.syncInlineTagsTx(ctx, tx, id, d.Tags); err != nil {
		return err
	}
	if err := syncWikilinksTx(ctx, tx, id, d.Links); err != nil {
		return err
	}
	if err := db.syncFlashcardsTx(ctx, tx, id, d.Cards); err != nil {
		return err
	}
	return ftsUpsert(ctx, tx, id, title, plainText)
}

// GetTree returns every live note and folder as a flat list.
func (db *DB) GetTree(ctx context.Context) ([]models.NoteTreeItem, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, parent_id, emoji, is_folder, sort_order, is_favorite, is_pinned
		FROM notes
		WHERE is_trashed = 0
		ORDER BY is_folder DESC, sort_order, created_at
	`)
	if err != nil {
		return nil, apperr.Storage("store: get tree", err)
	}
	items, err := collect(rows, func(r *sql.Rows) (models.NoteTreeItem, error) {
		var it models.NoteTreeItem
		var parent, emoji sql.NullString
		err := r.Scan(&it.ID, &it.Title, &parent, &emoji, &it.IsFolder, &it.Position, &it.IsFavorite, &it.IsPinned)
		it.ParentID, it.Emoji = nullString(parent), nullString(emoji)
		return it, err
	})
	return items, apperr.Storage("store: get tree", err)
}

// Rename sets the title of a live note or folder. Wikilink edges that name the
// old title are left as they are.
func (db *DB) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperr.Invalid("title is empty")
	}
	return db.withTx(ctx, "rename note", func(tx *sql.Tx) error {
		st, err := requireLive(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE notes SET title = ?, title_key = ?, updated_at = ? WHERE id = ?`,
			title, titleKey(title), db.unixNow(), id); err != nil {
			return err
		}
		if st.folder {
			return nil
		}
		var plain string
		if err := tx.QueryRowContext(ctx, `SELECT plain_text FROM notes WHERE id = ?`, id).Scan(&plain); err != nil {
			return err
		}
		return ftsUpsert(ctx, tx, id, title, plain)
	})
}

// SetEmoji changes the display glyph of a live note.
func (db *DB) SetEmoji(ctx context.Context, id, emoji string) error {
	return db.withTx(ctx, "set emoji", func(tx *sql.Tx) error {
		if _, err := requireLive(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE notes SET emoji = ? WHERE id = ?`, emoji, id)
		return err
	})
}

// ToggleFavorite flips is_favorite, or sets it to *value when value is
// non-nil, and returns the resulting state.
func (db *DB) ToggleFavorite(ctx context.Context, id string, value *bool) (bool, error) {
	return db.toggleFlag(ctx, "is_favorite", id, value)
}

// TogglePin is ToggleFavorite for is_pinned.
func (db *DB) TogglePin(ctx context.Context, id string, value *bool) (bool, error) {
	return db.toggleFlag(ctx, "is_pinned", id, value)
}

func (db *DB) toggleFlag(ctx context.Context, column, id string, value *bool) (bool, error) {
	var state bool
	err := db.withTx(ctx, "toggle "+column, func(tx *sql.Tx) error {
		if _, err := requireLive(ctx, tx, id); err != nil {
			return err
		}
		var cur bool
		if err := tx.QueryRowContext(ctx, `SELECT `+column+` FROM notes WHERE id = ?`, id).Scan(&cur); err != nil {
			return err
		}
		state = !cur
		if value != nil {
			state = *value
		}
		_, err := tx.ExecContext(ctx, `UPDATE notes SET `+column+` = ? WHERE id = ?`, boolInt(state), id)
		return err
	})
	return state, err
}

// GetRecent returns up to limit live notes ordered by last update.
func (db *DB) GetRecent(ctx context.Context, limit int) ([]models.RecentNote, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, emoji, updated_at FROM notes
		WHERE is_trashed = 0 AND is_folder = 0
		ORDER BY updated_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, apperr.Storage("store: recent notes", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (models.RecentNote, error) {
		var n models.RecentNote
		var emoji sql.NullString
		var updated int64
		err := r.Scan(&n.ID, &n.Title, &emoji, &updated)
		n.Emoji = nullString(emoji)
		ts := time.Unix(updated, 0).UTC().Format(time.RFC3339)
		n.UpdatedAt = &ts
		return n, err
	})
	return out, apperr.Storage("store: recent notes", err)
}

// GetMostRecentNote returns the most recently updated live note, or nil.
func (db *DB) GetMostRecentNote(ctx context.Context) (*models.Note, error) {
	n, err := scanNote(db.conn.QueryRowContext(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE is_trashed = 0 AND is_folder = 0
		ORDER BY updated_at DESC, id
		LIMIT 1
	`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("store: most recent note", err)
	}
	return n, nil
}

// GetFavorites returns live favorite notes, pinned first.
func (db *DB) GetFavorites(ctx context.Context) ([]models.NoteRef, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, emoji FROM notes
		WHERE is_favorite = 1 AND is_trashed = 0
		ORDER BY is_pinned DESC, updated_at DESC
	`)
	if err != nil {
		return nil, apperr.Storage("store: favorites", err)
	}
	out, err := collect(rows, scanRef)
	return out, apperr.Storage("store: favorites", err)
}

func scanRef(r *sql.Rows) (models.NoteRef, error) {
	var n models.NoteRef
	var emoji sql.NullString
	err := r.Scan(&n.ID, &n.Title, &emoji)
	n.Emoji = nullString(emoji)
	return n, err
}

// GetNotesByDateRange returns live notes created or updated within
// [start, end], in unix seconds.
func (db *DB) GetNotesByDateRange(ctx context.Context, start, end int64) ([]models.NoteByDate, error) {
	if end < start {
		return nil, apperr.Invalid("end %d is before start %d", end, start)
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, emoji, created_at, updated_at FROM notes
		WHERE is_trashed = 0 AND is_folder = 0
		  AND ((created_at BETWEEN ?1 AND ?2) OR (updated_at BETWEEN ?1 AND ?2))
		ORDER BY updated_at DESC
	`, start, end)
	if err != nil {
		return nil, apperr.Storage("store: notes by date", err)
	}
	out, err := collect(rows, func(r *sql.Rows) (models.NoteByDate, error) {
		var n models.NoteByDate
		var emoji sql.NullString
		err := r.Scan(&n.ID, &n.Title, &emoji, &n.CreatedAt, &n.UpdatedAt)
		n.Emoji = nullString(emoji)
		return n, err
	})
	return out, apperr.Storage("store: notes by date", err)
}
