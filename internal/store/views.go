package store

import (
	"context"
	"database/sql"
	"math"
	"sort"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

// RelatedLimit caps find_related_notes.
const RelatedLimit = 10

// GetKanbanData returns every live tagged note with its tag names. A note
// with several tags belongs to several columns.
func (db *DB) GetKanbanData(ctx context.Context) ([]models.KanbanCard, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT n.id, n.title, n.emoji, t.name
		FROM notes n
		JOIN note_tags nt ON nt.note_id = n.id
		JOIN tags t ON t.id = nt.tag_id
		WHERE n.is_trashed = 0 AND n.is_folder = 0
		ORDER BY n.updated_at DESC, n.id, t.name
	`)
	if err != nil {
		return nil, apperr.Storage("store: kanban", err)
	}
	type row struct {
		card models.KanbanCard
		tag  string
	}
	list, err := collect(rows, func(r *sql.Rows) (row, error) {
		var x row
		var emoji sql.NullString
		err := r.Scan(&x.card.ID, &x.card.Title, &emoji, &x.tag)
		x.card.Emoji = nullString(emoji)
		return x, err
	})
	if err != nil {
		return nil, apperr.Storage("store: kanban", err)
	}
	out := make([]models.KanbanCard, 0)
	pos := make(map[string]int)
	for _, x := range list {
		i, ok := pos[x.card.ID]
		if !ok {
			i = len(out)
			pos[x.card.ID] = i
			x.card.Tags = []string{}
			out = append(out, x.card)
		}
		out[i].Tags = append(out[i].Tags, x.tag)
	}
	return out, nil
}

type noteFeatures struct {
	ref   models.NoteRef
	key   string
	tags  map[string]struct{}
	links map[string]struct{}
}

// FindRelatedNotes scores every other live note against noteID by shared tags,
// shared wikilink targets and a direct link either way, normalized to 0..100.
func (db *DB) FindRelatedNotes(ctx context.Context, noteID string) ([]models.RelatedNote, error) {
	if _, err := requireLive(ctx, db.conn, noteID); err != nil {
		if isDomainErr(err) {
			return nil, err
		}
		return nil, apperr.Storage("store: related notes", err)
	}
	feats, err := db.loadFeatures(ctx)
	if err != nil {
		return nil, apperr.Storage("store: related notes", err)
	}
	self, ok := feats[noteID]
	if !ok {
		return []models.RelatedNote{}, nil
	}

	out := make([]models.RelatedNote, 0)
	for id, other := range feats {
		if id == noteID {
			continue
		}
		shared := overlap(self.tags, other.tags) + overlap(self.links, other.links)
		total := union(self.tags, other.tags) + union(self.links, other.links)
		if _, ok := self.links[other.key]; ok {
			shared++
			total++
		} else if _, ok := other.links[self.key]; ok {
			shared++
			total++
		}
		if shared == 0 || total == 0 {
			continue
		}
		out = append(out, models.RelatedNote{
			ID:    id,
			Title: other.ref.Title,
			Emoji: other.ref.Emoji,
			Score: int(math.Round(100 * float64(shared) / float64(total))),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > RelatedLimit {
		out = out[:RelatedLimit]
	}
	return out, nil
}

func (db *DB) loadFeatures(ctx context.Context) (map[string]*noteFeatures, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, emoji, title_key FROM notes WHERE is_trashed = 0 AND is_folder = 0`)
	if err != nil {
		return nil, err
	}
	list, err := collect(rows, func(r *sql.Rows) (*noteFeatures, error) {
		f := &noteFeatures{tags: map[string]struct{}{}, links: map[string]struct{}{}}
		var emoji sql.NullString
		err := r.Scan(&f.ref.ID, &f.ref.Title, &emoji, &f.key)
		f.ref.Emoji = nullString(emoji)
		return f, err
	})
	if err != nil {
		return nil, err
	}
	feats := make(map[string]*noteFeatures, len(list))
	for _, f := range list {
		feats[f.ref.ID] = f
	}

	add := func(query string, pick func(*noteFeatures) map[string]struct{}) error {
		rows, err := db.conn.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id, v string
			if err := rows.Scan(&id, &v); err != nil {
				return err
			}
			if f, ok := feats[id]; ok {
				pick(f)[v] = struct{}{}
			}
		}
		return rows.Err()
	}
	if err := add(`SELECT note_id, tag_id FROM note_tags`, func(f *noteFeatures) map[string]struct{} { return f.tags }); err != nil {
		return nil, err
	}
	if err := add(`SELECT source_note_id, target_key FROM wikilinks`, func(f *noteFeatures) map[string]struct{} { return f.links }); err != nil {
		return nil, err
	}
	return feats, nil
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func union(a, b map[string]struct{}) int {
	return len(a) + len(b) - overlap(a, b)
}
