package store

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

func tagSources(t *testing.T, db *DB, noteID string) map[string]string {
	t.Helper()
	tags, err := db.GetTagsForNote(context.Background(), noteID)
	if err != nil {
		t.Fatalf("GetTagsForNote: %v", err)
	}
	out := make(map[string]string, len(tags))
	for _, tag := range tags {
		out[tag.TagName] = tag.Source
	}
	return out
}

func TestInlineAndManualTags(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	id := newNoteWith(t, db, clock, "Tasks", "#urgent #todo")

	if _, err := db.AddManualTag(ctx, id, "archive"); err != nil {
		t.Fatalf("AddManualTag: %v", err)
	}
	got := tagSources(t, db, id)
	want := map[string]string{"urgent": "inline", "todo": "inline", "archive": "manual"}
	if len(got) != len(want) {
		t.Fatalf("tags = %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s source = %q, want %q", k, got[k], v)
		}
	}

	saveText(t, db, clock, id, "Tasks", "#todo")
	got = tagSources(t, db, id)
	if _, ok := got["urgent"]; ok {
		t.Error("urgent should be gone after edit")
	}
	if got["todo"] != "inline" || got["archive"] != "manual" {
		t.Errorf("tags after edit = %v", got)
	}
}

func TestManualTagSurvivesInlineRemoval(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	id := newNoteWith(t, db, clock, "N", "#keep")

	if _, err := db.AddManualTag(ctx, id, "#Keep"); err != nil {
		t.Fatalf("AddManualTag: %v", err)
	}
	saveText(t, db, clock, id, "N", "no tags")
	if got := tagSources(t, db, id); got["keep"] != "manual" {
		t.Errorf("tags = %v", got)
	}
}

func TestRemoveManualTag(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	id := newNoteWith(t, db, clock, "N", "#inline")

	info, _ := db.AddManualTag(ctx, id, "extra")
	if err := db.RemoveManualTag(ctx, id, info.TagID); err != nil {
		t.Fatalf("RemoveManualTag: %v", err)
	}
	tags, _ := db.GetTagsForNote(ctx, id)
	if len(tags) != 1 {
		t.Fatalf("tags = %+v", tags)
	}
	if err := db.RemoveManualTag(ctx, id, tags[0].TagID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("removing inline tag err = %v", err)
	}
}

func TestAllTagsCountsLiveNotes(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	a := newNoteWith(t, db, clock, "A", "#shared")
	newNoteWith(t, db, clock, "B", "#shared")

	_ = db.Trash(ctx, a)
	tags, err := db.GetAllTags(ctx)
	if err != nil {
		t.Fatalf("GetAllTags: %v", err)
	}
	if len(tags) != 1 || tags[0].NoteCount != 1 {
		t.Errorf("tags = %+v", tags)
	}
	if tags[0].Color == nil || *tags[0].Color != models.DefaultTagColor {
		t.Errorf("color = %v", tags[0].Color)
	}
	if err := db.SetTagColor(ctx, tags[0].ID, "#ff0000"); err != nil {
		t.Fatalf("SetTagColor: %v", err)
	}
	if err := db.SetTagColor(ctx, "missing", "#ff0000"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing tag err = %v", err)
	}
}

func TestMoveNoteToTag(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	id := newNoteWith(t, db, clock, "Card", "#todo")

	if err := db.MoveNoteToTag(ctx, id, "todo", "done"); err != nil {
		t.Fatalf("MoveNoteToTag: %v", err)
	}
	got := tagSources(t, db, id)
	if _, ok := got["todo"]; ok || got["done"] != "manual" {
		t.Errorf("tags = %v", got)
	}
}

func TestBacklinksAndRename(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	a := newNoteWith(t, db, clock, "Project X", "plan")
	b := newNoteWith(t, db, clock, "Notes", "see [[project x]] and [[Ghost]]")

	bl, err := db.GetBacklinks(ctx, a)
	if err != nil {
		t.Fatalf("GetBacklinks: %v", err)
	}
	if len(bl) != 1 || bl[0].ID != b {
		t.Fatalf("backlinks = %+v", bl)
	}

	graph, _ := db.GetGraphData(ctx)
	if len(graph.Nodes) != 2 || len(graph.Edges) != 1 {
		t.Fatalf("graph = %+v", graph)
	}
	if e := graph.Edges[0]; e.Source != b || e.Target != a || e.EdgeType != EdgeTypeWikilink {
		t.Errorf("edge = %+v", e)
	}

	if err := db.Rename(ctx, a, "Project Y"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	bl, _ = db.GetBacklinks(ctx, a)
	if len(bl) != 0 {
		t.Errorf("backlinks after rename = %+v", bl)
	}
	links, _ := db.OutgoingLinks(ctx, b)
	if len(links) != 2 {
		t.Errorf("outgoing links rewritten: %v", links)
	}
}

func TestBacklinksGoToCanonicalNote(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	older := newNoteWith(t, db, clock, "Dup", "one")
	newer := newNoteWith(t, db, clock, "Dup", "two")
	newNoteWith(t, db, clock, "Src", "[[Dup]]")

	if bl, _ := db.GetBacklinks(ctx, newer); len(bl) != 1 {
		t.Errorf("canonical backlinks = %+v", bl)
	}
	if bl, _ := db.GetBacklinks(ctx, older); len(bl) != 0 {
		t.Errorf("shadowed backlinks = %+v", bl)
	}
	found, _ := db.FindByTitle(ctx, "DUP")
	if found == nil || *found != newer {
		t.Errorf("FindByTitle = %v", found)
	}
	if missing, _ := db.FindByTitle(ctx, "nothing"); missing != nil {
		t.Errorf("FindByTitle(nothing) = %v", *missing)
	}
}

func TestBacklinksOfTrashedNote(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	a := newNoteWith(t, db, clock, "A", "x")
	_ = db.Trash(ctx, a)
	if _, err := db.GetBacklinks(ctx, a); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestFlashcardLifecycle(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	id := newNoteWith(t, db, clock, "Deck", "Q: capital of France?\nA: Paris\nQ: 2+2?\nA: 4")

	due, err := db.GetDueFlashcards(ctx)
	if err != nil {
		t.Fatalf("GetDueFlashcards: %v", err)
	}
	if len(due) != 2 || due[0].NoteTitle != "Deck" {
		t.Fatalf("due = %+v", due)
	}

	var capital string
	for _, c := range due {
		if c.Question == "capital of France?" {
			capital = c.ID
		}
	}
	if capital == "" {
		t.Fatalf("capital card missing: %+v", due)
	}

	card, err := db.ReviewFlashcard(ctx, capital, 3)
	if err != nil {
		t.Fatalf("ReviewFlashcard: %v", err)
	}
	if card.Repetitions != 1 || card.Interval != 1 {
		t.Errorf("after good review = %+v", card)
	}
	if _, err := db.ReviewFlashcard(ctx, capital, 1); !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Errorf("rating 1 err = %v", err)
	}
	if _, err := db.ReviewFlashcard(ctx, "missing", 3); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing card err = %v", err)
	}

	stats, _ := db.GetFlashcardStats(ctx)
	if stats.TotalCards != 2 || stats.ReviewedToday != 1 || stats.Streak != 1 {
		t.Errorf("stats = %+v", stats)
	}

	// Editing the answer keeps scheduling state; dropping a pair removes it.
	saveText(t, db, clock, id, "Deck", "Q: capital of France?\nA: Paris, France")
	cards, _ := db.GetNoteFlashcards(ctx, id)
	if len(cards) != 1 || cards[0].Answer != "Paris, France" || cards[0].Repetitions != 1 {
		t.Errorf("cards after edit = %+v", cards)
	}

	_ = db.Trash(ctx, id)
	if due, _ := db.GetDueFlashcards(ctx); len(due) != 0 {
		t.Errorf("trashed note cards still due: %+v", due)
	}
}
