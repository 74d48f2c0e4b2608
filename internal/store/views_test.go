package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

func TestSearchRanksAndHighlights(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	body := newNoteWith(t, db, clock, "Groceries", "buy kubernetes stickers")
	title := newNoteWith(t, db, clock, "Kubernetes notes", "cluster setup")
	trashed := newNoteWith(t, db, clock, "Old kubernetes", "gone")
	_ = db.Trash(ctx, trashed)

	results, err := db.Search(ctx, "kubernetes")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].ID != title || results[1].ID != body {
		t.Errorf("order = %s, %s", results[0].Title, results[1].Title)
	}
	if !strings.Contains(results[1].Snippet, "<mark>kubernetes</mark>") {
		t.Errorf("snippet = %q", results[1].Snippet)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	db, clock := testDB(t)
	newNoteWith(t, db, clock, "A", "anything")
	results, err := db.Search(context.Background(), `  "*" `)
	if err != nil || len(results) != 0 {
		t.Errorf("results = %+v, %v", results, err)
	}
}

func TestSearchFollowsRestore(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	id := newNoteWith(t, db, clock, "Phoenix", "rises again")

	_ = db.Trash(ctx, id)
	if r, _ := db.Search(ctx, "phoenix"); len(r) != 0 {
		t.Fatalf("trashed note found: %+v", r)
	}
	_ = db.Restore(ctx, id)
	if r, _ := db.Search(ctx, "phoenix"); len(r) != 1 {
		t.Errorf("restored note not found: %+v", r)
	}
}

func TestCanvas(t *testing.T) {
	db, _ := testDB(t)
	ctx := context.Background()

	if _, err := db.SaveCanvasItem(ctx, models.CanvasItem{Width: 0, Height: 10}); !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Errorf("zero width err = %v", err)
	}
	a, err := db.SaveCanvasItem(ctx, models.CanvasItem{X: 1, Y: 2, Width: 100, Height: 50})
	if err != nil {
		t.Fatalf("SaveCanvasItem: %v", err)
	}
	b, _ := db.SaveCanvasItem(ctx, models.CanvasItem{X: 300, Y: 2, Width: 100, Height: 50})

	if _, err := db.SaveCanvasConnection(ctx, models.CanvasConnection{FromItemID: a.ID, ToItemID: a.ID}); !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Errorf("self connection err = %v", err)
	}
	if _, err := db.SaveCanvasConnection(ctx, models.CanvasConnection{FromItemID: a.ID, ToItemID: "nope"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("dangling connection err = %v", err)
	}
	if _, err := db.SaveCanvasConnection(ctx, models.CanvasConnection{FromItemID: a.ID, ToItemID: b.ID}); err != nil {
		t.Fatalf("SaveCanvasConnection: %v", err)
	}

	a.X = 42
	if _, err := db.SaveCanvasItem(ctx, a); err != nil {
		t.Fatalf("update item: %v", err)
	}
	if err := db.DeleteCanvasItem(ctx, b.ID); err != nil {
		t.Fatalf("DeleteCanvasItem: %v", err)
	}
	data, _ := db.GetCanvasData(ctx)
	if len(data.Items) != 1 || data.Items[0].X != 42 {
		t.Errorf("items = %+v", data.Items)
	}
	if len(data.Connections) != 0 {
		t.Errorf("connections = %+v", data.Connections)
	}
	if err := db.DeleteCanvasItem(ctx, b.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("double delete err = %v", err)
	}
}

func TestSnippets(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()

	if _, err := db.CreateSnippet(ctx, "", "x", "go", ""); !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Errorf("empty title err = %v", err)
	}
	goSn, err := db.CreateSnippet(ctx, "Retry loop", "for i := 0; i < 3; i++ {}", "Go", "loops")
	if err != nil {
		t.Fatalf("CreateSnippet: %v", err)
	}
	if goSn.Language != "go" {
		t.Errorf("language = %q", goSn.Language)
	}
	clock.Advance(time.Second)
	plain, _ := db.CreateSnippet(ctx, "100% literal", "text", "", "")
	if plain.Language != "text" {
		t.Errorf("default language = %q", plain.Language)
	}

	all, _ := db.GetSnippets(ctx)
	if len(all) != 2 || all[0].ID != plain.ID {
		t.Errorf("snippets = %+v", all)
	}
	hits, _ := db.SearchSnippets(ctx, "%")
	if len(hits) != 1 || hits[0].ID != plain.ID {
		t.Errorf("wildcard search = %+v", hits)
	}
	hits, _ = db.SearchSnippets(ctx, "loops")
	if len(hits) != 1 || hits[0].ID != goSn.ID {
		t.Errorf("tag search = %+v", hits)
	}

	if err := db.DeleteSnippet(ctx, goSn.ID); err != nil {
		t.Fatalf("DeleteSnippet: %v", err)
	}
	if _, err := db.GetSnippet(ctx, goSn.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted snippet err = %v", err)
	}
}

func TestWritingStatsAccumulate(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()

	if _, err := db.RecordWritingStat(ctx, -1, 0, 0); !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Errorf("negative err = %v", err)
	}
	_, _ = db.RecordWritingStat(ctx, 100, 1, 60)
	st, err := db.RecordWritingStat(ctx, 50, 1, 30)
	if err != nil {
		t.Fatalf("RecordWritingStat: %v", err)
	}
	if st.WordsWritten != 150 || st.NotesEdited != 2 || st.TimeSpentSeconds != 90 {
		t.Errorf("stat = %+v", st)
	}

	clock.Advance(24 * time.Hour)
	_, _ = db.RecordWritingStat(ctx, 10, 1, 5)

	stats, _ := db.GetWritingStats(ctx, 7)
	if len(stats) != 2 || stats[0].Date != "2026-03-10" || stats[1].Date != "2026-03-11" {
		t.Errorf("stats = %+v", stats)
	}
	stats, _ = db.GetWritingStats(ctx, 1)
	if len(stats) != 1 || stats[0].WordsWritten != 10 {
		t.Errorf("last day = %+v", stats)
	}
}

func TestKanbanData(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	a := newNoteWith(t, db, clock, "A", "#todo #urgent")
	newNoteWith(t, db, clock, "Untagged", "plain")

	cards, err := db.GetKanbanData(ctx)
	if err != nil {
		t.Fatalf("GetKanbanData: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != a {
		t.Fatalf("cards = %+v", cards)
	}
	if got := strings.Join(cards[0].Tags, ","); got != "todo,urgent" {
		t.Errorf("tags = %s", got)
	}
}

func TestFindRelatedNotes(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	a := newNoteWith(t, db, clock, "Alpha", "#go #db [[Gamma]]")
	b := newNoteWith(t, db, clock, "Beta", "#go #db [[Gamma]]")
	c := newNoteWith(t, db, clock, "Gamma", "#cooking")
	newNoteWith(t, db, clock, "Delta", "#unrelated")

	related, err := db.FindRelatedNotes(ctx, a)
	if err != nil {
		t.Fatalf("FindRelatedNotes: %v", err)
	}
	if len(related) != 2 {
		t.Fatalf("related = %+v", related)
	}
	if related[0].ID != b || related[0].Score != 100 {
		t.Errorf("top = %+v", related[0])
	}
	if related[1].ID != c || related[1].Score <= 0 || related[1].Score >= 100 {
		t.Errorf("second = %+v", related[1])
	}

	if _, err := db.FindRelatedNotes(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestImportMarkdown(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	in := ImportInput{Path: "inbox/idea.md", Checksum: "c1", Title: "Idea", Body: "rough #draft idea", Tags: []string{"inbox"}}

	res, err := db.ImportMarkdown(ctx, in)
	if err != nil {
		t.Fatalf("ImportMarkdown: %v", err)
	}
	if !res.Created || res.Skipped {
		t.Errorf("first import = %+v", res)
	}
	got := tagSources(t, db, res.NoteID)
	if got["draft"] != "inline" || got["inbox"] != "manual" {
		t.Errorf("tags = %v", got)
	}

	again, _ := db.ImportMarkdown(ctx, in)
	if !again.Skipped || again.NoteID != res.NoteID {
		t.Errorf("unchanged import = %+v", again)
	}

	clock.Advance(time.Minute)
	in.Checksum, in.Body = "c2", "polished idea"
	upd, _ := db.ImportMarkdown(ctx, in)
	if upd.Created || upd.Skipped || upd.NoteID != res.NoteID {
		t.Errorf("changed import = %+v", upd)
	}
	n, _ := db.GetNote(ctx, res.NoteID)
	if n.PlainText == nil || *n.PlainText != "polished idea" {
		t.Errorf("plain text = %v", n.PlainText)
	}
	sums, _ := db.ImportedChecksums(ctx)
	if sums["inbox/idea.md"] != "c2" {
		t.Errorf("checksums = %v", sums)
	}
}
