//go:build sqlite_fts5

package store

import (
	"context"
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db, _ := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_PrefixMatch(t *testing.T) {
	db, clock := testDB(t)
	id := newNoteWith(t, db, clock, "Indexing", "incremental indexing strategies")

	results, err := db.Search(context.Background(), "increm")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].NoteID != id {
		t.Fatalf("results = %+v", results)
	}
}

func TestFTS5_PermanentDeleteRemovesEntry(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	id := newNoteWith(t, db, clock, "Vanishing", "vanishing content")
	if err := db.PermanentlyDelete(ctx, id); err != nil {
		t.Fatalf("PermanentlyDelete: %v", err)
	}
	var count int
	_ = db.conn.QueryRow(`SELECT count(*) FROM notes_fts WHERE note_id = ?`, id).Scan(&count)
	if count != 0 {
		t.Errorf("fts rows left = %d", count)
	}
}

func TestFTS5_SaveReplacesContent(t *testing.T) {
	db, clock := testDB(t)
	ctx := context.Background()
	id := newNoteWith(t, db, clock, "Draft", "original wording")
	saveText(t, db, clock, id, "Draft", "rewritten wording")

	if r, _ := db.Search(ctx, "original"); len(r) != 0 {
		t.Errorf("stale content still indexed: %+v", r)
	}
	if r, _ := db.Search(ctx, "rewritten"); len(r) != 1 {
		t.Errorf("new content not indexed: %+v", r)
	}
}
