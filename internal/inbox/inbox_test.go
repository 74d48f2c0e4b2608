package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/notegraph/internal/storage"
	"github.com/starford/notegraph/internal/store"
)

// inboxTestEnv sets up an inbox dir, storage and DB.
func inboxTestEnv(t *testing.T) (string, *storage.FS, *store.DB) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	dbFile, err := os.CreateTemp("", "notegraph-inbox-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return dir, files, db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func noteIDFor(t *testing.T, db *store.DB, title string) string {
	t.Helper()
	id, err := db.FindByTitle(context.Background(), title)
	if err != nil || id == nil {
		return ""
	}
	return *id
}

func TestSyncImportsAndSkipsUnchanged(t *testing.T) {
	dir, files, db := inboxTestEnv(t)
	ctx := context.Background()
	_ = os.WriteFile(filepath.Join(dir, "idea.md"), []byte("---\ntags: [inbox]\n---\n# Big Idea\n\nsomething #draft"), 0o644)

	var events []string
	im := New(db, files, quietLogger(), func(kind, id string) { events = append(events, kind) })
	if err := im.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	id := noteIDFor(t, db, "Big Idea")
	if id == "" {
		t.Fatal("note not imported")
	}
	n, _ := db.GetNote(ctx, id)
	if n.PlainText == nil || *n.PlainText != "something #draft" {
		t.Errorf("plain text = %v", n.PlainText)
	}
	tags, _ := db.GetTagsForNote(ctx, id)
	if len(tags) != 2 {
		t.Errorf("tags = %+v", tags)
	}

	if err := im.Sync(ctx); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if len(events) != 1 || events[0] != EventCreated {
		t.Errorf("events = %v", events)
	}
}

func TestSyncUpdatesSameNote(t *testing.T) {
	dir, files, db := inboxTestEnv(t)
	ctx := context.Background()
	p := filepath.Join(dir, "journal.md")
	_ = os.WriteFile(p, []byte("first draft"), 0o644)

	im := New(db, files, quietLogger(), nil)
	_ = im.Sync(ctx)
	id := noteIDFor(t, db, "journal")
	if id == "" {
		t.Fatal("note titled after file name missing")
	}

	_ = os.WriteFile(p, []byte("second draft"), 0o644)
	_ = im.Sync(ctx)
	if again := noteIDFor(t, db, "journal"); again != id {
		t.Errorf("note id changed: %s -> %s", id, again)
	}
	n, _ := db.GetNote(ctx, id)
	if *n.PlainText != "second draft" {
		t.Errorf("plain text = %q", *n.PlainText)
	}
}

func TestSyncTreatsMoveAsRename(t *testing.T) {
	dir, files, db := inboxTestEnv(t)
	ctx := context.Background()
	_ = os.WriteFile(filepath.Join(dir, "a.md"), []byte("# Moving\nbody"), 0o644)

	im := New(db, files, quietLogger(), nil)
	_ = im.Sync(ctx)
	id := noteIDFor(t, db, "Moving")

	_ = os.Rename(filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md"))
	_ = im.Sync(ctx)

	tree, _ := db.GetTree(ctx)
	if len(tree) != 1 || tree[0].ID != id {
		t.Errorf("tree = %+v, want only %s", tree, id)
	}
	sums, _ := db.ImportedChecksums(ctx)
	if _, ok := sums["b.md"]; !ok {
		t.Errorf("import record not moved: %v", sums)
	}
}

func TestStripTitleHeading(t *testing.T) {
	if got := stripTitleHeading("# T\n\nbody", "T"); got != "body" {
		t.Errorf("got %q", got)
	}
	if got := stripTitleHeading("# Other\nbody", "T"); got != "# Other\nbody" {
		t.Errorf("got %q", got)
	}
}

func TestWatcher_NewFileImported(t *testing.T) {
	dir, files, db := inboxTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	im := New(db, files, quietLogger(), func(kind, id string) {
		mu.Lock()
		events = append(events, kind)
		mu.Unlock()
	})
	go im.Watch(ctx)

	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(dir, "new.md"), []byte("# Fresh\nhello"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return noteIDFor(t, db, "Fresh") != ""
	}, "new file not imported by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == EventCreated {
				return true
			}
		}
		return false
	}, "created event not fired")
}

func TestWatcher_NewSubdirImported(t *testing.T) {
	dir, files, db := inboxTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go New(db, files, quietLogger(), nil).Watch(ctx)
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(dir, "clips")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "clip.md"), []byte("# Clip\ncontent"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return noteIDFor(t, db, "Clip") != ""
	}, "file in new subdirectory not imported")
}
