// Package testutil provides shared test helpers for setting up databases,
// services and directories.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/notegraph/internal/noteservice"
	"github.com/starford/notegraph/internal/storage"
	"github.com/starford/notegraph/internal/store"
)

// Clock is a manually advanced clock safe for concurrent use.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a clock stopped at 2026-03-10 09:00 local time.
func NewClock() *Clock {
	return &Clock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T, opts ...store.Option) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notegraph-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	db, err := store.Open(dbFile.Name(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestService wires a service over a fresh database driven by the returned
// clock.
func TestService(t *testing.T, opts ...noteservice.Option) (*noteservice.Service, *Clock) {
	t.Helper()
	clock := NewClock()
	db := TestDB(t, store.WithClock(clock.Now))
	opts = append([]noteservice.Option{noteservice.WithLogger(QuietLogger())}, opts...)
	return noteservice.NewService(db, opts...), clock
}

// TestDir creates a temporary directory with a storage.Provider.
func TestDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, files
}

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// Recorder collects published note events.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *Recorder) PublishNoteEvent(kind, noteID string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+noteID)
	r.mu.Unlock()
}

// Events returns the recorded events as "kind:id".
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
