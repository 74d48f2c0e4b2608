// Package store is the SQLite-backed persistent store of the note graph: note
// tree, tag index, wikilink graph, full-text index, flashcards and the
// derived-view tables. Every multi-record mutation runs in one transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/starford/notegraph/internal/apperr"
)

// DB wraps a sql.DB with note graph operations.
type DB struct {
	conn      *sql.DB
	now       func() time.Time
	busyRetry time.Duration
	logger    *slog.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		db.now = now
	}
}

// WithBusyRetry bounds how long a transaction is retried while the database
// is locked by another connection.
func WithBusyRetry(d time.Duration) Option {
	return func(db *DB) {
		db.busyRetry = d
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) {
		db.logger = l
	}
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(path string, opts ...Option) (*DB, error) {
	db := &DB{
		now:       time.Now,
		busyRetry: 2 * time.Second,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(db)
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	db.conn = conn
	return db, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return apperr.Storage("store: ping", db.conn.PingContext(ctx))
}

// Now returns the store's current time.
func (db *DB) Now() time.Time {
	return db.now()
}

func (db *DB) unixNow() int64 {
	return db.now().Unix()
}

func newID() string {
	return uuid.NewString()
}

// withTx runs fn in a write transaction, retrying while SQLite reports the
// database busy. Domain errors returned by fn pass through untouched; anything
// else is reported as a storage failure.
func (db *DB) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	deadline := time.Now().Add(db.busyRetry)
	backoff := 10 * time.Millisecond
	for {
		err := db.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if isDomainErr(err) {
			return err
		}
		if !isBusy(err) || time.Now().After(deadline) {
			return apperr.Storage("store: "+op, err)
		}
		db.logger.Debug("store: database busy, retrying", slog.String("op", op), slog.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return apperr.Storage("store: "+op, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

func (db *DB) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isDomainErr(err error) bool {
	return errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrInvalidOperation) ||
		errors.Is(err, apperr.ErrConflict)
}

func isBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// collect scans every row with scan and closes rows.
func collect[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

// dayBounds returns the unix second range [start, end) of the calendar day
// containing t, in t's location.
func dayBounds(t time.Time) (int64, int64) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start.Unix(), start.AddDate(0, 0, 1).Unix()
}

const dateLayout = "2006-01-02"
