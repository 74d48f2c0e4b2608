// Package noteservice coordinates store operations for the transports. It
// orders saves per note, publishes change events and softens failures of
// non-critical read views.
package noteservice

import (
	"context"
	"log/slog"

	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/sse"
	"github.com/starford/notegraph/internal/store"
)

// Publisher receives note change events. *sse.Broker implements it.
type Publisher interface {
	PublishNoteEvent(kind, noteID string)
}

type nopPublisher struct{}

func (nopPublisher) PublishNoteEvent(string, string) {}

// Service is the command layer over one store handle.
type Service struct {
	db     *store.DB
	events Publisher
	logger *slog.Logger
	saves  *keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where change events go.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithLogger sets the logger used for degraded reads.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a new note service.
func NewService(db *store.DB, opts ...Option) *Service {
	s := &Service{
		db:     db,
		events: nopPublisher{},
		logger: slog.Default(),
		saves:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying store, for health checks.
func (s *Service) DB() *store.DB { return s.db }

func (s *Service) publish(kind, id string) {
	s.events.PublishNoteEvent(kind, id)
}

// CreateNote creates an empty note. Not idempotent.
func (s *Service) CreateNote(ctx context.Context, parentID *string) (string, error) {
	id, err := s.db.CreateNote(ctx, parentID)
	if err != nil {
		return "", err
	}
	s.publish(sse.KindCreated, id)
	return id, nil
}

func (s *Service) CreateNoteFromTemplate(ctx context.Context, title, emoji, content string) (string, error) {
	id, err := s.db.CreateFromTemplate(ctx, title, emoji, content)
	if err != nil {
		return "", err
	}
	s.publish(sse.KindCreated, id)
	return id, nil
}

func (s *Service) CreateFolder(ctx context.Context, name string, parentID *string) (string, error) {
	id, err := s.db.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	s.publish(sse.KindCreated, id)
	return id, nil
}

// GetOrCreateDailyNote is idempotent. A created event is sent on every call;
// the tree refresh it causes is throttled by the broker.
func (s *Service) GetOrCreateDailyNote(ctx context.Context, date string) (string, error) {
	id, err := s.db.GetOrCreateDailyNote(ctx, date)
	if err != nil {
		return "", err
	}
	s.publish(sse.KindCreated, id)
	return id, nil
}

// GetNote returns the note, trashed or not.
func (s *Service) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return s.db.GetNote(ctx, id)
}

// SaveNoteContent applies saves of the same note one at a time in arrival
// order. A save carrying a seq at or below the last applied one is dropped
// and reported with Applied false.
func (s *Service) SaveNoteContent(ctx context.Context, in store.SaveInput) (models.SaveResult, error) {
	unlock := s.saves.Lock(in.ID)
	defer unlock()

	before, err := s.db.GetNote(ctx, in.ID)
	if err != nil {
		return models.SaveResult{}, err
	}
	res, err := s.db.SaveContent(ctx, in)
	if err != nil {
		return res, err
	}
	if !res.Applied {
		s.logger.Debug("save superseded", slog.String("note_id", in.ID), slog.Int64("seq", in.Seq), slog.Int64("applied_seq", res.Seq))
		return res, nil
	}
	kind := sse.KindUpdated
	if res.Title != before.Title {
		kind = sse.KindRenamed
	}
	s.publish(kind, in.ID)
	return res, nil
}

func (s *Service) GetNotesTree(ctx context.Context) ([]models.NoteTreeItem, error) {
	return s.db.GetTree(ctx)
}

// GetMostRecentNote returns nil when there are no notes.
func (s *Service) GetMostRecentNote(ctx context.Context) (*models.Note, error) {
	return s.db.GetMostRecentNote(ctx)
}

func (s *Service) GetRecentNotes(ctx context.Context, limit int) ([]models.RecentNote, error) {
	return s.db.GetRecent(ctx, limit)
}

func (s *Service) GetFavoriteNotes(ctx context.Context) ([]models.NoteRef, error) {
	return s.db.GetFavorites(ctx)
}

func (s *Service) GetTrashedNotes(ctx context.Context) ([]models.TrashedNote, error) {
	return s.db.GetTrashed(ctx)
}

func (s *Service) GetNotesByDateRange(ctx context.Context, start, end int64) ([]models.NoteByDate, error) {
	return s.db.GetNotesByDateRange(ctx, start, end)
}

func (s *Service) RenameNote(ctx context.Context, id, title string) error {
	if err := s.db.Rename(ctx, id, title); err != nil {
		return err
	}
	s.publish(sse.KindRenamed, id)
	return nil
}

func (s *Service) SetNoteEmoji(ctx context.Context, id, emoji string) error {
	if err := s.db.SetEmoji(ctx, id, emoji); err != nil {
		return err
	}
	s.publish(sse.KindRenamed, id)
	return nil
}

func (s *Service) MoveNote(ctx context.Context, id string, newParentID *string) error {
	if err := s.db.Move(ctx, id, newParentID); err != nil {
		return err
	}
	s.publish(sse.KindMoved, id)
	return nil
}

// ToggleFavorite flips the flag, or sets it when value is given, and returns
// the resulting state.
func (s *Service) ToggleFavorite(ctx context.Context, id string, value *bool) (bool, error) {
	on, err := s.db.ToggleFavorite(ctx, id, value)
	if err != nil {
		return false, err
	}
	s.publish(sse.KindMoved, id)
	return on, nil
}

func (s *Service) TogglePin(ctx context.Context, id string, value *bool) (bool, error) {
	on, err := s.db.TogglePin(ctx, id, value)
	if err != nil {
		return false, err
	}
	s.publish(sse.KindMoved, id)
	return on, nil
}

// DeleteNote moves the note and its descendants to the trash.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if err := s.db.Trash(ctx, id); err != nil {
		return err
	}
	s.publish(sse.KindTrashed, id)
	return nil
}

func (s *Service) RestoreNote(ctx context.Context, id string) error {
	if err := s.db.Restore(ctx, id); err != nil {
		return err
	}
	s.publish(sse.KindRestored, id)
	return nil
}

func (s *Service) PermanentlyDeleteNote(ctx context.Context, id string) error {
	if err := s.db.PermanentlyDelete(ctx, id); err != nil {
		return err
	}
	s.publish(sse.KindDeleted, id)
	return nil
}

func (s *Service) SearchNotes(ctx context.Context, query string) ([]models.SearchResult, error) {
	return s.db.Search(ctx, query)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
