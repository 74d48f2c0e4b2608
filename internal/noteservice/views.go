package noteservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/export"
	"github.com/starford/notegraph/internal/models"
)

// degrade swallows storage failures of non-critical views. Validation errors
// still reach the caller.
func degrade[T any](s *Service, view string, v T, err error, empty T) (T, error) {
	if err == nil {
		return v, nil
	}
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidOperation) {
		return empty, err
	}
	s.logger.Warn("view degraded to empty result", slog.String("view", view), slog.String("error", err.Error()))
	return empty, nil
}

func (s *Service) FindRelatedNotes(ctx context.Context, noteID string) ([]models.RelatedNote, error) {
	v, err := s.db.FindRelatedNotes(ctx, noteID)
	return degrade(s, "related notes", nonNilSlice(v), err, []models.RelatedNote{})
}

func (s *Service) GetKanbanData(ctx context.Context) ([]models.KanbanCard, error) {
	v, err := s.db.GetKanbanData(ctx)
	return degrade(s, "kanban", nonNilSlice(v), err, []models.KanbanCard{})
}

func (s *Service) GetWritingStats(ctx context.Context, days int) ([]models.WritingStat, error) {
	v, err := s.db.GetWritingStats(ctx, days)
	return degrade(s, "writing stats", nonNilSlice(v), err, []models.WritingStat{})
}

func (s *Service) GetFlashcardStats(ctx context.Context) (models.FlashcardStats, error) {
	v, err := s.db.GetFlashcardStats(ctx)
	return degrade(s, "flashcard stats", v, err, models.FlashcardStats{})
}

// RecordWritingStat adds to today's counters.
func (s *Service) RecordWritingStat(ctx context.Context, words, notes, seconds int) (models.WritingStat, error) {
	return s.db.RecordWritingStat(ctx, words, notes, seconds)
}

func (s *Service) SyncFlashcards(ctx context.Context, noteID string, cards []models.QA) error {
	return s.db.SyncFlashcards(ctx, noteID, cards)
}

func (s *Service) GetDueFlashcards(ctx context.Context) ([]models.Flashcard, error) {
	return s.db.GetDueFlashcards(ctx)
}

func (s *Service) GetNoteFlashcards(ctx context.Context, noteID string) ([]models.Flashcard, error) {
	return s.db.GetNoteFlashcards(ctx, noteID)
}

func (s *Service) ReviewFlashcard(ctx context.Context, cardID string, rating int) (models.Flashcard, error) {
	return s.db.ReviewFlashcard(ctx, cardID, rating)
}

func (s *Service) GetCanvasData(ctx context.Context) (models.CanvasData, error) {
	return s.db.GetCanvasData(ctx)
}

func (s *Service) SaveCanvasItem(ctx context.Context, it models.CanvasItem) (models.CanvasItem, error) {
	return s.db.SaveCanvasItem(ctx, it)
}

func (s *Service) DeleteCanvasItem(ctx context.Context, id string) error {
	return s.db.DeleteCanvasItem(ctx, id)
}

func (s *Service) SaveCanvasConnection(ctx context.Context, c models.CanvasConnection) (models.CanvasConnection, error) {
	return s.db.SaveCanvasConnection(ctx, c)
}

func (s *Service) DeleteCanvasConnection(ctx context.Context, id string) error {
	return s.db.DeleteCanvasConnection(ctx, id)
}

func (s *Service) CreateSnippet(ctx context.Context, title, content, language, tags string) (models.Snippet, error) {
	return s.db.CreateSnippet(ctx, title, content, language, tags)
}

func (s *Service) GetSnippets(ctx context.Context) ([]models.Snippet, error) {
	return s.db.GetSnippets(ctx)
}

func (s *Service) SearchSnippets(ctx context.Context, query string) ([]models.Snippet, error) {
	return s.db.SearchSnippets(ctx, query)
}

func (s *Service) DeleteSnippet(ctx context.Context, id string) error {
	return s.db.DeleteSnippet(ctx, id)
}

// HighlightSnippet renders a stored snippet as highlighted HTML.
func (s *Service) HighlightSnippet(ctx context.Context, id string) (string, error) {
	sn, err := s.db.GetSnippet(ctx, id)
	if err != nil {
		return "", err
	}
	return export.Highlight(sn.Content, sn.Language)
}
