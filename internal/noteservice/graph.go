package noteservice

import (
	"context"

	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/sse"
)

func (s *Service) GetAllTags(ctx context.Context) ([]models.TagInfo, error) {
	return s.db.GetAllTags(ctx)
}

func (s *Service) GetNoteTags(ctx context.Context, noteID string) ([]models.NoteTagInfo, error) {
	return s.db.GetTagsForNote(ctx, noteID)
}

// SyncInlineTags replaces the note's inline tags with names. Manual tags are
// left alone.
func (s *Service) SyncInlineTags(ctx context.Context, noteID string, names []string) error {
	if err := s.db.SyncInlineTags(ctx, noteID, names); err != nil {
		return err
	}
	s.publish(sse.KindUpdated, noteID)
	return nil
}

func (s *Service) AddManualTag(ctx context.Context, noteID, name string) (models.NoteTagInfo, error) {
	info, err := s.db.AddManualTag(ctx, noteID, name)
	if err != nil {
		return info, err
	}
	s.publish(sse.KindUpdated, noteID)
	return info, nil
}

func (s *Service) RemoveManualTag(ctx context.Context, noteID, tagID string) error {
	if err := s.db.RemoveManualTag(ctx, noteID, tagID); err != nil {
		return err
	}
	s.publish(sse.KindUpdated, noteID)
	return nil
}

func (s *Service) SetTagColor(ctx context.Context, tagID, color string) error {
	return s.db.SetTagColor(ctx, tagID, color)
}

func (s *Service) MoveNoteToTag(ctx context.Context, noteID, fromTag, toTag string) error {
	if err := s.db.MoveNoteToTag(ctx, noteID, fromTag, toTag); err != nil {
		return err
	}
	s.publish(sse.KindUpdated, noteID)
	return nil
}

func (s *Service) SyncWikilinks(ctx context.Context, noteID string, titles []string) error {
	if err := s.db.SyncWikilinks(ctx, noteID, titles); err != nil {
		return err
	}
	s.publish(sse.KindUpdated, noteID)
	return nil
}

func (s *Service) GetBacklinks(ctx context.Context, noteID string) ([]models.NoteRef, error) {
	return s.db.GetBacklinks(ctx, noteID)
}

func (s *Service) GetAllNoteTitles(ctx context.Context) ([]models.NoteTitleItem, error) {
	return s.db.GetAllTitles(ctx)
}

// FindNoteByTitle returns nil when no live note has the title.
func (s *Service) FindNoteByTitle(ctx context.Context, title string) (*string, error) {
	return s.db.FindByTitle(ctx, title)
}

func (s *Service) GetGraphData(ctx context.Context) (models.GraphData, error) {
	return s.db.GetGraphData(ctx)
}
