package api

import (
	"context"

	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/noteservice"
	"github.com/starford/notegraph/internal/store"
)

// Handler holds the command implementations. Each method is one command.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Note tree.

func (h *Handler) CreateNote(ctx context.Context, req CreateNoteRequest) (string, error) {
	return h.svc.CreateNote(ctx, req.ParentID)
}

func (h *Handler) CreateNoteFromTemplate(ctx context.Context, req TemplateRequest) (string, error) {
	return h.svc.CreateNoteFromTemplate(ctx, req.Title, req.Emoji, req.Content)
}

func (h *Handler) CreateFolder(ctx context.Context, req CreateFolderRequest) (string, error) {
	return h.svc.CreateFolder(ctx, req.Name, req.ParentID)
}

func (h *Handler) GetNote(ctx context.Context, req NoteIDRequest) (*models.Note, error) {
	return h.svc.GetNote(ctx, req.NoteID)
}

func (h *Handler) SaveNoteContent(ctx context.Context, req SaveContentRequest) (models.SaveResult, error) {
	return h.svc.SaveNoteContent(ctx, store.SaveInput{
		ID:        req.NoteID,
		Content:   req.Content,
		Title:     req.Title,
		PlainText: req.PlainText,
		Seq:       req.Seq,
	})
}

func (h *Handler) GetNotesTree(ctx context.Context, _ struct{}) ([]models.NoteTreeItem, error) {
	return h.svc.GetNotesTree(ctx)
}

func (h *Handler) GetMostRecentNote(ctx context.Context, _ struct{}) (*models.Note, error) {
	return h.svc.GetMostRecentNote(ctx)
}

func (h *Handler) DeleteNote(ctx context.Context, req NoteIDRequest) (Empty, error) {
	return nil, h.svc.DeleteNote(ctx, req.NoteID)
}

func (h *Handler) GetRecentNotes(ctx context.Context, req LimitRequest) ([]models.RecentNote, error) {
	return h.svc.GetRecentNotes(ctx, req.Limit)
}

func (h *Handler) MoveNote(ctx context.Context, req MoveNoteRequest) (Empty, error) {
	return nil, h.svc.MoveNote(ctx, req.NoteID, req.NewParentID)
}

func (h *Handler) RenameNote(ctx context.Context, req RenameNoteRequest) (Empty, error) {
	return nil, h.svc.RenameNote(ctx, req.NoteID, req.NewTitle)
}

func (h *Handler) SetNoteEmoji(ctx context.Context, req SetEmojiRequest) (Empty, error) {
	return nil, h.svc.SetNoteEmoji(ctx, req.NoteID, req.Emoji)
}

func (h *Handler) ToggleFavorite(ctx context.Context, req ToggleRequest) (bool, error) {
	return h.svc.ToggleFavorite(ctx, req.NoteID, req.Value)
}

func (h *Handler) TogglePin(ctx context.Context, req ToggleRequest) (bool, error) {
	return h.svc.TogglePin(ctx, req.NoteID, req.Value)
}

func (h *Handler) GetFavoriteNotes(ctx context.Context, _ struct{}) ([]models.NoteRef, error) {
	return h.svc.GetFavoriteNotes(ctx)
}

func (h *Handler) GetTrashedNotes(ctx context.Context, _ struct{}) ([]models.TrashedNote, error) {
	return h.svc.GetTrashedNotes(ctx)
}

func (h *Handler) PermanentlyDeleteNote(ctx context.Context, req NoteIDRequest) (Empty, error) {
	return nil, h.svc.PermanentlyDeleteNote(ctx, req.NoteID)
}

func (h *Handler) RestoreNote(ctx context.Context, req NoteIDRequest) (Empty, error) {
	return nil, h.svc.RestoreNote(ctx, req.NoteID)
}

func (h *Handler) GetOrCreateDailyNote(ctx context.Context, req DailyNoteRequest) (string, error) {
	return h.svc.GetOrCreateDailyNote(ctx, req.Date)
}

func (h *Handler) GetNotesByDateRange(ctx context.Context, req DateRangeRequest) ([]models.NoteByDate, error) {
	return h.svc.GetNotesByDateRange(ctx, req.StartTs, req.EndTs)
}

func (h *Handler) SearchNotes(ctx context.Context, req QueryRequest) ([]models.SearchResult, error) {
	return h.svc.SearchNotes(ctx, req.Query)
}

// Tags.

func (h *Handler) GetAllTags(ctx context.Context, _ struct{}) ([]models.TagInfo, error) {
	return h.svc.GetAllTags(ctx)
}

func (h *Handler) GetNoteTags(ctx context.Context, req NoteIDRequest) ([]models.NoteTagInfo, error) {
	return h.svc.GetNoteTags(ctx, req.NoteID)
}

func (h *Handler) SyncInlineTags(ctx context.Context, req SyncInlineTagsRequest) (Empty, error) {
	return nil, h.svc.SyncInlineTags(ctx, req.NoteID, req.TagNames)
}

func (h *Handler) AddManualTag(ctx context.Context, req AddManualTagRequest) (models.NoteTagInfo, error) {
	return h.svc.AddManualTag(ctx, req.NoteID, req.TagName)
}

func (h *Handler) RemoveManualTag(ctx context.Context, req RemoveTagRequest) (Empty, error) {
	return nil, h.svc.RemoveManualTag(ctx, req.NoteID, req.TagID)
}

func (h *Handler) SetTagColor(ctx context.Context, req SetTagColorRequest) (Empty, error) {
	return nil, h.svc.SetTagColor(ctx, req.TagID, req.Color)
}

func (h *Handler) MoveNoteToTag(ctx context.Context, req MoveNoteToTagRequest) (Empty, error) {
	return nil, h.svc.MoveNoteToTag(ctx, req.NoteID, req.FromTag, req.ToTag)
}

func (h *Handler) GetKanbanData(ctx context.Context, _ struct{}) ([]models.KanbanCard, error) {
	return h.svc.GetKanbanData(ctx)
}

// Links and graph.

func (h *Handler) SyncWikilinks(ctx context.Context, req SyncWikilinksRequest) (Empty, error) {
	return nil, h.svc.SyncWikilinks(ctx, req.NoteID, req.TargetTitles)
}

func (h *Handler) GetBacklinks(ctx context.Context, req NoteIDRequest) ([]models.NoteRef, error) {
	return h.svc.GetBacklinks(ctx, req.NoteID)
}

func (h *Handler) GetAllNoteTitles(ctx context.Context, _ struct{}) ([]models.NoteTitleItem, error) {
	return h.svc.GetAllNoteTitles(ctx)
}

func (h *Handler) FindNoteByTitle(ctx context.Context, req TitleRequest) (*string, error) {
	return h.svc.FindNoteByTitle(ctx, req.Title)
}

func (h *Handler) GetGraphData(ctx context.Context, _ struct{}) (models.GraphData, error) {
	return h.svc.GetGraphData(ctx)
}

func (h *Handler) FindRelatedNotes(ctx context.Context, req NoteIDRequest) ([]models.RelatedNote, error) {
	return h.svc.FindRelatedNotes(ctx, req.NoteID)
}

func (h *Handler) ExportNoteMarkdown(ctx context.Context, req NoteIDRequest) (string, error) {
	return h.svc.ExportNoteMarkdown(ctx, req.NoteID)
}

func (h *Handler) ExportNoteHTML(ctx context.Context, req NoteIDRequest) (string, error) {
	return h.svc.ExportNoteHTML(ctx, req.NoteID)
}

// Flashcards.

func (h *Handler) SyncFlashcards(ctx context.Context, req SyncFlashcardsRequest) (Empty, error) {
	cards := make([]models.QA, 0, len(req.Cards))
	for _, c := range req.Cards {
		cards = append(cards, models.QA{Question: c.Question, Answer: c.Answer})
	}
	return nil, h.svc.SyncFlashcards(ctx, req.NoteID, cards)
}

func (h *Handler) GetDueFlashcards(ctx context.Context, _ struct{}) ([]models.Flashcard, error) {
	return h.svc.GetDueFlashcards(ctx)
}

func (h *Handler) GetNoteFlashcards(ctx context.Context, req NoteIDRequest) ([]models.Flashcard, error) {
	return h.svc.GetNoteFlashcards(ctx, req.NoteID)
}

func (h *Handler) ReviewFlashcard(ctx context.Context, req ReviewFlashcardRequest) (models.Flashcard, error) {
	return h.svc.ReviewFlashcard(ctx, req.CardID, req.Rating)
}

func (h *Handler) GetFlashcardStats(ctx context.Context, _ struct{}) (models.FlashcardStats, error) {
	return h.svc.GetFlashcardStats(ctx)
}

// Canvas.

func (h *Handler) GetCanvasData(ctx context.Context, _ struct{}) (models.CanvasData, error) {
	return h.svc.GetCanvasData(ctx)
}

func (h *Handler) SaveCanvasItem(ctx context.Context, req SaveCanvasItemRequest) (models.CanvasItem, error) {
	return h.svc.SaveCanvasItem(ctx, models.CanvasItem{
		ID:     req.ID,
		NoteID: req.NoteID,
		X:      req.X,
		Y:      req.Y,
		Width:  req.Width,
		Height: req.Height,
	})
}

func (h *Handler) DeleteCanvasItem(ctx context.Context, req IDRequest) (Empty, error) {
	return nil, h.svc.DeleteCanvasItem(ctx, req.ID)
}

func (h *Handler) SaveCanvasConnection(ctx context.Context, req SaveCanvasConnectionRequest) (models.CanvasConnection, error) {
	return h.svc.SaveCanvasConnection(ctx, models.CanvasConnection{
		ID:         req.ID,
		FromItemID: req.FromItemID,
		ToItemID:   req.ToItemID,
	})
}

func (h *Handler) DeleteCanvasConnection(ctx context.Context, req IDRequest) (Empty, error) {
	return nil, h.svc.DeleteCanvasConnection(ctx, req.ID)
}

// Snippets.

// CreateSnippet returns the new snippet's id.
func (h *Handler) CreateSnippet(ctx context.Context, req CreateSnippetRequest) (string, error) {
	sn, err := h.svc.CreateSnippet(ctx, req.Title, req.Content, req.Language, req.Tags)
	if err != nil {
		return "", err
	}
	return sn.ID, nil
}

func (h *Handler) GetSnippets(ctx context.Context, _ struct{}) ([]models.Snippet, error) {
	return h.svc.GetSnippets(ctx)
}

func (h *Handler) SearchSnippets(ctx context.Context, req QueryRequest) ([]models.Snippet, error) {
	return h.svc.SearchSnippets(ctx, req.Query)
}

func (h *Handler) DeleteSnippet(ctx context.Context, req IDRequest) (Empty, error) {
	return nil, h.svc.DeleteSnippet(ctx, req.ID)
}

func (h *Handler) HighlightSnippet(ctx context.Context, req IDRequest) (string, error) {
	return h.svc.HighlightSnippet(ctx, req.ID)
}

// Writing stats.

func (h *Handler) RecordWritingStat(ctx context.Context, req RecordWritingStatRequest) (models.WritingStat, error) {
	return h.svc.RecordWritingStat(ctx, req.WordsWritten, req.NotesEdited, req.TimeSpentSeconds)
}

func (h *Handler) GetWritingStats(ctx context.Context, req DaysRequest) ([]models.WritingStat, error) {
	return h.svc.GetWritingStats(ctx, req.Days)
}
