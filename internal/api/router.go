package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notegraph/internal/noteservice"
)

// NewRouter creates a chi router with every command mounted under /cmd.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/cmd", func(r chi.Router) {
		// Note tree.
		r.Post("/create_note", command("create_note", h.CreateNote))
		r.Post("/create_note_from_template", command("create_note_from_template", h.CreateNoteFromTemplate))
		r.Post("/create_folder", command("create_folder", h.CreateFolder))
		r.Post("/get_note", command("get_note", h.GetNote))
		r.Post("/save_note_content", command("save_note_content", h.SaveNoteContent))
		r.Post("/get_notes_tree", command("get_notes_tree", h.GetNotesTree))
		r.Post("/get_most_recent_note", command("get_most_recent_note", h.GetMostRecentNote))
		r.Post("/delete_note", command("delete_note", h.DeleteNote))
		r.Post("/get_recent_notes", command("get_recent_notes", h.GetRecentNotes))
		r.Post("/move_note", command("move_note", h.MoveNote))
		r.Post("/rename_note", command("rename_note", h.RenameNote))
		r.Post("/set_note_emoji", command("set_note_emoji", h.SetNoteEmoji))
		r.Post("/toggle_favorite", command("toggle_favorite", h.ToggleFavorite))
		r.Post("/toggle_pin", command("toggle_pin", h.TogglePin))
		r.Post("/get_favorite_notes", command("get_favorite_notes", h.GetFavoriteNotes))
		r.Post("/get_trashed_notes", command("get_trashed_notes", h.GetTrashedNotes))
		r.Post("/permanently_delete_note", command("permanently_delete_note", h.PermanentlyDeleteNote))
		r.Post("/restore_note", command("restore_note", h.RestoreNote))
		r.Post("/get_or_create_daily_note", command("get_or_create_daily_note", h.GetOrCreateDailyNote))
		r.Post("/get_notes_by_date_range", command("get_notes_by_date_range", h.GetNotesByDateRange))
		r.Post("/search_notes", command("search_notes", h.SearchNotes))

		// Tags.
		r.Post("/get_all_tags", command("get_all_tags", h.GetAllTags))
		r.Post("/get_note_tags", command("get_note_tags", h.GetNoteTags))
		r.Post("/get_tags_for_note", command("get_tags_for_note", h.GetNoteTags))
		r.Post("/sync_inline_tags", command("sync_inline_tags", h.SyncInlineTags))
		r.Post("/add_manual_tag", command("add_manual_tag", h.AddManualTag))
		r.Post("/remove_manual_tag", command("remove_manual_tag", h.RemoveManualTag))
		r.Post("/remove_tag", command("remove_tag", h.RemoveManualTag))
		r.Post("/set_tag_color", command("set_tag_color", h.SetTagColor))
		r.Post("/move_note_to_tag", command("move_note_to_tag", h.MoveNoteToTag))
		r.Post("/get_kanban_data", command("get_kanban_data", h.GetKanbanData))

		// Links and graph.
		r.Post("/sync_wikilinks", command("sync_wikilinks", h.SyncWikilinks))
		r.Post("/get_backlinks", command("get_backlinks", h.GetBacklinks))
		r.Post("/get_all_note_titles", command("get_all_note_titles", h.GetAllNoteTitles))
		r.Post("/find_note_by_title", command("find_note_by_title", h.FindNoteByTitle))
		r.Post("/get_graph_data", command("get_graph_data", h.GetGraphData))
		r.Post("/find_related_notes", command("find_related_notes", h.FindRelatedNotes))
		r.Post("/export_note_markdown", command("export_note_markdown", h.ExportNoteMarkdown))
		r.Post("/export_note_html", command("export_note_html", h.ExportNoteHTML))

		// Flashcards.
		r.Post("/sync_flashcards", command("sync_flashcards", h.SyncFlashcards))
		r.Post("/get_due_flashcards", command("get_due_flashcards", h.GetDueFlashcards))
		r.Post("/get_note_flashcards", command("get_note_flashcards", h.GetNoteFlashcards))
		r.Post("/review_flashcard", command("review_flashcard", h.ReviewFlashcard))
		r.Post("/get_flashcard_stats", command("get_flashcard_stats", h.GetFlashcardStats))

		// Canvas.
		r.Post("/get_canvas_data", command("get_canvas_data", h.GetCanvasData))
		r.Post("/save_canvas_item", command("save_canvas_item", h.SaveCanvasItem))
		r.Post("/delete_canvas_item", command("delete_canvas_item", h.DeleteCanvasItem))
		r.Post("/save_canvas_connection", command("save_canvas_connection", h.SaveCanvasConnection))
		r.Post("/delete_canvas_connection", command("delete_canvas_connection", h.DeleteCanvasConnection))

		// Snippets.
		r.Post("/create_snippet", command("create_snippet", h.CreateSnippet))
		r.Post("/get_snippets", command("get_snippets", h.GetSnippets))
		r.Post("/search_snippets", command("search_snippets", h.SearchSnippets))
		r.Post("/delete_snippet", command("delete_snippet", h.DeleteSnippet))
		r.Post("/highlight_snippet", command("highlight_snippet", h.HighlightSnippet))

		// Writing stats.
		r.Post("/record_writing_stat", command("record_writing_stat", h.RecordWritingStat))
		r.Post("/get_writing_stats", command("get_writing_stats", h.GetWritingStats))
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
