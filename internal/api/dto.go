package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Argument bags. Keys are camelCase as the UI sends them.

type NoteIDRequest struct {
	NoteID string `json:"noteId"`
}

func (r NoteIDRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.NoteID, validation.Required))
}

type IDRequest struct {
	ID string `json:"id"`
}

func (r IDRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.ID, validation.Required))
}

type CreateNoteRequest struct {
	ParentID *string `json:"parentId"`
}

type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

func (r CreateFolderRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.Name, validation.Required))
}

type TemplateRequest struct {
	Title   string `json:"title"`
	Emoji   string `json:"emoji"`
	Content string `json:"content"`
}

// SaveContentRequest is one autosave. Seq is optional; when set, saves with a
// lower or equal seq than the last applied one are dropped.
type SaveContentRequest struct {
	NoteID    string `json:"noteId"`
	Content   string `json:"content"`
	Title     string `json:"title"`
	PlainText string `json:"plainText"`
	Seq       int64  `json:"seq"`
}

func (r SaveContentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NoteID, validation.Required),
		validation.Field(&r.Seq, validation.Min(int64(0))),
	)
}

type LimitRequest struct {
	Limit int `json:"limit"`
}

func (r LimitRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.Limit, validation.Min(0)))
}

type MoveNoteRequest struct {
	NoteID      string  `json:"noteId"`
	NewParentID *string `json:"newParentId"`
}

func (r MoveNoteRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.NoteID, validation.Required))
}

type RenameNoteRequest struct {
	NoteID   string `json:"noteId"`
	NewTitle string `json:"newTitle"`
}

func (r RenameNoteRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.NoteID, validation.Required))
}

type SetEmojiRequest struct {
	NoteID string `json:"noteId"`
	Emoji  string `json:"emoji"`
}

func (r SetEmojiRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NoteID, validation.Required),
		validation.Field(&r.Emoji, validation.Required),
	)
}

// ToggleRequest flips a flag, or sets it when Value is present.
type ToggleRequest struct {
	NoteID string `json:"noteId"`
	Value  *bool  `json:"value"`
}

func (r ToggleRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.NoteID, validation.Required))
}

type QueryRequest struct {
	Query string `json:"query"`
}

type SyncInlineTagsRequest struct {
	NoteID   string   `json:"noteId"`
	TagNames []string `json:"tagNames"`
}

func (r SyncInlineTagsRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.NoteID, validation.Required))
}

type AddManualTagRequest struct {
	NoteID  string `json:"noteId"`
	TagName string `json:"tagName"`
}

func (r AddManualTagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NoteID, validation.Required),
		validation.Field(&r.TagName, validation.Required),
	)
}

type RemoveTagRequest struct {
	NoteID string `json:"noteId"`
	TagID  string `json:"tagId"`
}

func (r RemoveTagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NoteID, validation.Required),
		validation.Field(&r.TagID, validation.Required),
	)
}

type SetTagColorRequest struct {
	TagID string `json:"tagId"`
	Color string `json:"color"`
}

func (r SetTagColorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TagID, validation.Required),
		validation.Field(&r.Color, validation.Required, is.HexColor),
	)
}

type MoveNoteToTagRequest struct {
	NoteID  string `json:"noteId"`
	FromTag string `json:"fromTag"`
	ToTag   string `json:"toTag"`
}

func (r MoveNoteToTagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NoteID, validation.Required),
		validation.Field(&r.ToTag, validation.Required),
	)
}

type SyncWikilinksRequest struct {
	NoteID       string   `json:"noteId"`
	TargetTitles []string `json:"targetTitles"`
}

func (r SyncWikilinksRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.NoteID, validation.Required))
}

type TitleRequest struct {
	Title string `json:"title"`
}

type DailyNoteRequest struct {
	Date string `json:"date"`
}

func (r DailyNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Date, validation.Required, validation.Date("2006-01-02")),
	)
}

type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type SyncFlashcardsRequest struct {
	NoteID string `json:"noteId"`
	Cards  []Card `json:"cards"`
}

func (r SyncFlashcardsRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.NoteID, validation.Required))
}

type ReviewFlashcardRequest struct {
	CardID string `json:"cardId"`
	Rating int    `json:"rating"`
}

func (r ReviewFlashcardRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.CardID, validation.Required))
}

type SaveCanvasItemRequest struct {
	ID     string  `json:"id"`
	NoteID *string `json:"noteId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type SaveCanvasConnectionRequest struct {
	ID         string `json:"id"`
	FromItemID string `json:"fromItemId"`
	ToItemID   string `json:"toItemId"`
}

func (r SaveCanvasConnectionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FromItemID, validation.Required),
		validation.Field(&r.ToItemID, validation.Required),
	)
}

type CreateSnippetRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Language string `json:"language"`
	Tags     string `json:"tags"`
}

type RecordWritingStatRequest struct {
	WordsWritten     int `json:"wordsWritten"`
	NotesEdited      int `json:"notesEdited"`
	TimeSpentSeconds int `json:"timeSpentSeconds"`
}

type DaysRequest struct {
	Days int `json:"days"`
}

type DateRangeRequest struct {
	StartTs int64 `json:"startTs"`
	EndTs   int64 `json:"endTs"`
}

func (r DateRangeRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.EndTs, validation.Min(r.StartTs)))
}
