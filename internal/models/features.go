package models

// Tag sources.
const (
	TagSourceInline = "inline"
	TagSourceManual = "manual"
)

// DefaultTagColor is assigned to implicitly created tags.
const DefaultTagColor = "#6366f1"

type TagInfo struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Color     *string `json:"color"`
	NoteCount int     `json:"noteCount"`
}

type NoteTagInfo struct {
	TagID    string  `json:"tagId"`
	TagName  string  `json:"tagName"`
	TagColor *string `json:"tagColor"`
	Source   string  `json:"source"`
}

// Flashcard is a Q/A pair with its SM-2 scheduling state. NextReview is unix
// seconds; Interval is in days.
type Flashcard struct {
	ID          string  `json:"id"`
	NoteID      string  `json:"note_id"`
	Question    string  `json:"question"`
	Answer      string  `json:"answer"`
	NextReview  int64   `json:"next_review"`
	Interval    float64 `json:"interval"`
	EaseFactor  float64 `json:"ease_factor"`
	Repetitions int     `json:"repetitions"`
	NoteTitle   string  `json:"note_title"`
}

type FlashcardStats struct {
	DueToday      int `json:"due_today"`
	TotalCards    int `json:"total_cards"`
	ReviewedToday int `json:"reviewed_today"`
	Streak        int `json:"streak"`
}

// QA is a question/answer pair extracted from note text.
type QA struct {
	Question string
	Answer   string
}

type CanvasItem struct {
	ID     string  `json:"id"`
	NoteID *string `json:"note_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type CanvasConnection struct {
	ID         string `json:"id"`
	FromItemID string `json:"from_item_id"`
	ToItemID   string `json:"to_item_id"`
}

type CanvasData struct {
	Items       []CanvasItem       `json:"items"`
	Connections []CanvasConnection `json:"connections"`
}

type Snippet struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Language  string `json:"language"`
	Tags      string `json:"tags"`
	CreatedAt int64  `json:"created_at"`
}

// WritingStat is the accumulated activity of one calendar day (YYYY-MM-DD).
type WritingStat struct {
	Date             string `json:"date"`
	WordsWritten     int    `json:"words_written"`
	NotesEdited      int    `json:"notes_edited"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

type RelatedNote struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Emoji *string `json:"emoji"`
	Score int     `json:"score"`
}

type KanbanCard struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Emoji *string  `json:"emoji"`
	Tags  []string `json:"tags"`
}

type NoteByDate struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Emoji     *string `json:"emoji"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
}
