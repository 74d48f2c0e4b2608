// Package models defines the domain types returned by the notegraph engine.
// JSON field names are the wire contract consumed by the desktop UI.
package models

// Note is a node of the note tree: either a content-bearing leaf or a folder.
// Timestamps are unix seconds.
type Note struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Content    *string `json:"content"`
	PlainText  *string `json:"plainText"`
	Emoji      *string `json:"emoji"`
	ParentID   *string `json:"parentId"`
	IsFolder   bool    `json:"isFolder"`
	IsFavorite bool    `json:"isFavorite"`
	IsPinned   bool    `json:"isPinned"`
	IsTrashed  bool    `json:"isTrashed"`
	SortOrder  int     `json:"sortOrder"`
	CreatedAt  int64   `json:"createdAt"`
	UpdatedAt  int64   `json:"updatedAt"`
	TrashedAt  *int64  `json:"trashedAt"`
	WordCount  int     `json:"wordCount"`
}

// NoteTreeItem is one row of the flat tree; the UI rebuilds the hierarchy.
type NoteTreeItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	ParentID   *string `json:"parentId"`
	Emoji      *string `json:"emoji"`
	IsFolder   bool    `json:"isFolder"`
	Position   int     `json:"position"`
	IsFavorite bool    `json:"isFavorite"`
	IsPinned   bool    `json:"isPinned"`
}

// RecentNote is a note entry of the recent list. UpdatedAt is RFC 3339.
type RecentNote struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Emoji     *string `json:"emoji"`
	UpdatedAt *string `json:"updatedAt"`
}

// NoteRef is the id/title/emoji triple shared by favorites, backlinks and
// graph nodes.
type NoteRef struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Emoji *string `json:"emoji"`
}

type TrashedNote struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Emoji     *string `json:"emoji"`
	TrashedAt *int64  `json:"trashedAt"`
}

type NoteTitleItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SearchResult is a ranked full-text hit. Snippet marks matches with <mark>.
type SearchResult struct {
	ID      string `json:"id"`
	NoteID  string `json:"noteId"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GraphEdge is a resolved wikilink between two live notes.
type GraphEdge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	EdgeType string `json:"edgeType"`
}

type GraphData struct {
	Nodes []NoteRef   `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// SaveResult reports whether a save was applied or dropped as superseded.
type SaveResult struct {
	Applied bool   `json:"applied"`
	Title   string `json:"title"`
	Seq     int64  `json:"seq"`
}
