package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/noteservice"
	"github.com/starford/notegraph/internal/testutil"
)

// testEnv sets up a temp database, service and router.
// An empty authToken means auth is disabled.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler) {
	t.Helper()
	svc, _ := testutil.TestService(t)
	return svc, NewRouter(svc, authToken != "", authToken, nil)
}

// call posts args to /cmd/<name> and returns the recorder.
func call(t *testing.T, router http.Handler, name string, args any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if args != nil {
		var err error
		if body, err = json.Marshal(args); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/cmd/"+name, bytes.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// mustCall is call that fails the test on a non-200 status and decodes the
// result into out when out is non-nil.
func mustCall(t *testing.T, router http.Handler, name string, args any, out any) {
	t.Helper()
	w := call(t, router, name, args)
	if w.Code != http.StatusOK {
		t.Fatalf("%s status = %d, body = %s", name, w.Code, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("%s decode: %v (%s)", name, err, w.Body.String())
		}
	}
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) errResponse {
	t.Helper()
	var e errResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error body: %v (%s)", err, w.Body.String())
	}
	return e
}

func TestCreateSaveAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	var id string
	mustCall(t, router, "create_note", map[string]any{"parentId": nil}, &id)
	if id == "" {
		t.Fatal("empty id")
	}

	var res models.SaveResult
	mustCall(t, router, "save_note_content", map[string]any{
		"noteId": id, "content": "Hello #greeting", "title": "Hello", "plainText": "Hello #greeting",
	}, &res)
	if !res.Applied || res.Title != "Hello" {
		t.Errorf("save = %+v", res)
	}

	var note models.Note
	mustCall(t, router, "get_note", map[string]string{"noteId": id}, &note)
	if note.Title != "Hello" || note.WordCount != 2 {
		t.Errorf("note = %+v", note)
	}

	var tags []models.NoteTagInfo
	mustCall(t, router, "get_tags_for_note", map[string]string{"noteId": id}, &tags)
	if len(tags) != 1 || tags[0].TagName != "greeting" || tags[0].Source != models.TagSourceInline {
		t.Errorf("tags = %+v", tags)
	}
}

func TestTreeCommands(t *testing.T) {
	_, router := testEnv(t, "")

	var folder, child string
	mustCall(t, router, "create_folder", map[string]any{"name": "Work"}, &folder)
	mustCall(t, router, "create_note", map[string]any{"parentId": folder}, &child)

	var tree []models.NoteTreeItem
	mustCall(t, router, "get_notes_tree", nil, &tree)
	if len(tree) != 2 {
		t.Fatalf("tree = %+v", tree)
	}

	// Moving a folder under its own child is rejected.
	w := call(t, router, "move_note", map[string]any{"noteId": folder, "newParentId": child})
	if w.Code != http.StatusBadRequest {
		t.Errorf("cycle move = %d, want 400", w.Code)
	}

	var on bool
	mustCall(t, router, "toggle_favorite", map[string]string{"noteId": child}, &on)
	if !on {
		t.Error("toggle_favorite did not set the flag")
	}
	mustCall(t, router, "toggle_favorite", map[string]any{"noteId": child, "value": true}, &on)
	if !on {
		t.Error("explicit value not honored")
	}

	mustCall(t, router, "delete_note", map[string]string{"noteId": folder}, nil)
	var trashed []models.TrashedNote
	mustCall(t, router, "get_trashed_notes", nil, &trashed)
	if len(trashed) != 2 {
		t.Errorf("trashed = %+v", trashed)
	}
	mustCall(t, router, "restore_note", map[string]string{"noteId": folder}, nil)
	mustCall(t, router, "get_notes_tree", nil, &tree)
	if len(tree) != 2 {
		t.Errorf("tree after restore = %+v", tree)
	}
}

func TestDailyNoteIdempotent(t *testing.T) {
	_, router := testEnv(t, "")

	var a, b string
	mustCall(t, router, "get_or_create_daily_note", map[string]string{"date": "2024-01-01"}, &a)
	mustCall(t, router, "get_or_create_daily_note", map[string]string{"date": "2024-01-01"}, &b)
	if a == "" || a != b {
		t.Errorf("ids = %q, %q", a, b)
	}

	w := call(t, router, "get_or_create_daily_note", map[string]string{"date": "01/02/2024"})
	if w.Code != http.StatusBadRequest || decodeErr(t, w).Code != CodeBadRequest {
		t.Errorf("bad date = %d %s", w.Code, w.Body.String())
	}
}

func TestSearchAndBacklinks(t *testing.T) {
	_, router := testEnv(t, "")

	var target, source string
	mustCall(t, router, "create_note", nil, &target)
	mustCall(t, router, "save_note_content", map[string]any{"noteId": target, "title": "Project X", "content": "x", "plainText": "launch plan"}, nil)
	mustCall(t, router, "create_note", nil, &source)
	mustCall(t, router, "save_note_content", map[string]any{"noteId": source, "title": "Notes", "content": "x", "plainText": "See [[Project X]]"}, nil)

	var backlinks []models.NoteRef
	mustCall(t, router, "get_backlinks", map[string]string{"noteId": target}, &backlinks)
	if len(backlinks) != 1 || backlinks[0].ID != source {
		t.Errorf("backlinks = %+v", backlinks)
	}

	var hits []models.SearchResult
	mustCall(t, router, "search_notes", map[string]string{"query": "launch"}, &hits)
	if len(hits) != 1 || hits[0].NoteID != target {
		t.Errorf("hits = %+v", hits)
	}

	var found *string
	mustCall(t, router, "find_note_by_title", map[string]string{"title": "project x"}, &found)
	if found == nil || *found != target {
		t.Errorf("find_note_by_title = %v", found)
	}
	mustCall(t, router, "find_note_by_title", map[string]string{"title": "nothing"}, &found)
	if found != nil {
		t.Errorf("unknown title = %v", *found)
	}

	var md string
	mustCall(t, router, "export_note_markdown", map[string]string{"noteId": source}, &md)
	if !strings.Contains(md, "[Project X]("+target+".md)") {
		t.Errorf("markdown = %s", md)
	}
}

func TestSnippetCommands(t *testing.T) {
	_, router := testEnv(t, "")

	var id string
	mustCall(t, router, "create_snippet", map[string]string{"title": "Loop", "content": "for {}", "language": "go", "tags": ""}, &id)
	var html string
	mustCall(t, router, "highlight_snippet", map[string]string{"id": id}, &html)
	if !strings.Contains(html, "<pre") {
		t.Errorf("html = %s", html)
	}
	mustCall(t, router, "delete_snippet", map[string]string{"id": id}, nil)
	w := call(t, router, "delete_snippet", map[string]string{"id": id})
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d", w.Code)
	}
}

func TestWritingStatsAccumulate(t *testing.T) {
	_, router := testEnv(t, "")

	mustCall(t, router, "record_writing_stat", map[string]int{"wordsWritten": 100, "notesEdited": 1}, nil)
	mustCall(t, router, "record_writing_stat", map[string]int{"wordsWritten": 20, "notesEdited": 1}, nil)

	var stats []models.WritingStat
	mustCall(t, router, "get_writing_stats", map[string]int{"days": 7}, &stats)
	if len(stats) != 1 || stats[0].WordsWritten != 120 || stats[0].NotesEdited != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSetTagColorValidation(t *testing.T) {
	_, router := testEnv(t, "")

	w := call(t, router, "set_tag_color", map[string]string{"tagId": "t", "color": "blue"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid color = %d", w.Code)
	}
	w = call(t, router, "set_tag_color", map[string]string{"tagId": "missing", "color": "#ff0000"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing tag = %d", w.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	_, router := testEnv(t, "")

	w := call(t, router, "get_note", map[string]string{"noteId": "nope"})
	if w.Code != http.StatusNotFound || decodeErr(t, w).Code != "NOT_FOUND" {
		t.Errorf("missing note = %d %s", w.Code, w.Body.String())
	}

	w = call(t, router, "get_note", nil)
	if w.Code != http.StatusBadRequest || decodeErr(t, w).Code != CodeBadRequest {
		t.Errorf("missing noteId = %d %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/cmd/get_note", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d", rec.Code)
	}

	w = call(t, router, "review_flashcard", map[string]any{"cardId": "nope", "rating": 3})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing card = %d", w.Code)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, router := testEnv(t, "")
	w := call(t, router, "drop_database", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown command = %d", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := call(t, router, "get_notes_tree", nil, "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := call(t, router, "get_notes_tree", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := call(t, router, "get_notes_tree", nil, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

// testEnvWithSSE creates a router with a stub SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	svc, _ := testutil.TestService(t)

	// Writes headers and blocks until the request context is done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	return NewRouter(svc, authEnabled, token, sseHandler)
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
