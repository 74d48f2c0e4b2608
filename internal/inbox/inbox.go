// Package inbox imports Markdown files dropped into a directory as notes.
// Each file maps to one note; editing the file updates that note and an
// unchanged file is never imported twice. Removing a file leaves its note.
package inbox

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/notegraph/internal/checksum"
	"github.com/starford/notegraph/internal/parser"
	"github.com/starford/notegraph/internal/storage"
	"github.com/starford/notegraph/internal/store"
)

// Event kinds passed to an EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
)

// EventCallback is called after an inbox file changed a note.
type EventCallback func(kind, noteID string)

// Importer keeps notes in step with an inbox directory.
type Importer struct {
	db     *store.DB
	files  storage.Provider
	logger *slog.Logger
	notify EventCallback
}

// New returns an Importer reading files through files. notify may be nil.
func New(db *store.DB, files storage.Provider, logger *slog.Logger, notify EventCallback) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{db: db, files: files, logger: logger, notify: notify}
}

// Sync walks the inbox and imports new and changed files. A file whose
// content matches an import record whose file has vanished is treated as a
// rename and keeps its note.
func (im *Importer) Sync(ctx context.Context) error {
	files, err := im.files.List("")
	if err != nil {
		return err
	}
	known, err := im.db.ImportedChecksums(ctx)
	if err != nil {
		return err
	}

	onDisk := make(map[string]struct{}, len(files))
	for _, f := range files {
		onDisk[f.Path] = struct{}{}
	}
	vanished := make(map[string]string)
	for p, sum := range known {
		if _, ok := onDisk[p]; !ok {
			vanished[sum] = p
		}
	}

	for _, f := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if known[f.Path] == f.Checksum {
			continue
		}
		if _, tracked := known[f.Path]; !tracked {
			if old, ok := vanished[f.Checksum]; ok {
				if err := im.db.RenameImport(ctx, old, f.Path); err != nil {
					im.logger.Warn("inbox: rename failed", slog.String("from", old), slog.String("to", f.Path), slog.String("error", err.Error()))
				} else {
					im.logger.Debug("inbox: renamed", slog.String("from", old), slog.String("to", f.Path))
				}
				delete(vanished, f.Checksum)
				continue
			}
		}
		if err := im.ImportFile(ctx, f.Path); err != nil {
			im.logger.Warn("inbox: import failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		}
	}
	return nil
}

// ImportFile imports one file given by its path relative to the inbox root.
func (im *Importer) ImportFile(ctx context.Context, rel string) error {
	data, err := im.files.Read(rel)
	if err != nil {
		return err
	}
	res, err := parser.ParseMarkdown(data)
	if err != nil {
		return err
	}
	title := res.Title
	if title == "" {
		title = strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	}
	out, err := im.db.ImportMarkdown(ctx, store.ImportInput{
		Path:     rel,
		Checksum: checksum.Sum(data),
		Title:    title,
		Emoji:    res.Emoji,
		Body:     stripTitleHeading(res.Body, title),
		Tags:     res.Tags,
	})
	if err != nil {
		return err
	}
	if out.Skipped {
		return nil
	}
	kind := EventUpdated
	if out.Created {
		kind = EventCreated
	}
	im.logger.Debug("inbox: imported", slog.String("path", rel), slog.String("note_id", out.NoteID), slog.String("op", kind))
	if im.notify != nil {
		im.notify(kind, out.NoteID)
	}
	return nil
}

// stripTitleHeading drops a leading "# title" line, which becomes the note's
// heading block instead.
func stripTitleHeading(body, title string) string {
	trimmed := strings.TrimLeft(body, "\r\n")
	first, rest, _ := strings.Cut(trimmed, "\n")
	if h, ok := strings.CutPrefix(strings.TrimSpace(first), "# "); ok && strings.TrimSpace(h) == title {
		return strings.TrimLeft(rest, "\r\n")
	}
	return body
}
