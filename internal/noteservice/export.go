package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/notegraph/internal/export"
	"github.com/starford/notegraph/internal/storage"
)

func (s *Service) exportDocument(ctx context.Context, noteID string) (export.Document, error) {
	n, err := s.db.GetNote(ctx, noteID)
	if err != nil {
		return export.Document{}, err
	}
	tags, err := s.db.GetTagsForNote(ctx, noteID)
	if err != nil {
		return export.Document{}, err
	}
	titles, err := s.db.OutgoingLinks(ctx, noteID)
	if err != nil {
		return export.Document{}, err
	}
	resolved, err := s.db.ResolveTitles(ctx, titles)
	if err != nil {
		return export.Document{}, err
	}

	doc := export.Document{Note: n, Links: make(map[string]string, len(resolved))}
	for _, t := range tags {
		doc.Tags = append(doc.Tags, t.TagName)
	}
	for title, id := range resolved {
		doc.Links[strings.ToLower(title)] = id
	}
	return doc, nil
}

// ExportNoteMarkdown renders the note as Markdown with YAML frontmatter.
func (s *Service) ExportNoteMarkdown(ctx context.Context, noteID string) (string, error) {
	doc, err := s.exportDocument(ctx, noteID)
	if err != nil {
		return "", err
	}
	return export.Markdown(doc)
}

func (s *Service) ExportNoteHTML(ctx context.Context, noteID string) (string, error) {
	doc, err := s.exportDocument(ctx, noteID)
	if err != nil {
		return "", err
	}
	return export.HTML(doc)
}

// ExportResult counts the outcome of ExportAll.
type ExportResult struct {
	Notes   int `json:"notes"`   // live notes exported
	Written int `json:"written"` // files created or rewritten
}

// ExportAll writes every live note to dst as <id>.md. Files whose content is
// already current are left alone. Folders are skipped.
func (s *Service) ExportAll(ctx context.Context, dst storage.Provider) (ExportResult, error) {
	var res ExportResult
	tree, err := s.db.GetTree(ctx)
	if err != nil {
		return res, err
	}
	for _, item := range tree {
		if item.IsFolder {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		md, err := s.ExportNoteMarkdown(ctx, item.ID)
		if err != nil {
			return res, fmt.Errorf("export %s: %w", item.ID, err)
		}
		changed, err := dst.WriteIfChanged(export.FileName(item.ID), []byte(md))
		if err != nil {
			return res, fmt.Errorf("export %s: %w", item.ID, err)
		}
		res.Notes++
		if changed {
			res.Written++
		}
	}
	s.logger.Info("export finished",
		slog.String("root", dst.Root()),
		slog.Int("notes", res.Notes),
		slog.Int("written", res.Written))
	return res, nil
}
