// Package export renders notes to portable formats: Markdown with YAML
// frontmatter, HTML, and syntax-highlighted snippets.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/parser"
)

// Document is a note together with what its export needs from the graph.
type Document struct {
	Note *models.Note
	Tags []string
	// Links maps lowercased wikilink targets to the note id they resolve to.
	Links map[string]string
}

type frontmatter struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Emoji   string   `yaml:"emoji,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
	Created string   `yaml:"created"`
	Updated string   `yaml:"updated"`
}

// FileName is the name a note gets in an export bundle. Exported links point
// at it.
func FileName(noteID string) string {
	return noteID + ".md"
}

// Markdown renders the note as a Markdown file with YAML frontmatter.
// Resolved wikilinks become relative links to the target's FileName;
// unresolved ones are left as written.
func Markdown(doc Document) (string, error) {
	n := doc.Note
	fm := frontmatter{
		ID:      n.ID,
		Title:   n.Title,
		Tags:    doc.Tags,
		Created: time.Unix(n.CreatedAt, 0).UTC().Format(time.RFC3339),
		Updated: time.Unix(n.UpdatedAt, 0).UTC().Format(time.RFC3339),
	}
	if n.Emoji != nil {
		fm.Emoji = *n.Emoji
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("export: frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\n")
	b.WriteString(resolveLinks(Body(n), doc.Links))
	return b.String(), nil
}

// Body returns the Markdown body of a note without frontmatter. Editor
// documents are converted block by block; anything else is treated as text
// under a title heading.
func Body(n *models.Note) string {
	if n.Content != nil {
		if md, ok := parser.PlateMarkdown(*n.Content); ok {
			if parser.PlateTitle(*n.Content) == "" {
				return "# " + n.Title + "\n\n" + md
			}
			return md
		}
	}
	var text string
	switch {
	case n.PlainText != nil && *n.PlainText != "":
		text = *n.PlainText
	case n.Content != nil:
		text = *n.Content
	}
	if first, _, _ := strings.Cut(text, "\n"); strings.TrimSpace(first) == n.Title {
		_, text, _ = strings.Cut(text, "\n")
	}
	return strings.TrimRight("# "+n.Title+"\n\n"+strings.TrimLeft(text, "\n"), "\n") + "\n"
}

func resolveLinks(md string, links map[string]string) string {
	return parser.ReplaceLinks(md, func(target, alias string) string {
		id, ok := links[strings.ToLower(target)]
		if !ok {
			if alias != "" {
				return "[[" + target + "|" + alias + "]]"
			}
			return "[[" + target + "]]"
		}
		label := alias
		if label == "" {
			label = target
		}
		return "[" + label + "](" + FileName(id) + ")"
	})
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML renders the note body as an HTML fragment. Raw HTML in the source is
// not passed through.
func HTML(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(resolveLinks(Body(doc.Note), doc.Links)), &buf); err != nil {
		return "", fmt.Errorf("export: render html: %w", err)
	}
	return buf.String(), nil
}
