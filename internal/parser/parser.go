// Package parser derives the indexable projections of a note: inline tags,
// wikilink targets, flashcard pairs and word counts from plain text, plus
// frontmatter and titles from Markdown files dropped into the inbox.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/notegraph/internal/models"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([a-zA-Z][\w-]{0,49})\b`)
)

// Derived is everything save_content re-derives from a note's plain text.
type Derived struct {
	Tags      []string
	Links     []string
	Cards     []models.QA
	WordCount int
}

// Derive extracts inline tags, wikilink targets, Q:/A: pairs and the word
// count from plain text.
func Derive(plainText string) Derived {
	return Derived{
		Tags:      ExtractTags(plainText),
		Links:     ExtractLinks(plainText),
		Cards:     ExtractCards(plainText),
		WordCount: len(strings.Fields(plainText)),
	}
}

// NormalizeTag case-folds a tag name and strips a leading '#'.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "#")))
}

// ExtractTags returns the unique, lowercased #tags of text in order of first
// appearance.
func ExtractTags(text string) []string {
	matches := tagRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		t := strings.ToLower(m[1])
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ExtractLinks returns deduplicated wikilink targets. [[Target|Alias]] yields
// Target; duplicates are detected case-insensitively and the first spelling
// wins.
func ExtractLinks(text string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		key := strings.ToLower(target)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, target)
	}
	return out
}

// ReplaceLinks rewrites every [[target]] or [[target|alias]] in text with the
// result of fn. alias is "" when the link has none.
func ReplaceLinks(text string, fn func(target, alias string) string) string {
	return wikilinkRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := m[2 : len(m)-2]
		target, alias, _ := strings.Cut(inner, "|")
		return fn(strings.TrimSpace(target), strings.TrimSpace(alias))
	})
}

// ExtractCards pairs every "Q:" line with the next non-blank line when that
// line starts with "A:". A question without an answer is ignored.
func ExtractCards(text string) []models.QA {
	lines := strings.Split(text, "\n")
	var out []models.QA
	for i := 0; i < len(lines); i++ {
		q, ok := cutPrefixFold(strings.TrimSpace(lines[i]), "Q:")
		if !ok || q == "" {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" {
				continue
			}
			if a, ok := cutPrefixFold(next, "A:"); ok && a != "" {
				out = append(out, models.QA{Question: q, Answer: a})
				i = j
			}
			break
		}
	}
	return out
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(s[len(prefix):]), true
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Tags        []string
	Title       string
	Emoji       string
}

// ParseMarkdown splits frontmatter from body and collects the title, emoji and
// frontmatter tags. Inline tags and links are left to Derive since they are
// re-derived on every save.
func ParseMarkdown(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Frontmatter: fm,
		Body:        body,
		Tags:        frontmatterTags(fm),
		Title:       deriveTitle(fm, body),
	}
	if e, ok := fm["emoji"].(string); ok {
		res.Emoji = e
	}
	return res, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML is treated as body text.
		return nil, string(data), nil
	}

	return fm, body, nil
}

func frontmatterTags(fm map[string]interface{}) []string {
	var raw []string
	switch v := fm["tags"].(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	}
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, s := range raw {
		s = NormalizeTag(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if t, ok := fm["title"].(string); ok && t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
