package store

import (
	"html"
	"strings"
	"unicode/utf8"
)

// SearchLimit caps the number of search results.
const SearchLimit = 20

const snippetRadius = 60

// queryTerms splits a user query into lowercased terms, dropping characters
// that carry meaning in FTS5 query syntax.
func queryTerms(query string) []string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '"', '*', '(', ')', ':', '^', '{', '}', '[', ']':
			return ' '
		}
		return r
	}, query)
	fields := strings.Fields(strings.ToLower(clean))
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// highlight builds a snippet of text around the first matching term with every
// term occurrence wrapped in <mark>. Text is HTML-escaped.
func highlight(text string, terms []string) string {
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		// Case folding changed byte lengths; match on the original text.
		lower = text
	}
	first := -1
	for _, t := range terms {
		if i := strings.Index(lower, t); i >= 0 && (first < 0 || i < first) {
			first = i
		}
	}
	start, end := 0, len(text)
	if first >= 0 {
		start = max(0, first-snippetRadius)
		end = min(len(text), first+snippetRadius*2)
	} else if end > snippetRadius*2 {
		end = snippetRadius * 2
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("…")
	}
	i := start
	for i < end {
		matched := ""
		for _, t := range terms {
			if strings.HasPrefix(lower[i:], t) && len(t) > len(matched) {
				matched = t
			}
		}
		if matched != "" && i+len(matched) <= end {
			b.WriteString("<mark>")
			b.WriteString(html.EscapeString(text[i : i+len(matched)]))
			b.WriteString("</mark>")
			i += len(matched)
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(html.EscapeString(text[i : i+size]))
		i += size
	}
	if end < len(text) {
		b.WriteString("…")
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// scoreText ranks a candidate: title hits weigh ten times body hits. It
// returns 0 when some term matches neither.
func scoreText(title, body string, terms []string) int {
	lt, lb := strings.ToLower(title), strings.ToLower(body)
	score := 0
	for _, t := range terms {
		ht, hb := strings.Count(lt, t), strings.Count(lb, t)
		if ht == 0 && hb == 0 {
			return 0
		}
		score += ht*10 + hb
	}
	return score
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards for use with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
