package parser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// plateNode is the subset of the editor's document node the engine reads.
// Everything else in the content blob is opaque.
type plateNode struct {
	Type     string      `json:"type,omitempty"`
	Text     *string     `json:"text,omitempty"`
	Bold     bool        `json:"bold,omitempty"`
	Italic   bool        `json:"italic,omitempty"`
	Code     bool        `json:"code,omitempty"`
	URL      string      `json:"url,omitempty"`
	Children []plateNode `json:"children,omitempty"`
}

func decodePlate(content string) ([]plateNode, bool) {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "[") {
		return nil, false
	}
	var nodes []plateNode
	if err := json.Unmarshal([]byte(s), &nodes); err != nil {
		return nil, false
	}
	return nodes, true
}

// PlateTitle returns the text of the first top-level h1 node of an editor
// document, or "" when the content has none or is not an editor document.
func PlateTitle(content string) string {
	nodes, ok := decodePlate(content)
	if !ok {
		return ""
	}
	for _, n := range nodes {
		if n.Type != "h1" {
			continue
		}
		var b strings.Builder
		for _, c := range n.Children {
			if c.Text != nil {
				b.WriteString(*c.Text)
			}
		}
		return strings.TrimSpace(b.String())
	}
	return ""
}

// PlateText flattens an editor document to plain text, one line per block.
// ok is false when content is not an editor document.
func PlateText(content string) (string, bool) {
	nodes, ok := decodePlate(content)
	if !ok {
		return "", false
	}
	var b strings.Builder
	var walk func(n plateNode)
	walk = func(n plateNode) {
		if n.Text != nil {
			b.WriteString(*n.Text)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
		if n.Type != "" && n.Type != "a" && n.Type != "mention" {
			b.WriteByte('\n')
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.TrimSpace(b.String()), true
}

// PlateDocument builds an editor document with an h1 title followed by one
// paragraph per body line.
func PlateDocument(title, body string) string {
	text := func(s string) []plateNode { return []plateNode{{Text: &s}} }
	nodes := []plateNode{{Type: "h1", Children: text(title)}}
	if body != "" {
		for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
			nodes = append(nodes, plateNode{Type: "p", Children: text(line)})
		}
	} else {
		nodes = append(nodes, plateNode{Type: "p", Children: text("")})
	}
	out, _ := json.Marshal(nodes)
	return string(out)
}

var blockPrefix = map[string]string{
	"h1":          "# ",
	"h2":          "## ",
	"h3":          "### ",
	"h4":          "#### ",
	"h5":          "##### ",
	"h6":          "###### ",
	"blockquote":  "> ",
	"li":          "- ",
	"action_item": "- [ ] ",
}

// PlateMarkdown renders an editor document as Markdown: headings, quotes,
// list items, code blocks, links and bold/italic/code marks. Unknown block
// types become paragraphs. ok is false when content is not an editor
// document.
func PlateMarkdown(content string) (string, bool) {
	nodes, ok := decodePlate(content)
	if !ok {
		return "", false
	}
	var blocks []string
	for _, n := range nodes {
		blocks = append(blocks, markdownBlock(n))
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n")) + "\n", true
}

func markdownBlock(n plateNode) string {
	switch n.Type {
	case "code_block":
		var lines []string
		for _, c := range n.Children {
			lines = append(lines, plainInline(c))
		}
		return "```\n" + strings.Join(lines, "\n") + "\n```"
	case "ul", "ol":
		var items []string
		for i, c := range n.Children {
			item := strings.TrimPrefix(markdownBlock(c), "- ")
			if n.Type == "ol" {
				items = append(items, fmt.Sprintf("%d. %s", i+1, item))
			} else {
				items = append(items, "- "+item)
			}
		}
		return strings.Join(items, "\n")
	case "hr":
		return "---"
	}
	return blockPrefix[n.Type] + markdownInline(n.Children)
}

func markdownInline(nodes []plateNode) string {
	var b strings.Builder
	for _, n := range nodes {
		switch {
		case n.Text != nil:
			t := *n.Text
			if t == "" {
				continue
			}
			if n.Code {
				t = "`" + t + "`"
			}
			if n.Italic {
				t = "_" + t + "_"
			}
			if n.Bold {
				t = "**" + t + "**"
			}
			b.WriteString(t)
		case n.Type == "a" && n.URL != "":
			b.WriteString("[" + markdownInline(n.Children) + "](" + n.URL + ")")
		default:
			b.WriteString(markdownInline(n.Children))
		}
	}
	return b.String()
}

func plainInline(n plateNode) string {
	if n.Text != nil {
		return *n.Text
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(plainInline(c))
	}
	return b.String()
}
