package export

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightStyle is the chroma style used for snippets.
const HighlightStyle = "github"

// Highlight renders code as standalone HTML with inline styles. The lexer is
// picked by language name, then by content analysis, then plain text.
func Highlight(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(HighlightStyle)
	if style == nil {
		style = styles.Fallback
	}
	formatter := html.New(html.TabWidth(4), html.WithLineNumbers(false))

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("export: tokenise: %w", err)
	}
	var b strings.Builder
	if err := formatter.Format(&b, style, it); err != nil {
		return "", fmt.Errorf("export: format: %w", err)
	}
	return b.String(), nil
}
