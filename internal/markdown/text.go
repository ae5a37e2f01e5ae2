package markdown

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gomarkdown/markdown/ast"
)

// breakWindow is the share of maxChars within which Summary looks back for a space.
const breakWindow = 0.8

// Summary shortens Text to at most maxChars runes, cutting at a word break
// when one is close to the limit.
func (d Document) Summary(maxChars int) string {
	if maxChars < 1 || d.Text == "" {
		return ""
	}
	if utf8.RuneCountInString(d.Text) <= maxChars {
		return d.Text
	}

	runes := []rune(d.Text)
	cut := maxChars
	for idx := maxChars - 1; idx >= int(float64(maxChars)*breakWindow); idx-- {
		if unicode.IsSpace(runes[idx]) {
			cut = idx
			break
		}
	}

	return strings.TrimSpace(string(runes[:cut])) + "..."
}

// plainText keeps prose and inline code. Code blocks, images, tables and raw
// HTML are left out.
func plainText(doc ast.Node) string {
	var out strings.Builder
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		switch typed := node.(type) {
		case *ast.CodeBlock, *ast.Image, *ast.Table, *ast.HTMLBlock, *ast.HTMLSpan:
			return ast.SkipChildren
		case *ast.Text:
			out.Write(typed.Literal)
		case *ast.Code:
			out.Write(typed.Literal)
		case *ast.Softbreak, *ast.Hardbreak:
			out.WriteByte(' ')
		case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.BlockQuote:
			if !entering {
				out.WriteByte(' ')
			}
		}
		return ast.GoToNext
	})

	return strings.Join(strings.Fields(out.String()), " ")
}
