package markdown

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"html/template"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gomarkdown/markdown/ast"
)

func lookupStyle(name string) (*chroma.Style, error) {
	style, ok := styles.Registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown highlight style %q", name)
	}
	return style, nil
}

// buildCSS scopes the dark style to prefers-color-scheme: dark when one is set.
func (r *Renderer) buildCSS(light *chroma.Style, dark *chroma.Style) (template.CSS, error) {
	var out bytes.Buffer
	if err := r.formatter.WriteCSS(&out, light); err != nil {
		return "", fmt.Errorf("write %s css: %w", light.Name, err)
	}
	if dark != nil {
		out.WriteString("@media (prefers-color-scheme: dark) {\n")
		if err := r.formatter.WriteCSS(&out, dark); err != nil {
			return "", fmt.Errorf("write %s css: %w", dark.Name, err)
		}
		out.WriteString("}\n")
	}
	return template.CSS(out.String()), nil
}

func (r *Renderer) renderNodeHook(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	if !entering {
		return ast.GoToNext, false
	}

	switch typed := node.(type) {
	case *ast.CodeBlock:
		r.renderCodeBlock(w, typed)
		return ast.SkipChildren, true
	case *ast.Code:
		fmt.Fprintf(w, `<code class="%sinline-code">%s</code>`, r.prefix, stdhtml.EscapeString(string(typed.Literal)))
		return ast.SkipChildren, true
	default:
		return ast.GoToNext, false
	}
}

func (r *Renderer) renderCodeBlock(w io.Writer, block *ast.CodeBlock) {
	code := string(block.Literal)
	iterator, err := pickLexer(codeLanguage(block.Info), code).Tokenise(nil, code)
	if err == nil {
		var out bytes.Buffer
		if err = r.formatter.Format(&out, r.style, iterator); err == nil {
			_, _ = out.WriteTo(w)
			return
		}
	}

	fmt.Fprintf(w, `<pre class="%schroma"><code>%s</code></pre>`, r.prefix, stdhtml.EscapeString(code))
}

func pickLexer(language string, code string) chroma.Lexer {
	if language != "" {
		if lexer := lexers.Get(language); lexer != nil {
			return lexer
		}
	}
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer
	}
	return lexers.Fallback
}

func codeLanguage(info []byte) string {
	fields := strings.Fields(string(info))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
