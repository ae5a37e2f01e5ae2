package markdown

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	md "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const defaultLightStyle = "github"

type Config struct {
	// LightStyle and DarkStyle name chroma styles. DarkStyle is optional.
	LightStyle string
	DarkStyle  string

	// ClassPrefix is put in front of every highlighting class, including "chroma".
	ClassPrefix string

	// RootURL makes absolute links to this host render as site-relative links.
	RootURL string
}

// LinkRewriter maps a link destination to a site route, e.g. "../posts/intro.md" to "/blog/intro".
type LinkRewriter func(href string) (string, bool)

// Renderer turns entry sources into HTML with one highlighting setup.
type Renderer struct {
	rootHost  string
	prefix    string
	formatter *chromahtml.Formatter
	style     *chroma.Style
	css       template.CSS
}

// Document is one rendered source.
type Document struct {
	HTML template.HTML

	// Text is the readable prose of the source on a single line.
	Text string
}

func New(cfg Config) (*Renderer, error) {
	lightName := strings.TrimSpace(cfg.LightStyle)
	if lightName == "" {
		lightName = defaultLightStyle
	}
	light, err := lookupStyle(lightName)
	if err != nil {
		return nil, err
	}

	var dark *chroma.Style
	if darkName := strings.TrimSpace(cfg.DarkStyle); darkName != "" {
		if dark, err = lookupStyle(darkName); err != nil {
			return nil, err
		}
	}

	rootHost, err := hostOf(cfg.RootURL)
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimSpace(cfg.ClassPrefix)
	r := &Renderer{
		rootHost:  rootHost,
		prefix:    prefix,
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.ClassPrefix(prefix)),
		style:     light,
	}
	css, err := r.buildCSS(light, dark)
	if err != nil {
		return nil, err
	}
	r.css = css

	return r, nil
}

var defaultRenderer = sync.OnceValue(func() *Renderer {
	r, err := New(Config{})
	if err != nil {
		panic(err)
	}
	return r
})

// Default highlights with the github style and links nothing as internal by host.
func Default() *Renderer {
	return defaultRenderer()
}

// CSS styles the highlighted code blocks this renderer produces.
func (r *Renderer) CSS() template.CSS {
	return r.css
}

func (r *Renderer) Render(source string, rewrite LinkRewriter) Document {
	if strings.TrimSpace(source) == "" {
		return Document{}
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(source))
	r.normalizeLinks(doc, rewrite)

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags:          mdhtml.CommonFlags | mdhtml.SkipHTML,
		RenderNodeHook: r.renderNodeHook,
	})

	return Document{
		HTML: template.HTML(md.Render(doc, renderer)),
		Text: plainText(doc),
	}
}

func (r *Renderer) normalizeLinks(doc ast.Node, rewrite LinkRewriter) {
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		link, ok := node.(*ast.Link)
		if !ok || !entering {
			return ast.GoToNext
		}

		href := string(link.Destination)
		internal := false
		if rewrite != nil && href != "" {
			if target, ok := rewrite(href); ok && strings.TrimSpace(target) != "" {
				href, internal = target, true
			}
		}
		if !internal {
			href, internal = r.siteRelative(href)
		}

		link.Destination = []byte(href)
		link.AdditionalAttributes = linkAttributes(link.AdditionalAttributes, internal)
		return ast.GoToNext
	})
}

// siteRelative strips scheme and host from links to the site's own host.
// Links without a host are internal already.
func (r *Renderer) siteRelative(href string) (string, bool) {
	parsed, err := url.Parse(href)
	if err != nil {
		return href, false
	}
	if parsed.Scheme == "" && parsed.Host == "" {
		return href, true
	}
	if r.rootHost == "" || !strings.EqualFold(parsed.Host, r.rootHost) {
		return href, false
	}

	relative := url.URL{
		Path:     parsed.Path,
		RawPath:  parsed.RawPath,
		RawQuery: parsed.RawQuery,
		Fragment: parsed.Fragment,
	}
	if relative.Path == "" {
		relative.Path = "/"
	}
	return relative.String(), true
}

func linkAttributes(existing []string, internal bool) []string {
	attrs := make([]string, 0, len(existing)+2)
	for _, attr := range existing {
		normalized := strings.ToLower(strings.TrimSpace(attr))
		if strings.HasPrefix(normalized, "target=") || strings.HasPrefix(normalized, "rel=") {
			continue
		}
		attrs = append(attrs, attr)
	}

	if !internal {
		attrs = append(attrs, `target="_blank"`, `rel="noopener noreferrer"`)
	}
	return attrs
}

func hostOf(rootURL string) (string, error) {
	rootURL = strings.TrimSpace(rootURL)
	if rootURL == "" {
		return "", nil
	}
	parsed, err := url.Parse(rootURL)
	if err != nil {
		return "", fmt.Errorf("root url %q: %w", rootURL, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("root url %q has no host", rootURL)
	}
	return strings.ToLower(parsed.Host), nil
}
