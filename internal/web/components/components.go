package components

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"site/framework"
	"site/internal/content"
)

//go:embed templates/*.html
var embedded embed.FS

var requiredTemplates = []string{
	"home",
	"about",
	"awesome",
	"conference",
	"conference_details",
	"posts",
	"post",
	"error",
}

// Embedded returns the templates compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

type Site struct {
	Name         string
	StaticPrefix string

	// Prefixes maps a content collection to the route prefix of its entries.
	Prefixes map[string]string

	// CodeCSS styles highlighted code blocks.
	CodeCSS template.CSS

	// ReloadScript is injected at the end of every page when set.
	ReloadScript string
}

type NavLink struct {
	Href  string
	Label string
}

var navLinks = []NavLink{
	{Href: "/blog", Label: "Blog"},
	{Href: "/conference", Label: "Conferences"},
	{Href: "/awesome", Label: "Awesome"},
	{Href: "/about", Label: "About"},
}

// Renderer turns pages into HTML using one parsed template set.
type Renderer struct {
	tmpl *template.Template
	site Site
}

func Parse(fsys fs.FS, site Site) (*Renderer, error) {
	r := &Renderer{site: site}

	tmpl, err := template.New("site").Funcs(template.FuncMap{
		"entryURL": r.EntryURL,
	}).ParseFS(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for _, name := range requiredTemplates {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("template %q is not defined", name)
		}
	}

	r.tmpl = tmpl
	return r, nil
}

func (r *Renderer) EntryURL(entry content.Entry) string {
	return r.site.Prefixes[entry.Collection] + url.PathEscape(entry.ID)
}

// Layout renders the document shell around page.Body. The body is rendered
// first so a failing page writes nothing.
func (r *Renderer) Layout(page framework.Page) templ.Component {
	title := r.site.Name
	if page.Title != "" {
		title = page.Title + " | " + r.site.Name
	}

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var body bytes.Buffer
		if page.Body != nil {
			if err := page.Body.Render(ctx, &body); err != nil {
				return err
			}
		}

		var doc bytes.Buffer
		doc.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		doc.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		fmt.Fprintf(&doc, `<title>%s</title>`, templ.EscapeString(title))
		fmt.Fprintf(&doc, `<link rel="stylesheet" href="%s">`, templ.EscapeString(r.site.StaticPrefix+"css/site.css"))
		if r.site.CodeCSS != "" {
			fmt.Fprintf(&doc, `<style>%s</style>`, r.site.CodeCSS)
		}
		doc.WriteString(`</head><body><header class="site-header">`)
		fmt.Fprintf(&doc, `<a class="brand" href="/">%s</a><nav>`, templ.EscapeString(r.site.Name))
		for _, link := range navLinks {
			fmt.Fprintf(&doc, `<a href="%s">%s</a>`, templ.EscapeString(link.Href), templ.EscapeString(link.Label))
		}
		doc.WriteString(`</nav></header><main>`)
		_, _ = body.WriteTo(&doc)
		fmt.Fprintf(&doc, `</main><footer class="site-footer"><p>%s</p></footer>`, templ.EscapeString(r.site.Name))
		if r.site.ReloadScript != "" {
			fmt.Fprintf(&doc, `<script>%s</script>`, r.site.ReloadScript)
		}
		doc.WriteString(`</body></html>`)

		_, err := doc.WriteTo(w)
		return err
	})
}

func (r *Renderer) page(name string, title string, data any) framework.Page {
	return framework.Page{
		Title: title,
		Body:  templ.FromGoHTML(r.tmpl.Lookup(name), data),
	}
}

func (r *Renderer) Home(framework.RouteMatch) framework.Page {
	return r.page("home", "", struct{ SiteName string }{SiteName: r.site.Name})
}

func (r *Renderer) About(framework.RouteMatch) framework.Page {
	return r.page("about", "About", nil)
}

func (r *Renderer) Awesome(framework.RouteMatch) framework.Page {
	return r.page("awesome", "Awesome", nil)
}

func (r *Renderer) Conference(framework.RouteMatch) framework.Page {
	return r.page("conference", "Conferences", nil)
}

type entryView struct {
	Entry content.Entry
}

func (r *Renderer) ConferenceDetails(_ framework.RouteMatch, conference content.Entry) framework.Page {
	return r.page("conference_details", conference.Title, entryView{Entry: conference})
}

func (r *Renderer) Post(_ framework.RouteMatch, post content.Entry) framework.Page {
	return r.page("post", post.Title, entryView{Entry: post})
}

type postsView struct {
	Posts       []content.Entry
	PreviousURL string
	NextURL     string
}

func (r *Renderer) Posts(route framework.RouteMatch, posts content.ListPage) framework.Page {
	view := postsView{Posts: posts.Items}
	if posts.HasNext {
		view.NextURL = PostsPageURL(posts.Next)
	}
	if posts.HasPrevious {
		view.PreviousURL = PostsPageURL(posts.Previous)
	}

	title := "Blog"
	if route.Params.Value("after") != "" {
		title = "Blog archive"
	}
	return r.page("posts", title, view)
}

// PostsPageURL is the listing page starting at the given post; "" is the first page.
func PostsPageURL(after string) string {
	if after == "" {
		return "/blog"
	}
	return "/blog/after/" + url.PathEscape(after)
}

type errorView struct {
	Path        string
	Removed     bool
	Suggestions []string
}

func (r *Renderer) ErrorPage(route framework.RouteMatch, suggestions []string) framework.Page {
	view := errorView{
		Path:        route.Path,
		Suggestions: suggestions,
	}
	if route.NotFound != nil {
		view.Path = route.NotFound.RequestPath
		view.Removed = route.NotFound.Source == framework.NotFoundSourcePageLoad
	}

	page := r.page("error", "Not found", view)
	page.Status = http.StatusNotFound
	return page
}
