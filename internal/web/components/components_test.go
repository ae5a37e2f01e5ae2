package components

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"site/framework"
	"site/framework/router"
	"site/internal/content"
)

func newRenderer(t *testing.T, site Site) *Renderer {
	t.Helper()
	renderer, err := Parse(Embedded(), site)
	require.NoError(t, err)
	return renderer
}

func render(t *testing.T, renderer *Renderer, page framework.Page) string {
	t.Helper()
	var out strings.Builder
	require.NoError(t, renderer.Layout(page).Render(context.Background(), &out))
	return out.String()
}

func TestLayoutWrapsPage(t *testing.T) {
	renderer := newRenderer(t, Site{
		Name:         "Notes & Talks",
		StaticPrefix: "/assets/",
		CodeCSS:      ".hl-chroma { color: #111 }",
	})

	html := render(t, renderer, renderer.About(framework.RouteMatch{Path: "/about"}))
	assert.Contains(t, html, "<title>About | Notes &amp; Talks</title>")
	assert.Contains(t, html, `href="/assets/css/site.css"`)
	assert.Contains(t, html, `<a class="brand" href="/">Notes &amp; Talks</a>`)
	assert.Contains(t, html, `<a href="/conference">Conferences</a>`)
	assert.Contains(t, html, `<main><article class="prose">`)
	assert.Contains(t, html, "<h1>About</h1>")
	assert.Contains(t, html, "<style>.hl-chroma { color: #111 }</style>")
	assert.NotContains(t, html, "WebSocket")
}

func TestLayoutWritesNothingWhenBodyFails(t *testing.T) {
	renderer := newRenderer(t, Site{Name: "site"})
	failing := templ.ComponentFunc(func(context.Context, io.Writer) error {
		return errors.New("template exploded")
	})

	var out strings.Builder
	err := renderer.Layout(framework.Page{Title: "Broken", Body: failing}).Render(context.Background(), &out)
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestLayoutInjectsReloadScript(t *testing.T) {
	renderer := newRenderer(t, Site{Name: "dev", ReloadScript: `console.log("reload")`})

	html := render(t, renderer, renderer.Home(framework.RouteMatch{Path: "/"}))
	assert.Contains(t, html, `<script>console.log("reload")</script>`)
	assert.Contains(t, html, "welcome to dev")
	assert.NotContains(t, html, "<style>")
}

func TestPostsPagination(t *testing.T) {
	renderer := newRenderer(t, Site{Name: "site", Prefixes: map[string]string{content.CollectionPosts: "/blog/"}})

	page := renderer.Posts(framework.RouteMatch{
		Pattern: "/blog/after/:after",
		Params:  router.NewParams(map[string]string{"after": "b"}, ""),
	}, content.ListPage{
		Items: []content.Entry{
			{Collection: content.CollectionPosts, ID: "b", Title: "Bravo", Description: "Second post"},
		},
		HasPrevious: true,
		HasNext:     true,
		Next:        "c d",
	})
	assert.Equal(t, "Blog archive", page.Title)

	html := render(t, renderer, page)
	assert.Contains(t, html, `<a href="/blog/b">Bravo</a>`)
	assert.Contains(t, html, `rel="prev" href="/blog"`)
	assert.Contains(t, html, `rel="next" href="/blog/after/c%20d"`)
}

func TestPostRendersBody(t *testing.T) {
	renderer := newRenderer(t, Site{Name: "site"})

	page := renderer.Post(framework.RouteMatch{}, content.Entry{
		Title:    "Hello",
		Tags:     []string{"go"},
		BodyHTML: "<p>Body <strong>text</strong></p>",
	})
	html := render(t, renderer, page)
	assert.Equal(t, "Hello", page.Title)
	assert.Contains(t, html, "<p>Body <strong>text</strong></p>")
	assert.Contains(t, html, "#go")
}

func TestConferenceDetailsShowsLocation(t *testing.T) {
	renderer := newRenderer(t, Site{Name: "site"})

	html := render(t, renderer, renderer.ConferenceDetails(framework.RouteMatch{}, content.Entry{
		Title:  "ReasonConf",
		Fields: map[string]any{"location": "Vienna"},
	}))
	assert.Contains(t, html, "ReasonConf")
	assert.Contains(t, html, " in Vienna")
}

func TestErrorPage(t *testing.T) {
	renderer := newRenderer(t, Site{Name: "site"})

	page := renderer.ErrorPage(framework.RouteMatch{Path: "/abuot", CatchAll: true}, []string{"/about"})
	assert.Equal(t, http.StatusNotFound, page.Status)
	html := render(t, renderer, page)
	assert.Contains(t, html, "<code>/abuot</code>")
	assert.Contains(t, html, `<a href="/about">/about</a>`)

	removed := renderer.ErrorPage(framework.RouteMatch{
		Path:     "/blog/gone",
		CatchAll: true,
		NotFound: &framework.NotFoundContext{
			RequestPath: "/blog/gone",
			Source:      framework.NotFoundSourcePageLoad,
		},
	}, nil)
	assert.Contains(t, render(t, renderer, removed), "anymore")
}

func TestParseRequiresEveryTemplate(t *testing.T) {
	_, err := Parse(fstest.MapFS{
		"about.html": {Data: []byte(`{{define "about"}}<h1>About</h1>{{end}}`)},
	}, Site{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"home"`)

	_, err = Parse(fstest.MapFS{"broken.html": {Data: []byte(`{{define "home"}}`)}}, Site{})
	assert.Error(t, err)
}
