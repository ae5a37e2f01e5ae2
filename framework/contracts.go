package framework

import (
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"site/framework/router"
)

// Page is what a route handler hands to the runtime for rendering inside the site layout.
type Page struct {
	Title  string
	Status int
	Body   templ.Component
}

type RouteMatch struct {
	Pattern  string
	Path     string
	Params   router.Params
	CatchAll bool

	// NotFound is set when the catch-all renders on behalf of a failed page load.
	NotFound *NotFoundContext
}

type RuntimeContext[C interface{}] interface {
	AppContext() C
	RenderPage(w http.ResponseWriter, r *http.Request, page Page) error
	IsNotFound(err error) bool
	RespondNotFound(w http.ResponseWriter, r *http.Request, notFoundContext NotFoundContext)
	RespondServerError(w http.ResponseWriter, err error)
	ObserveQuery(name string, elapsed time.Duration, err error)
}

type NotFoundSource string

const (
	NotFoundSourcePageLoad       NotFoundSource = "page_load"
	NotFoundSourceUnmatchedRoute NotFoundSource = "unmatched_route"
)

type NotFoundContext struct {
	RequestPath         string
	MatchedRoutePattern string
	Source              NotFoundSource
}

type RouteHandler[C interface{}] interface {
	ServeRoute(runtime RuntimeContext[C], w http.ResponseWriter, r *http.Request, route RouteMatch)
}

// Component renders a page that needs nothing beyond the matched route.
type Component func(route RouteMatch) Page

type staticHandler[C interface{}] struct {
	component Component
}

func Static[C interface{}](component Component) RouteHandler[C] {
	return staticHandler[C]{component: component}
}

func (h staticHandler[C]) ServeRoute(
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	route RouteMatch,
) {
	renderPage(runtime, w, r, route, h.component(route))
}

func renderPage[C interface{}](
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	route RouteMatch,
	page Page,
) {
	if page.Status == 0 && route.CatchAll {
		page.Status = http.StatusNotFound
	}
	if err := runtime.RenderPage(w, r, page); err != nil {
		runtime.RespondServerError(w, fmt.Errorf("render route %q: %w", route.Pattern, err))
	}
}

func handleLoadError[C interface{}](
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	err error,
	routePattern string,
) {
	if runtime.IsNotFound(err) {
		runtime.RespondNotFound(w, r, NotFoundContext{
			RequestPath:         r.URL.Path,
			MatchedRoutePattern: routePattern,
			Source:              NotFoundSourcePageLoad,
		})
		return
	}

	runtime.RespondServerError(w, fmt.Errorf("load route %q: %w", routePattern, err))
}
