package engine

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"site/framework"
	"site/framework/router"
)

type Config[C interface{}] struct {
	AppContext C
	Routes     *router.Table[framework.RouteHandler[C]]

	RenderPage func(w http.ResponseWriter, r *http.Request, page framework.Page) error

	IsNotFoundError   func(err error) bool
	HandleServerError func(w http.ResponseWriter, err error)
	ObserveQuery      func(name string, elapsed time.Duration, err error)
}

// Engine resolves requests against the current route table. The table can be
// swapped while serving; in-flight requests keep the table they resolved against.
type Engine[C interface{}] struct {
	appContext C
	routes     atomic.Pointer[router.Table[framework.RouteHandler[C]]]

	renderPage func(w http.ResponseWriter, r *http.Request, page framework.Page) error

	isNotFound   func(err error) bool
	serverError  func(w http.ResponseWriter, err error)
	observeQuery func(name string, elapsed time.Duration, err error)
}

func New[C interface{}](cfg Config[C]) (*Engine[C], error) {
	if cfg.Routes == nil {
		return nil, errors.New("route table is required")
	}
	if cfg.RenderPage == nil {
		return nil, errors.New("render page callback is required")
	}

	isNotFound := cfg.IsNotFoundError
	if isNotFound == nil {
		isNotFound = func(error) bool { return false }
	}

	serverError := cfg.HandleServerError
	if serverError == nil {
		serverError = func(w http.ResponseWriter, _ error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}

	observeQuery := cfg.ObserveQuery
	if observeQuery == nil {
		observeQuery = func(string, time.Duration, error) {}
	}

	routeEngine := &Engine[C]{
		appContext:   cfg.AppContext,
		renderPage:   cfg.RenderPage,
		isNotFound:   isNotFound,
		serverError:  serverError,
		observeQuery: observeQuery,
	}
	routeEngine.routes.Store(cfg.Routes)
	return routeEngine, nil
}

// Reload swaps in a freshly built route table.
func (engine *Engine[C]) Reload(routes *router.Table[framework.RouteHandler[C]]) error {
	if routes == nil {
		return errors.New("route table is required")
	}
	engine.routes.Store(routes)
	return nil
}

func (engine *Engine[C]) Routes() *router.Table[framework.RouteHandler[C]] {
	return engine.routes.Load()
}

// ServeRoute serves every request: unmatched paths land on the catch-all.
// It returns the pattern that served the request.
func (engine *Engine[C]) ServeRoute(w http.ResponseWriter, r *http.Request) string {
	match := engine.routes.Load().Resolve(r.URL.Path)
	match.Value.ServeRoute(engine, w, r, framework.RouteMatch{
		Pattern:  match.Pattern,
		Path:     router.CleanPath(r.URL.Path),
		Params:   match.Params,
		CatchAll: match.IsCatchAll(),
	})
	return match.Pattern
}

func (engine *Engine[C]) AppContext() C {
	return engine.appContext
}

func (engine *Engine[C]) RenderPage(w http.ResponseWriter, r *http.Request, page framework.Page) error {
	return engine.renderPage(w, r, page)
}

func (engine *Engine[C]) IsNotFound(err error) bool {
	return engine.isNotFound(err)
}

// RespondNotFound renders the table's catch-all for a page whose content was missing.
func (engine *Engine[C]) RespondNotFound(
	w http.ResponseWriter,
	r *http.Request,
	notFoundContext framework.NotFoundContext,
) {
	fallback := engine.routes.Load().Fallback()
	fallback.Value.ServeRoute(engine, w, r, framework.RouteMatch{
		Pattern:  fallback.Pattern,
		Path:     router.CleanPath(r.URL.Path),
		CatchAll: true,
		NotFound: &notFoundContext,
	})
}

func (engine *Engine[C]) RespondServerError(w http.ResponseWriter, err error) {
	engine.serverError(w, err)
}

func (engine *Engine[C]) ObserveQuery(name string, elapsed time.Duration, err error) {
	engine.observeQuery(name, elapsed, err)
}
