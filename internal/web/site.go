package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/a-h/templ"
	"site/framework"
	"site/framework/devreload"
	"site/framework/httpserver"
	"site/framework/metrics"
	"site/internal/config"
	"site/internal/content"
	md "site/internal/markdown"
	"site/internal/web/appcore"
	"site/internal/web/components"
)

type Options struct {
	Config config.Config
	Store  content.Store

	// Templates holds the page templates; the embedded set is used when nil.
	Templates fs.FS

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Markdown supplies the code highlighting css; it should be the store's renderer.
	Markdown *md.Renderer

	// Dev disables caching and mounts Reload at its path with the client script injected.
	Dev    bool
	Reload http.Handler
}

// Site serves the route table over HTTP and rebuilds it on demand.
type Site struct {
	cfg       config.Config
	store     content.Store
	templates fs.FS
	codeCSS   template.CSS
	logger    *slog.Logger
	metrics   *metrics.Metrics
	dev       bool

	rebuildMu sync.Mutex
	renderer  atomic.Pointer[components.Renderer]
	server    *httpserver.Server[*appcore.Context]
}

// reloadable is implemented by stores that can re-read their source.
type reloadable interface {
	Reload() error
}

func NewSite(opts Options) (*Site, error) {
	if opts.Store == nil {
		return nil, errors.New("content store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	templates := opts.Templates
	if templates == nil {
		templates = components.Embedded()
	}
	markdown := opts.Markdown
	if markdown == nil {
		markdown = md.Default()
	}

	s := &Site{
		cfg:       opts.Config,
		store:     opts.Store,
		templates: templates,
		codeCSS:   markdown.CSS(),
		logger:    logger,
		metrics:   opts.Metrics,
		dev:       opts.Dev,
	}

	renderer, routes, err := s.build()
	if err != nil {
		return nil, err
	}
	s.renderer.Store(renderer)

	cachePolicies := httpserver.DefaultCachePolicies()
	cachePolicies.HTML = s.cfg.CacheHTML
	if s.dev {
		cachePolicies = httpserver.NoStoreCachePolicies()
	}

	serverConfig := httpserver.Config[*appcore.Context]{
		AppContext: appcore.NewContext(s.store),
		Routes:     routes,
		Layout:     s.layout,
		Static: httpserver.StaticMount{
			URLPrefix: s.cfg.StaticPrefix,
			Dir:       s.cfg.StaticDir,
		},
		CachePolicies:   cachePolicies,
		IsNotFoundError: appcore.IsNotFoundError,
		Logger:          logger,
		Metrics:         s.metrics,
	}
	if s.dev {
		serverConfig.Reload = opts.Reload
	}

	server, err := httpserver.New(serverConfig)
	if err != nil {
		return nil, err
	}
	s.server = server
	return s, nil
}

func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.ServeHTTP(w, r)
}

// Rebuild re-reads content and templates and swaps in a new route table.
// On failure the current table keeps serving.
func (s *Site) Rebuild() error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	err := s.rebuild()
	if s.metrics != nil {
		s.metrics.ObserveReload(err)
	}
	return err
}

func (s *Site) rebuild() error {
	if store, ok := s.store.(reloadable); ok {
		if err := store.Reload(); err != nil {
			return fmt.Errorf("reload content: %w", err)
		}
	}

	renderer, routes, err := s.build()
	if err != nil {
		return err
	}
	if err := s.server.Reload(routes); err != nil {
		return err
	}
	s.renderer.Store(renderer)
	return nil
}

// ExportPaths lists the pages of the current content for a static build.
func (s *Site) ExportPaths(ctx context.Context) ([]string, error) {
	return ExportPaths(ctx, s.server.Routes(), s.store, s.cfg.PageSize)
}

func (s *Site) build() (*components.Renderer, *RouteTable, error) {
	site := components.Site{
		Name:         s.cfg.SiteName,
		StaticPrefix: s.cfg.StaticPrefix,
		Prefixes:     CollectionPrefixes,
		CodeCSS:      s.codeCSS,
	}
	if s.dev {
		site.ReloadScript = devreload.Script(devreload.DefaultPath)
	}

	renderer, err := components.Parse(s.templates, site)
	if err != nil {
		return nil, nil, err
	}
	routes, err := NewRoutes(renderer, s.cfg.PageSize)
	if err != nil {
		return nil, nil, fmt.Errorf("build route table: %w", err)
	}
	return renderer, routes, nil
}

func (s *Site) layout(page framework.Page) templ.Component {
	return s.renderer.Load().Layout(page)
}
