package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"site/framework"
	"site/framework/devreload"
	"site/framework/engine"
	"site/framework/metrics"
	"site/framework/router"
)

const defaultCacheControlPolicy = "public, max-age=3600, s-maxage=3600"
const defaultHealthPath = "/healthz"
const defaultHealthBody = "ok"
const defaultStaticPrefix = "/assets/"
const defaultMetricsPath = "/metrics"

// NoStorePolicy disables caching; the dev server uses it for every response class.
const NoStorePolicy = "no-store"

type StaticMount struct {
	URLPrefix string
	Dir       string
}

type CachePolicies struct {
	HTML   string
	Static string
	Health string
	Error  string
}

func DefaultCachePolicies() CachePolicies {
	return CachePolicies{
		HTML:   defaultCacheControlPolicy,
		Static: defaultCacheControlPolicy,
		Health: defaultCacheControlPolicy,
		Error:  defaultCacheControlPolicy,
	}
}

func NoStoreCachePolicies() CachePolicies {
	return CachePolicies{
		HTML:   NoStorePolicy,
		Static: NoStorePolicy,
		Health: NoStorePolicy,
		Error:  NoStorePolicy,
	}
}

type Config[C interface{}] struct {
	AppContext C
	Routes     *router.Table[framework.RouteHandler[C]]

	// Layout wraps every rendered page in the site shell.
	Layout func(page framework.Page) templ.Component

	Static StaticMount

	CachePolicies CachePolicies

	IsNotFoundError func(err error) bool
	Logger          *slog.Logger
	LogServerError  func(err error)

	Metrics     *metrics.Metrics
	MetricsPath string

	// Reload is mounted at ReloadPath when set (development only).
	Reload     http.Handler
	ReloadPath string

	HealthPath string
	HealthBody string
}

type Server[C interface{}] struct {
	cachePolicies CachePolicies
	layout        func(page framework.Page) templ.Component
	logger        *slog.Logger
	logServerErr  func(err error)
	metrics       *metrics.Metrics
	healthBody    string

	routeEngine *engine.Engine[C]
	mux         *chi.Mux
}

func New[C interface{}](cfg Config[C]) (*Server[C], error) {
	cachePolicies := withDefaultPolicies(cfg.CachePolicies)
	healthBody := strings.TrimSpace(cfg.HealthBody)
	if healthBody == "" {
		healthBody = defaultHealthBody
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server[C]{
		cachePolicies: cachePolicies,
		layout:        cfg.Layout,
		logger:        logger,
		logServerErr:  cfg.LogServerError,
		metrics:       cfg.Metrics,
		healthBody:    healthBody,
	}

	engineConfig := engine.Config[C]{
		AppContext:        cfg.AppContext,
		Routes:            cfg.Routes,
		RenderPage:        srv.renderPage,
		IsNotFoundError:   cfg.IsNotFoundError,
		HandleServerError: srv.handleServerError,
	}
	if cfg.Metrics != nil {
		engineConfig.ObserveQuery = cfg.Metrics.ObserveQuery
	}
	routeEngine, err := engine.New(engineConfig)
	if err != nil {
		return nil, fmt.Errorf("create route engine: %w", err)
	}
	srv.routeEngine = routeEngine

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(srv.logRequests)
	mux.Use(middleware.Recoverer)

	mux.Get(normalizePath(cfg.HealthPath, defaultHealthPath), srv.handleHealth)
	if cfg.Metrics != nil {
		mux.Handle(normalizePath(cfg.MetricsPath, defaultMetricsPath), cfg.Metrics.Handler())
	}
	if cfg.Reload != nil {
		mux.Handle(normalizePath(cfg.ReloadPath, devreload.DefaultPath), cfg.Reload)
	}
	if strings.TrimSpace(cfg.Static.Dir) != "" {
		prefix := normalizeStaticPrefix(cfg.Static.URLPrefix)
		fs := http.FileServer(http.Dir(cfg.Static.Dir))
		mux.Handle(prefix+"*", withCachePolicy(cachePolicies.Static, http.StripPrefix(prefix, fs)))
	}
	mux.HandleFunc("/*", srv.handleRoute)

	srv.mux = mux
	return srv, nil
}

func (s *Server[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Reload swaps the route table served from now on.
func (s *Server[C]) Reload(routes *router.Table[framework.RouteHandler[C]]) error {
	return s.routeEngine.Reload(routes)
}

func (s *Server[C]) Routes() *router.Table[framework.RouteHandler[C]] {
	return s.routeEngine.Routes()
}

func (s *Server[C]) handleRoute(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	pattern := s.routeEngine.ServeRoute(ww, r)
	if s.metrics != nil {
		s.metrics.ObserveRequest(pattern, ww.Status(), time.Since(started))
	}
}

func (s *Server[C]) renderPage(w http.ResponseWriter, r *http.Request, page framework.Page) error {
	policy := s.cachePolicies.HTML
	if page.Status >= http.StatusBadRequest {
		policy = s.cachePolicies.Error
	}
	setCachePolicy(w, policy)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	component := page.Body
	if s.layout != nil {
		component = s.layout(page)
	}
	if page.Status > 0 {
		w.WriteHeader(page.Status)
	}
	return component.Render(r.Context(), w)
}

func (s *Server[C]) handleServerError(w http.ResponseWriter, err error) {
	setCachePolicy(w, s.cachePolicies.Error)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	if s.logServerErr != nil {
		s.logServerErr(err)
		return
	}

	s.logger.Error("server error", "err", err)
}

func (s *Server[C]) handleHealth(w http.ResponseWriter, _ *http.Request) {
	setCachePolicy(w, s.cachePolicies.Health)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.healthBody))
}

func (s *Server[C]) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(started),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func normalizeStaticPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return defaultStaticPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func normalizePath(path string, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return fallback
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func withDefaultPolicies(policies CachePolicies) CachePolicies {
	defaults := DefaultCachePolicies()
	if strings.TrimSpace(policies.HTML) == "" {
		policies.HTML = defaults.HTML
	}
	if strings.TrimSpace(policies.Static) == "" {
		policies.Static = defaults.Static
	}
	if strings.TrimSpace(policies.Health) == "" {
		policies.Health = defaults.Health
	}
	if strings.TrimSpace(policies.Error) == "" {
		policies.Error = defaults.Error
	}
	return policies
}

func setCachePolicy(w http.ResponseWriter, policy string) {
	policy = strings.TrimSpace(policy)
	if policy == "" {
		return
	}
	w.Header().Set("Cache-Control", policy)
}

func withCachePolicy(policy string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCachePolicy(w, policy)
		next.ServeHTTP(w, r)
	})
}
