package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"site/framework/metrics"
	"site/internal/config"
	"site/internal/content"
	"site/internal/gql"
	md "site/internal/markdown"
	"site/internal/web"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "site",
		Short: "Personal site: blog, talks and pages",
		Long: `Serves the personal site from markdown content or a GraphQL CMS.

Configuration is read from an optional YAML file and SITE_* environment
variables, e.g. SITE_LISTEN_ADDR or SITE_CONTENT_DIR.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(
		serveCmd(&configFile),
		devCmd(&configFile),
		exportCmd(&configFile),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      config.Config
	logger   *slog.Logger
	markdown *md.Renderer
	store    content.Store
	metrics  *metrics.Metrics
}

func loadApp(configFile string) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	renderer, err := md.New(md.Config{
		LightStyle:  cfg.Markdown.LightStyle,
		DarkStyle:   cfg.Markdown.DarkStyle,
		ClassPrefix: cfg.Markdown.ClassPrefix,
		RootURL:     cfg.RootURL,
	})
	if err != nil {
		return nil, fmt.Errorf("markdown: %w", err)
	}

	store, err := newStore(cfg, renderer)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		markdown: renderer,
		store:    store,
		metrics:  metrics.New(metrics.Config{}),
	}, nil
}

func (a *app) site(opts web.Options) (*web.Site, error) {
	opts.Config = a.cfg
	opts.Store = a.store
	opts.Markdown = a.markdown
	opts.Logger = a.logger
	opts.Metrics = a.metrics
	return web.NewSite(opts)
}

func newStore(cfg config.Config, renderer *md.Renderer) (content.Store, error) {
	if cfg.Content.Source == config.ContentSourceGraphQL {
		return content.NewGraphQLStore(gql.NewClient(cfg.Content), renderer), nil
	}

	store, err := content.NewFileStore(content.FileStoreConfig{
		FS:          os.DirFS(cfg.Content.Dir),
		Collections: web.CollectionPrefixes,
		Markdown:    renderer,
	})
	if err != nil {
		return nil, fmt.Errorf("load content from %q: %w", cfg.Content.Dir, err)
	}
	return store, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
