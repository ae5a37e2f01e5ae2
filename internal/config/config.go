package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SITE"

const (
	ContentSourceFiles   = "files"
	ContentSourceGraphQL = "graphql"
)

type Config struct {
	ListenAddr   string
	StaticDir    string
	StaticPrefix string
	TemplateDir  string

	RootURL  string
	SiteName string

	PageSize int

	CacheHTML string

	Content  ContentConfig
	Markdown MarkdownConfig
	Dev      DevConfig
	Log      LogConfig
}

type ContentConfig struct {
	Source string
	Dir    string

	GraphQLEndpoint  string
	GraphQLAuthToken string
	GraphQLTimeout   time.Duration
}

// MarkdownConfig picks the chroma styles for code blocks.
type MarkdownConfig struct {
	LightStyle  string
	DarkStyle   string
	ClassPrefix string
}

type DevConfig struct {
	WatchPaths   []string
	PollInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads defaults, then the optional config file, then SITE_* environment overrides.
func Load(configFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("static_dir", "internal/web/static")
	v.SetDefault("static_prefix", "/assets/")
	v.SetDefault("template_dir", "internal/web/components/templates")
	v.SetDefault("root_url", "")
	v.SetDefault("site_name", "Notes & Talks")
	v.SetDefault("page_size", 8)
	v.SetDefault("cache_html", "")
	v.SetDefault("content.source", ContentSourceFiles)
	v.SetDefault("content.dir", "content")
	v.SetDefault("content.graphql_endpoint", "http://localhost:3000/api/graphql")
	v.SetDefault("content.graphql_auth_token", "")
	v.SetDefault("content.graphql_timeout", 15*time.Second)
	v.SetDefault("markdown.light_style", "github")
	v.SetDefault("markdown.dark_style", "monokai")
	v.SetDefault("markdown.class_prefix", "")
	v.SetDefault("dev.watch_paths", []string{"content", "internal/web/components/templates", "internal/web/static"})
	v.SetDefault("dev.poll_interval", 250*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", configFile, err)
		}
	}

	cfg := Config{
		ListenAddr:   v.GetString("listen_addr"),
		StaticDir:    v.GetString("static_dir"),
		StaticPrefix: v.GetString("static_prefix"),
		TemplateDir:  v.GetString("template_dir"),
		RootURL:      strings.TrimSpace(v.GetString("root_url")),
		SiteName:     v.GetString("site_name"),
		PageSize:     v.GetInt("page_size"),
		CacheHTML:    strings.TrimSpace(v.GetString("cache_html")),
		Content: ContentConfig{
			Source:           strings.ToLower(strings.TrimSpace(v.GetString("content.source"))),
			Dir:              v.GetString("content.dir"),
			GraphQLEndpoint:  v.GetString("content.graphql_endpoint"),
			GraphQLAuthToken: v.GetString("content.graphql_auth_token"),
			GraphQLTimeout:   v.GetDuration("content.graphql_timeout"),
		},
		Markdown: MarkdownConfig{
			LightStyle:  strings.TrimSpace(v.GetString("markdown.light_style")),
			DarkStyle:   strings.TrimSpace(v.GetString("markdown.dark_style")),
			ClassPrefix: strings.TrimSpace(v.GetString("markdown.class_prefix")),
		},
		Dev: DevConfig{
			WatchPaths:   v.GetStringSlice("dev.watch_paths"),
			PollInterval: v.GetDuration("dev.poll_interval"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	switch c.Content.Source {
	case ContentSourceFiles:
		if strings.TrimSpace(c.Content.Dir) == "" {
			return errors.New("content.dir is required for the files source")
		}
	case ContentSourceGraphQL:
		if strings.TrimSpace(c.Content.GraphQLEndpoint) == "" {
			return errors.New("content.graphql_endpoint is required for the graphql source")
		}
	default:
		return fmt.Errorf("unknown content.source %q", c.Content.Source)
	}
	return nil
}
