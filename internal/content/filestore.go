package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	md "site/internal/markdown"
)

const markdownExt = ".md"

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

type FileStoreConfig struct {
	FS fs.FS

	// Collections maps a collection directory to the URL prefix its entries
	// are served under, e.g. "posts" to "/blog/".
	Collections map[string]string

	// Markdown renders entry bodies; the default renderer is used when nil.
	Markdown *md.Renderer
}

// FileStore serves markdown files from <collection>/<id>.md with YAML front matter.
type FileStore struct {
	fsys        fs.FS
	collections map[string]string
	markdown    *md.Renderer

	mu      sync.RWMutex
	entries map[string][]Entry
}

type frontMatter struct {
	Title       string   `yaml:"title"`
	Date        string   `yaml:"date"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Draft       bool     `yaml:"draft"`
}

var knownFrontMatterKeys = map[string]struct{}{
	"title":       {},
	"date":        {},
	"description": {},
	"tags":        {},
	"draft":       {},
}

func NewFileStore(cfg FileStoreConfig) (*FileStore, error) {
	if cfg.FS == nil {
		return nil, errors.New("file store filesystem is required")
	}
	if len(cfg.Collections) == 0 {
		return nil, errors.New("file store needs at least one collection")
	}

	s := &FileStore{
		fsys:        cfg.FS,
		collections: cfg.Collections,
		markdown:    cfg.Markdown,
	}
	if s.markdown == nil {
		s.markdown = md.Default()
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads every collection. The previous snapshot stays in place when reading fails.
func (s *FileStore) Reload() error {
	entries := make(map[string][]Entry, len(s.collections))
	for collection := range s.collections {
		items, err := s.readCollection(collection)
		if err != nil {
			return err
		}
		entries[collection] = items
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Get(_ context.Context, collection string, id string) (Entry, error) {
	entries, err := s.snapshot(collection)
	if err != nil {
		return Entry{}, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("%s %q: %w", collection, id, ErrNotFound)
}

func (s *FileStore) List(_ context.Context, collection string, limit int, after string) (ListPage, error) {
	if limit < 1 {
		return ListPage{}, fmt.Errorf("list %s: limit must be positive", collection)
	}
	entries, err := s.snapshot(collection)
	if err != nil {
		return ListPage{}, err
	}
	return paginate(entries, limit, after)
}

func (s *FileStore) snapshot(collection string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.entries[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", collection, ErrNotFound)
	}
	return entries, nil
}

func (s *FileStore) readCollection(collection string) ([]Entry, error) {
	dirEntries, err := fs.ReadDir(s.fsys, collection)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection %q: %w", collection, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if dirEntry.IsDir() || !strings.HasSuffix(name, markdownExt) || strings.HasPrefix(name, ".") {
			continue
		}

		filePath := path.Join(collection, name)
		raw, err := fs.ReadFile(s.fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", filePath, err)
		}

		entry, draft, err := s.parseEntry(collection, strings.TrimSuffix(name, markdownExt), raw)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", filePath, err)
		}
		if draft {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].ID < entries[j].ID
	})

	return entries, nil
}

func (s *FileStore) parseEntry(collection string, id string, raw []byte) (Entry, bool, error) {
	header, body := splitFrontMatter(raw)

	var meta frontMatter
	fields := map[string]any{}
	if len(header) > 0 {
		if err := yaml.Unmarshal(header, &meta); err != nil {
			return Entry{}, false, err
		}
		if err := yaml.Unmarshal(header, &fields); err != nil {
			return Entry{}, false, err
		}
	}
	for key := range knownFrontMatterKeys {
		delete(fields, key)
	}

	date, err := parseDate(meta.Date)
	if err != nil {
		return Entry{}, false, err
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = id
	}

	doc := s.markdown.Render(string(body), s.linkRewriter(collection))
	description := strings.TrimSpace(meta.Description)
	if description == "" {
		description = doc.Summary(descriptionChars)
	}

	return Entry{
		Collection:  collection,
		ID:          id,
		Title:       title,
		Date:        date,
		Description: description,
		Tags:        meta.Tags,
		BodyHTML:    doc.HTML,
		Excerpt:     doc.Summary(excerptChars),
		Fields:      fields,
	}, meta.Draft, nil
}

// linkRewriter turns links between markdown files into site routes.
func (s *FileStore) linkRewriter(collection string) md.LinkRewriter {
	return func(href string) (string, bool) {
		target, fragment, _ := strings.Cut(href, "#")
		if !strings.HasSuffix(target, markdownExt) || strings.Contains(target, "://") {
			return "", false
		}

		resolved := path.Clean(path.Join(collection, target))
		prefix, ok := s.collections[path.Dir(resolved)]
		if !ok {
			return "", false
		}

		id := strings.TrimSuffix(path.Base(resolved), markdownExt)
		if unescaped, err := url.PathUnescape(id); err == nil {
			id = unescaped
		}

		route := prefix + url.PathEscape(id)
		if fragment != "" {
			route += "#" + fragment
		}
		return route, true
	}
}

func splitFrontMatter(raw []byte) ([]byte, []byte) {
	normalized := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return nil, normalized
	}

	rest := normalized[len("---\n"):]
	if bytes.HasPrefix(rest, []byte("---\n")) {
		return nil, rest[len("---\n"):]
	}
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			return rest[:len(rest)-len("\n---")], nil
		}
		return nil, normalized
	}

	return rest[:end], rest[end+len("\n---\n"):]
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
