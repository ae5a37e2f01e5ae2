package content

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
)

var ErrNotFound = errors.New("content not found")

const (
	CollectionPosts       = "posts"
	CollectionConferences = "conferences"
)

const (
	descriptionChars = 220
	excerptChars     = 260
)

type Entry struct {
	Collection  string
	ID          string
	Title       string
	Date        time.Time
	Description string
	Tags        []string
	BodyHTML    template.HTML
	Excerpt     string

	// Fields holds front matter keys that have no dedicated field.
	Fields map[string]any
}

func (e Entry) PublishedAt() string {
	if e.Date.IsZero() {
		return ""
	}
	return e.Date.Format("2006-01-02")
}

// Field returns a front matter value as text, or "" when it is missing.
func (e Entry) Field(name string) string {
	value, ok := e.Fields[name]
	if !ok || value == nil {
		return ""
	}
	if date, ok := value.(time.Time); ok {
		return date.Format("2006-01-02")
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// Query asks for one entry when ID is set and for a page of entries otherwise.
type Query struct {
	Collection string
	ID         string
	Limit      int
	After      string
}

func (q Query) IsItem() bool {
	return q.ID != ""
}

func (q Query) String() string {
	if q.IsItem() {
		return q.Collection + "/" + q.ID
	}
	if q.After == "" {
		return fmt.Sprintf("%s?limit=%d", q.Collection, q.Limit)
	}
	return fmt.Sprintf("%s?limit=%d&after=%s", q.Collection, q.Limit, q.After)
}

// ListPage is one page of a collection. Cursors are entry IDs: After names the
// first entry of a page, so Next is the first entry of the following page.
type ListPage struct {
	Items []Entry

	HasPrevious bool
	// Previous is empty when the previous page is the first one.
	Previous string

	HasNext bool
	Next    string
}

type Result struct {
	Item *Entry
	List *ListPage
}

type Store interface {
	Get(ctx context.Context, collection string, id string) (Entry, error)
	List(ctx context.Context, collection string, limit int, after string) (ListPage, error)
}

func Resolve(ctx context.Context, store Store, query Query) (Result, error) {
	if strings.TrimSpace(query.Collection) == "" {
		return Result{}, errors.New("query collection is required")
	}

	if query.IsItem() {
		entry, err := store.Get(ctx, query.Collection, query.ID)
		if err != nil {
			return Result{}, err
		}
		return Result{Item: &entry}, nil
	}

	if query.Limit < 1 {
		return Result{}, fmt.Errorf("query %s: limit must be positive", query)
	}
	page, err := store.List(ctx, query.Collection, query.Limit, query.After)
	if err != nil {
		return Result{}, err
	}
	return Result{List: &page}, nil
}

// Walk visits every page of a collection in order.
func Walk(ctx context.Context, store Store, collection string, limit int, visit func(after string, page ListPage) error) error {
	after := ""
	for {
		page, err := store.List(ctx, collection, limit, after)
		if err != nil {
			return fmt.Errorf("list %s after %q: %w", collection, after, err)
		}
		if err := visit(after, page); err != nil {
			return err
		}
		if !page.HasNext {
			return nil
		}
		after = page.Next
	}
}

func paginate(entries []Entry, limit int, after string) (ListPage, error) {
	start := 0
	if after != "" {
		start = -1
		for idx, entry := range entries {
			if entry.ID == after {
				start = idx
				break
			}
		}
		if start < 0 {
			return ListPage{}, fmt.Errorf("cursor %q: %w", after, ErrNotFound)
		}
	}

	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}

	page := ListPage{Items: append([]Entry(nil), entries[start:end]...)}
	if end < len(entries) {
		page.HasNext = true
		page.Next = entries[end].ID
	}
	if start > 0 {
		page.HasPrevious = true
		if previous := start - limit; previous > 0 {
			page.Previous = entries[previous].ID
		}
	}

	return page, nil
}
