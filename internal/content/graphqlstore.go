package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	genqlientgraphql "github.com/Khan/genqlient/graphql"
	"site/internal/gql"
	md "site/internal/markdown"
)

// GraphQLStore reads entries from a CMS exposing the entry and entries queries.
type GraphQLStore struct {
	client   genqlientgraphql.Client
	markdown *md.Renderer
}

// NewGraphQLStore uses the default markdown renderer when renderer is nil.
func NewGraphQLStore(client genqlientgraphql.Client, renderer *md.Renderer) *GraphQLStore {
	if renderer == nil {
		renderer = md.Default()
	}
	return &GraphQLStore{
		client:   client,
		markdown: renderer,
	}
}

func (s *GraphQLStore) Get(ctx context.Context, collection string, id string) (Entry, error) {
	response, err := gql.ContentEntryByID(ctx, s.client, collection, id)
	if err != nil {
		return Entry{}, fmt.Errorf("fetch %s %q: %w", collection, id, err)
	}
	if response == nil || response.Entry == nil {
		return Entry{}, fmt.Errorf("%s %q: %w", collection, id, ErrNotFound)
	}

	return s.mapEntry(collection, *response.Entry)
}

func (s *GraphQLStore) List(ctx context.Context, collection string, limit int, after string) (ListPage, error) {
	var cursor *string
	if after != "" {
		cursor = &after
	}

	response, err := gql.ContentEntries(ctx, s.client, collection, limit, cursor)
	if err != nil {
		return ListPage{}, fmt.Errorf("fetch %s page after %q: %w", collection, after, err)
	}
	if response == nil || response.Entries == nil {
		return ListPage{}, fmt.Errorf("cursor %q: %w", after, ErrNotFound)
	}

	page := ListPage{
		Items:       make([]Entry, 0, len(response.Entries.Items)),
		HasPrevious: response.Entries.HasPrevious,
		Previous:    strOr(response.Entries.Previous, ""),
		HasNext:     response.Entries.HasNext,
		Next:        strOr(response.Entries.Next, ""),
	}
	for _, item := range response.Entries.Items {
		entry, err := s.mapEntry(collection, item)
		if err != nil {
			return ListPage{}, err
		}
		page.Items = append(page.Items, entry)
	}
	if page.HasNext && page.Next == "" {
		return ListPage{}, fmt.Errorf("fetch %s page after %q: next cursor missing", collection, after)
	}

	return page, nil
}

func (s *GraphQLStore) mapEntry(collection string, doc gql.ContentEntry) (Entry, error) {
	date, err := parseDate(strOr(doc.Date, ""))
	if err != nil {
		return Entry{}, fmt.Errorf("%s %q: %w", collection, doc.Id, err)
	}

	fields := make(map[string]any, len(doc.Fields))
	for key, raw := range doc.Fields {
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return Entry{}, fmt.Errorf("%s %q field %q: %w", collection, doc.Id, key, err)
		}
		fields[key] = value
	}

	if strings.TrimSpace(doc.Collection) != "" {
		collection = doc.Collection
	}
	body := s.markdown.Render(strOr(doc.Content, ""), nil)
	description := strOr(doc.Description, "")
	if description == "" {
		description = body.Summary(descriptionChars)
	}

	return Entry{
		Collection:  collection,
		ID:          doc.Id,
		Title:       strOr(doc.Title, doc.Id),
		Date:        date,
		Description: description,
		Tags:        doc.Tags,
		BodyHTML:    body.HTML,
		Excerpt:     body.Summary(excerptChars),
		Fields:      fields,
	}, nil
}

func strOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return fallback
	}

	return trimmed
}
