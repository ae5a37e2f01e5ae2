package content

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	md "site/internal/markdown"
)

var siteCollections = map[string]string{
	CollectionPosts:       "/blog/",
	CollectionConferences: "/conference/",
}

func post(date string, title string, body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte("---\ntitle: " + title + "\ndate: " + date + "\ntags: [go, web]\n---\n" + body)}
}

func newTestStore(t *testing.T) (*FileStore, fstest.MapFS) {
	t.Helper()
	fsys := fstest.MapFS{
		"posts/a.md":      post("2024-03-01", "Alpha", "See [the talk](../conferences/reasonconf.md#slides) and [bravo](b.md)."),
		"posts/b.md":      post("2024-02-01", "Bravo", "Bravo body."),
		"posts/c.md":      post("2024-02-01", "Charlie", "Charlie body."),
		"posts/d.md":      post("2024-01-01", "Delta", "Delta body."),
		"posts/e.md":      {Data: []byte("---\ntitle: Echo\ndraft: true\n---\nnot yet")},
		"posts/notes.txt": {Data: []byte("ignored")},
		"conferences/reasonconf.md": {Data: []byte(
			"---\ntitle: ReasonConf\ndate: 2019-04-11\nlocation: Vienna\n---\nSlides and recording.",
		)},
	}

	store, err := NewFileStore(FileStoreConfig{FS: fsys, Collections: siteCollections})
	require.NoError(t, err)
	return store, fsys
}

func ids(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.ID)
	}
	return out
}

func TestFileStoreOrdersByDateThenID(t *testing.T) {
	store, _ := newTestStore(t)

	page, err := store.List(context.Background(), CollectionPosts, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(page.Items))
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrevious)
}

func TestFileStorePaginatesWithInclusiveCursor(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.List(ctx, CollectionPosts, 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(first.Items))
	assert.True(t, first.HasNext)
	assert.Equal(t, "c", first.Next)

	second, err := store.List(ctx, CollectionPosts, 2, first.Next)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, ids(second.Items))
	assert.False(t, second.HasNext)
	assert.True(t, second.HasPrevious)
	assert.Empty(t, second.Previous)

	single, err := store.List(ctx, CollectionPosts, 1, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(single.Items))
	assert.Equal(t, "b", single.Previous)
	assert.Equal(t, "d", single.Next)

	_, err = store.List(ctx, CollectionPosts, 2, "zulu")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreGetParsesFrontMatterAndLinks(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	entry, err := store.Get(ctx, CollectionPosts, "a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", entry.Title)
	assert.Equal(t, "2024-03-01", entry.PublishedAt())
	assert.Equal(t, []string{"go", "web"}, entry.Tags)
	assert.Contains(t, string(entry.BodyHTML), `href="/conference/reasonconf#slides"`)
	assert.Contains(t, string(entry.BodyHTML), `href="/blog/b"`)
	assert.NotContains(t, string(entry.BodyHTML), `target="_blank"`)
	assert.Equal(t, "See the talk and bravo.", entry.Excerpt)

	conference, err := store.Get(ctx, CollectionConferences, "reasonconf")
	require.NoError(t, err)
	assert.Equal(t, "Vienna", conference.Field("location"))
	assert.Empty(t, conference.Field("missing"))

	_, err = store.Get(ctx, CollectionPosts, "e")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, "talks", "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreReload(t *testing.T) {
	store, fsys := newTestStore(t)
	ctx := context.Background()

	fsys["posts/f.md"] = post("2024-04-01", "Foxtrot", "Fresh.")
	_, err := store.Get(ctx, CollectionPosts, "f")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Reload())
	entry, err := store.Get(ctx, CollectionPosts, "f")
	require.NoError(t, err)
	assert.Equal(t, "Foxtrot", entry.Title)

	fsys["posts/broken.md"] = &fstest.MapFile{Data: []byte("---\ndate: someday\n---\nbody")}
	assert.Error(t, store.Reload())

	_, err = store.Get(ctx, CollectionPosts, "f")
	assert.NoError(t, err, "failed reload keeps the previous snapshot")
}

func TestFileStoreEntryWithoutFrontMatter(t *testing.T) {
	store, err := NewFileStore(FileStoreConfig{
		FS:          fstest.MapFS{"posts/plain.md": {Data: []byte("# Plain\n\nJust text.")}},
		Collections: siteCollections,
	})
	require.NoError(t, err)

	entry, err := store.Get(context.Background(), CollectionPosts, "plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", entry.Title)
	assert.True(t, entry.Date.IsZero())
	assert.Empty(t, entry.PublishedAt())

	page, err := store.List(context.Background(), CollectionConferences, 5, "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestFileStoreRendersWithConfiguredMarkdown(t *testing.T) {
	renderer, err := md.New(md.Config{ClassPrefix: "hl-", RootURL: "https://notes.example"})
	require.NoError(t, err)

	store, err := NewFileStore(FileStoreConfig{
		FS: fstest.MapFS{
			"posts/code.md": post("2024-01-01", "Code", "Back to [the index](https://notes.example/blog).\n\n```go\nfunc main() {}\n```"),
			"posts/links.md": post("2024-01-02", "Links",
				"Read [the comparison](c%23-vs-go.md#intro) and [why](why-go?.md)."),
		},
		Collections: siteCollections,
		Markdown:    renderer,
	})
	require.NoError(t, err)
	ctx := context.Background()

	code, err := store.Get(ctx, CollectionPosts, "code")
	require.NoError(t, err)
	assert.Contains(t, string(code.BodyHTML), `class="hl-chroma"`)
	assert.Contains(t, string(code.BodyHTML), `href="/blog"`)
	assert.Equal(t, "Back to the index.", code.Excerpt)

	links, err := store.Get(ctx, CollectionPosts, "links")
	require.NoError(t, err)
	assert.Contains(t, string(links.BodyHTML), `href="/blog/c%23-vs-go#intro"`)
	assert.Contains(t, string(links.BodyHTML), `href="/blog/why-go%3F"`)
}

func TestNewFileStoreValidation(t *testing.T) {
	_, err := NewFileStore(FileStoreConfig{Collections: siteCollections})
	assert.Error(t, err)

	_, err = NewFileStore(FileStoreConfig{FS: fstest.MapFS{}})
	assert.Error(t, err)
}
