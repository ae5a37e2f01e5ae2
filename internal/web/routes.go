package web

import (
	"context"
	"net/url"

	"site/framework"
	"site/framework/router"
	"site/internal/content"
	"site/internal/web/appcore"
	"site/internal/web/components"
)

type RouteHandler = framework.RouteHandler[*appcore.Context]

type RouteTable = router.Table[RouteHandler]

// CollectionPrefixes maps each content collection to the routes serving its entries.
var CollectionPrefixes = map[string]string{
	content.CollectionPosts:       "/blog/",
	content.CollectionConferences: "/conference/",
}

// NewRoutes builds the site route table. Order matters: the first matching pattern serves.
func NewRoutes(renderer *components.Renderer, pageSize int) (*RouteTable, error) {
	var table *RouteTable

	errorPage := framework.Static[*appcore.Context](func(route framework.RouteMatch) framework.Page {
		return renderer.ErrorPage(route, Suggestions(route.Path, table.LiteralPaths()))
	})
	postsPage := withContent(postsComponent(renderer), PostsQueries(pageSize))

	table, err := router.NewTable(
		router.Entry[RouteHandler]{Pattern: "/", Value: framework.Static[*appcore.Context](renderer.Home)},
		router.Entry[RouteHandler]{Pattern: "/about", Value: framework.Static[*appcore.Context](renderer.About)},
		router.Entry[RouteHandler]{Pattern: "/awesome", Value: framework.Static[*appcore.Context](renderer.Awesome)},
		router.Entry[RouteHandler]{Pattern: "/conference", Value: framework.Static[*appcore.Context](renderer.Conference)},
		router.Entry[RouteHandler]{Pattern: "conference/*", Value: withContent(conferenceComponent(renderer), ConferenceQueries)},
		router.Entry[RouteHandler]{Pattern: "/blog", Value: postsPage},
		router.Entry[RouteHandler]{Pattern: "/blog/after/:after", Value: postsPage},
		router.Entry[RouteHandler]{Pattern: "blog/*", Value: withContent(postComponent(renderer), PostQueries)},
		router.Entry[RouteHandler]{Pattern: "*", Value: errorPage},
	)
	if err != nil {
		return nil, err
	}
	return table, nil
}

func withContent(
	component framework.DataComponent[content.Result],
	spec framework.QuerySpec[content.Query],
) RouteHandler {
	return framework.WithQueries[*appcore.Context, content.Query, content.Result](component, spec)
}

func PostsQueries(pageSize int) framework.QuerySpec[content.Query] {
	return func(route framework.RouteMatch) framework.QuerySet[content.Query] {
		return framework.QuerySet[content.Query]{
			"posts": {
				Collection: content.CollectionPosts,
				Limit:      pageSize,
				After:      route.Params.Value("after"),
			},
		}
	}
}

func PostQueries(route framework.RouteMatch) framework.QuerySet[content.Query] {
	return framework.QuerySet[content.Query]{
		"post": {Collection: content.CollectionPosts, ID: route.Params.Splat()},
	}
}

func ConferenceQueries(route framework.RouteMatch) framework.QuerySet[content.Query] {
	return framework.QuerySet[content.Query]{
		"conference": {Collection: content.CollectionConferences, ID: route.Params.Splat()},
	}
}

func postsComponent(renderer *components.Renderer) framework.DataComponent[content.Result] {
	return func(route framework.RouteMatch, data framework.Results[content.Result]) framework.Page {
		var page content.ListPage
		if list := data["posts"].List; list != nil {
			page = *list
		}
		return renderer.Posts(route, page)
	}
}

func postComponent(renderer *components.Renderer) framework.DataComponent[content.Result] {
	return func(route framework.RouteMatch, data framework.Results[content.Result]) framework.Page {
		return renderer.Post(route, itemOf(data["post"]))
	}
}

func conferenceComponent(renderer *components.Renderer) framework.DataComponent[content.Result] {
	return func(route framework.RouteMatch, data framework.Results[content.Result]) framework.Page {
		return renderer.ConferenceDetails(route, itemOf(data["conference"]))
	}
}

func itemOf(result content.Result) content.Entry {
	if result.Item == nil {
		return content.Entry{}
	}
	return *result.Item
}

// EntryPath is the escaped route of a post or conference.
func EntryPath(entry content.Entry) string {
	return CollectionPrefixes[entry.Collection] + url.PathEscape(entry.ID)
}

// ExportPaths lists every path a static build has to render: the literal routes,
// each older posts page, and every post and conference.
func ExportPaths(ctx context.Context, table *RouteTable, store content.Store, pageSize int) ([]string, error) {
	paths := table.LiteralPaths()

	err := content.Walk(ctx, store, content.CollectionPosts, pageSize, func(after string, page content.ListPage) error {
		if after != "" {
			paths = append(paths, components.PostsPageURL(after))
		}
		for _, entry := range page.Items {
			paths = append(paths, EntryPath(entry))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = content.Walk(ctx, store, content.CollectionConferences, pageSize, func(_ string, page content.ListPage) error {
		for _, entry := range page.Items {
			paths = append(paths, EntryPath(entry))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}
