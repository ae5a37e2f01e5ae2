package appcore

import (
	"context"
	"errors"

	"site/internal/content"
)

var errContentStoreUnavailable = errors.New("content store unavailable")

// Context is shared by every route handler of the site.
type Context struct {
	store content.Store
}

func NewContext(store content.Store) *Context {
	return &Context{store: store}
}

func (c *Context) ResolveQuery(ctx context.Context, query content.Query) (content.Result, error) {
	if c == nil || c.store == nil {
		return content.Result{}, errContentStoreUnavailable
	}
	return content.Resolve(ctx, c.store, query)
}

func (c *Context) Store() content.Store {
	return c.store
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, content.ErrNotFound)
}
