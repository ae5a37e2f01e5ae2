package framework

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "site/framework"

// QuerySet names the content a page needs, keyed by the name the page reads it under.
type QuerySet[Q interface{}] map[string]Q

// QuerySpec declares a page's queries for a matched route.
type QuerySpec[Q interface{}] func(route RouteMatch) QuerySet[Q]

type Results[R interface{}] map[string]R

type DataComponent[R interface{}] func(route RouteMatch, data Results[R]) Page

// QueryResolver is implemented by the app context of sites that use WithQueries.
type QueryResolver[Q interface{}, R interface{}] interface {
	ResolveQuery(ctx context.Context, query Q) (R, error)
}

type queryHandler[C QueryResolver[Q, R], Q interface{}, R interface{}] struct {
	component DataComponent[R]
	spec      QuerySpec[Q]
}

// WithQueries wraps component so that every query declared by spec is resolved
// before the component renders with the results.
func WithQueries[C QueryResolver[Q, R], Q interface{}, R interface{}](
	component DataComponent[R],
	spec QuerySpec[Q],
) RouteHandler[C] {
	return queryHandler[C, Q, R]{component: component, spec: spec}
}

func (h queryHandler[C, Q, R]) ServeRoute(
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	route RouteMatch,
) {
	data, err := h.resolve(r.Context(), runtime, route)
	if err != nil {
		handleLoadError(runtime, w, r, err, route.Pattern)
		return
	}

	renderPage(runtime, w, r, route, h.component(route, data))
}

func (h queryHandler[C, Q, R]) resolve(
	ctx context.Context,
	runtime RuntimeContext[C],
	route RouteMatch,
) (Results[R], error) {
	queries := h.spec(route)
	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)

	resolver := runtime.AppContext()
	tracer := otel.Tracer(tracerName)
	results := make(Results[R], len(queries))

	for _, name := range names {
		query := queries[name]

		spanCtx, span := tracer.Start(ctx, "query "+name)
		span.SetAttributes(
			attribute.String("route.pattern", route.Pattern),
			attribute.String("query.name", name),
		)
		if described, ok := interface{}(query).(fmt.Stringer); ok {
			span.SetAttributes(attribute.String("query", described.String()))
		}

		started := time.Now()
		result, err := resolver.ResolveQuery(spanCtx, query)
		runtime.ObserveQuery(name, time.Since(started), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return nil, fmt.Errorf("query %q: %w", name, err)
		}

		span.End()
		results[name] = result
	}

	return results, nil
}
