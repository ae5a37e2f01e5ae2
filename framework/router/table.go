package router

import (
	"fmt"
)

// Entry pairs a route pattern with the value served for it.
type Entry[T interface{}] struct {
	Pattern string
	Value   T
}

type Match[T interface{}] struct {
	Pattern string
	Params  Params
	Value   T
}

// IsCatchAll reports whether the match fell through to the fallback entry.
func (m Match[T]) IsCatchAll() bool {
	return m.Pattern == catchAllPattern
}

type route[T interface{}] struct {
	pattern Pattern
	value   T
}

// Table is an ordered, immutable route list. Resolution is first match wins and
// always succeeds because construction requires a trailing catch-all.
type Table[T interface{}] struct {
	routes []route[T]
}

func NewTable[T interface{}](entries ...Entry[T]) (*Table[T], error) {
	routes := make([]route[T], 0, len(entries))
	seen := make(map[string]string, len(entries))
	catchAllAt := -1

	for idx, entry := range entries {
		pattern, err := ParsePattern(entry.Pattern)
		if err != nil {
			return nil, err
		}

		if pattern.IsCatchAll() {
			if catchAllAt >= 0 {
				return nil, ErrDuplicateCatchAll
			}
			catchAllAt = idx
		}

		key := pattern.key()
		if existing, ok := seen[key]; ok {
			return nil, fmt.Errorf("route pattern %q is shadowed by %q", entry.Pattern, existing)
		}
		seen[key] = entry.Pattern

		routes = append(routes, route[T]{pattern: pattern, value: entry.Value})
	}

	if catchAllAt < 0 {
		return nil, ErrNoCatchAll
	}
	if catchAllAt != len(routes)-1 {
		return nil, ErrCatchAllNotLast
	}

	return &Table[T]{routes: routes}, nil
}

func (t *Table[T]) Resolve(requestPath string) Match[T] {
	for _, route := range t.routes {
		params, ok := route.pattern.Match(requestPath)
		if !ok {
			continue
		}

		return Match[T]{
			Pattern: route.pattern.String(),
			Params:  params,
			Value:   route.value,
		}
	}

	return t.Fallback()
}

// Fallback returns the catch-all entry.
func (t *Table[T]) Fallback() Match[T] {
	last := t.routes[len(t.routes)-1]
	return Match[T]{Pattern: last.pattern.String(), Value: last.value}
}

// LiteralPaths lists request paths of the routes without params or wildcards, in table order.
func (t *Table[T]) LiteralPaths() []string {
	paths := make([]string, 0, len(t.routes))
	for _, route := range t.routes {
		if literal, ok := route.pattern.Literal(); ok {
			paths = append(paths, literal)
		}
	}
	return paths
}

func (t *Table[T]) Patterns() []string {
	patterns := make([]string, 0, len(t.routes))
	for _, route := range t.routes {
		patterns = append(patterns, route.pattern.String())
	}
	return patterns
}
