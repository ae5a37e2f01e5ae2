package router

import (
	"errors"
	"testing"
)

func testTable(t *testing.T) *Table[string] {
	t.Helper()

	table, err := NewTable(
		Entry[string]{Pattern: "/", Value: "home"},
		Entry[string]{Pattern: "/about", Value: "about"},
		Entry[string]{Pattern: "/blog", Value: "posts"},
		Entry[string]{Pattern: "/blog/after/:after", Value: "posts"},
		Entry[string]{Pattern: "blog/*", Value: "post"},
		Entry[string]{Pattern: "*", Value: "error"},
	)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	return table
}

func TestTableResolve(t *testing.T) {
	table := testTable(t)

	tests := []struct {
		name            string
		path            string
		expectedValue   string
		expectedPattern string
		expectedParam   string
		expectedSplat   string
	}{
		{name: "root", path: "/", expectedValue: "home", expectedPattern: "/"},
		{name: "empty path", path: "", expectedValue: "home", expectedPattern: "/"},
		{name: "literal", path: "/about", expectedValue: "about", expectedPattern: "/about"},
		{name: "literal trailing slash", path: "/about/", expectedValue: "about", expectedPattern: "/about"},
		{name: "blog list", path: "/blog", expectedValue: "posts", expectedPattern: "/blog"},
		{
			name:            "param declared before wildcard",
			path:            "/blog/after/42",
			expectedValue:   "posts",
			expectedPattern: "/blog/after/:after",
			expectedParam:   "42",
		},
		{
			name:            "wildcard",
			path:            "/blog/my-post-slug",
			expectedValue:   "post",
			expectedPattern: "blog/*",
			expectedSplat:   "my-post-slug",
		},
		{
			name:            "wildcard takes deep suffix",
			path:            "/blog/after/42/more",
			expectedValue:   "post",
			expectedPattern: "blog/*",
			expectedSplat:   "after/42/more",
		},
		{
			name:            "catch-all",
			path:            "/nope/at/all",
			expectedValue:   "error",
			expectedPattern: "*",
			expectedSplat:   "nope/at/all",
		},
		{name: "case sensitive", path: "/About", expectedValue: "error", expectedPattern: "*", expectedSplat: "About"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			match := table.Resolve(tc.path)
			if match.Value != tc.expectedValue {
				t.Fatalf("expected value %q, got %q", tc.expectedValue, match.Value)
			}
			if match.Pattern != tc.expectedPattern {
				t.Fatalf("expected pattern %q, got %q", tc.expectedPattern, match.Pattern)
			}
			if got := match.Params.Value("after"); got != tc.expectedParam {
				t.Fatalf("expected after param %q, got %q", tc.expectedParam, got)
			}
			if got := match.Params.Splat(); got != tc.expectedSplat {
				t.Fatalf("expected splat %q, got %q", tc.expectedSplat, got)
			}
		})
	}
}

func TestTableDeclarationOrderWins(t *testing.T) {
	table, err := NewTable(
		Entry[string]{Pattern: "blog/*", Value: "post"},
		Entry[string]{Pattern: "/blog/after/:after", Value: "posts"},
		Entry[string]{Pattern: "*", Value: "error"},
	)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	if got := table.Resolve("/blog/after/42").Value; got != "post" {
		t.Fatalf("expected earlier wildcard to win, got %q", got)
	}
}

func TestNewTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry[string]
		target  error
	}{
		{
			name:    "missing catch-all",
			entries: []Entry[string]{{Pattern: "/"}},
			target:  ErrNoCatchAll,
		},
		{
			name:    "duplicate catch-all",
			entries: []Entry[string]{{Pattern: "*"}, {Pattern: " * "}},
			target:  ErrDuplicateCatchAll,
		},
		{
			name:    "catch-all not last",
			entries: []Entry[string]{{Pattern: "*"}, {Pattern: "404.html"}},
			target:  ErrCatchAllNotLast,
		},
		{
			name:    "shadowed pattern",
			entries: []Entry[string]{{Pattern: "/blog/:id"}, {Pattern: "blog/:slug"}, {Pattern: "*"}},
		},
		{
			name:    "wildcard in middle",
			entries: []Entry[string]{{Pattern: "/blog/*/edit"}, {Pattern: "*"}},
		},
		{
			name:    "invalid param",
			entries: []Entry[string]{{Pattern: "/blog/:1st"}, {Pattern: "*"}},
		},
		{
			name:    "empty pattern",
			entries: []Entry[string]{{Pattern: " "}, {Pattern: "*"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable(tc.entries...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
		})
	}
}

func TestTableLiteralPaths(t *testing.T) {
	table := testTable(t)

	got := table.LiteralPaths()
	expected := []string{"/", "/about", "/blog"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for idx := range expected {
		if got[idx] != expected[idx] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"":             "/",
		"/":            "/",
		"/blog/":       "/blog",
		"blog//a/../b": "/blog/b",
	}
	for input, expected := range cases {
		if got := CleanPath(input); got != expected {
			t.Fatalf("clean %q: expected %q, got %q", input, expected, got)
		}
	}
}
