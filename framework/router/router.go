package router

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

const catchAllPattern = "*"

var paramNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

var (
	ErrNoCatchAll        = errors.New("route table needs a catch-all \"*\" entry")
	ErrDuplicateCatchAll = errors.New("route table has more than one catch-all entry")
	ErrCatchAllNotLast   = errors.New("catch-all entry must be the last route")
)

type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentParam
	segmentSplat
)

type pathSegment struct {
	kind  segmentKind
	value string
}

// Pattern is a parsed route pattern such as "/blog/after/:after" or "blog/*".
type Pattern struct {
	raw      string
	segments []pathSegment
}

func ParsePattern(raw string) (Pattern, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Pattern{}, errors.New("route pattern cannot be empty")
	}
	if trimmed == catchAllPattern {
		return Pattern{raw: trimmed, segments: []pathSegment{{kind: segmentSplat}}}, nil
	}

	parts := splitPathSegments(trimmed)
	segments := make([]pathSegment, 0, len(parts))
	for idx, part := range parts {
		switch {
		case part == catchAllPattern:
			if idx != len(parts)-1 {
				return Pattern{}, fmt.Errorf("route pattern %q: wildcard must be the final segment", raw)
			}
			segments = append(segments, pathSegment{kind: segmentSplat})
		case strings.HasPrefix(part, ":"):
			name := strings.TrimPrefix(part, ":")
			if !paramNamePattern.MatchString(name) {
				return Pattern{}, fmt.Errorf("route pattern %q: invalid param name %q", raw, name)
			}
			segments = append(segments, pathSegment{kind: segmentParam, value: name})
		case strings.ContainsAny(part, ":*"):
			return Pattern{}, fmt.Errorf("route pattern %q: invalid segment %q", raw, part)
		default:
			segments = append(segments, pathSegment{kind: segmentLiteral, value: part})
		}
	}

	return Pattern{raw: trimmed, segments: segments}, nil
}

func (p Pattern) String() string {
	return p.raw
}

// IsCatchAll reports whether the pattern is the bare "*" fallback.
func (p Pattern) IsCatchAll() bool {
	return len(p.segments) == 1 && p.segments[0].kind == segmentSplat
}

// Literal returns the request path the pattern matches when it has no params or wildcard.
func (p Pattern) Literal() (string, bool) {
	parts := make([]string, 0, len(p.segments))
	for _, segment := range p.segments {
		if segment.kind != segmentLiteral {
			return "", false
		}
		parts = append(parts, segment.value)
	}
	return "/" + strings.Join(parts, "/"), true
}

func (p Pattern) key() string {
	parts := make([]string, 0, len(p.segments))
	for _, segment := range p.segments {
		switch segment.kind {
		case segmentParam:
			parts = append(parts, ":")
		case segmentSplat:
			parts = append(parts, catchAllPattern)
		default:
			parts = append(parts, segment.value)
		}
	}
	return "/" + strings.Join(parts, "/")
}

func (p Pattern) Match(requestPath string) (Params, bool) {
	requestSegments := splitPathSegments(requestPath)

	var values map[string]string
	for idx, segment := range p.segments {
		if segment.kind == segmentSplat {
			rest := requestSegments[idx:]
			if len(rest) == 0 && !p.IsCatchAll() {
				return Params{}, false
			}
			return Params{values: values, splat: strings.Join(rest, "/")}, true
		}
		if idx >= len(requestSegments) {
			return Params{}, false
		}

		requestValue := requestSegments[idx]
		if segment.kind == segmentParam {
			if values == nil {
				values = make(map[string]string, 2)
			}
			values[segment.value] = requestValue
			continue
		}
		if segment.value != requestValue {
			return Params{}, false
		}
	}

	if len(p.segments) != len(requestSegments) {
		return Params{}, false
	}
	return Params{values: values}, true
}

// Params are the values bound by a pattern match.
type Params struct {
	values map[string]string
	splat  string
}

func NewParams(values map[string]string, splat string) Params {
	return Params{values: values, splat: splat}
}

func (p Params) Get(name string) (string, bool) {
	if p.values == nil {
		return "", false
	}
	value, ok := p.values[name]
	return value, ok
}

func (p Params) Value(name string) string {
	value, _ := p.Get(name)
	return value
}

// Splat is the suffix matched by a trailing "*".
func (p Params) Splat() string {
	return p.splat
}

func splitPathSegments(raw string) []string {
	cleaned := path.Clean("/" + strings.TrimSpace(raw))
	trimmed := strings.Trim(cleaned, "/")
	if trimmed == "" {
		return []string{}
	}

	return strings.Split(trimmed, "/")
}

// CleanPath normalizes a request path the way the table sees it.
func CleanPath(raw string) string {
	segments := splitPathSegments(raw)
	return "/" + strings.Join(segments, "/")
}
