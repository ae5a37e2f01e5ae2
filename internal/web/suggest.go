package web

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	maxSuggestionDistance = 3
	maxSuggestions        = 3
)

// Suggestions returns up to three candidates close to requestPath, closest first.
func Suggestions(requestPath string, candidates []string) []string {
	type scored struct {
		path     string
		distance int
	}

	wanted := strings.ToLower(requestPath)
	matches := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == requestPath {
			continue
		}
		distance := levenshtein.ComputeDistance(wanted, strings.ToLower(candidate))
		if distance > maxSuggestionDistance {
			continue
		}
		matches = append(matches, scored{path: candidate, distance: distance})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}

	out := make([]string, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.path)
	}
	return out
}
