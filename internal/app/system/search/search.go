// internal/app/system/search/search.go

// Package search implements the member-side feed filter: a naive
// case-insensitive substring match over a post's title and content.
// This is deliberately not ranked search; it filters an already-ordered
// feed without changing its order.
package search

import "strings"

// MatchPost reports whether a post with the given title and content
// matches the query. An empty (or whitespace-only) query matches
// everything.
func MatchPost(query, title, content string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), q) ||
		strings.Contains(strings.ToLower(content), q)
}
