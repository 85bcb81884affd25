package search

import (
	"strings"
	"unicode/utf8"
)

const (
	// highlightContext is how many characters of surrounding text each
	// highlight keeps on both sides of the match.
	highlightContext = 100

	// maxHighlights caps the number of fragments per document.
	maxHighlights = 3
)

// makeHighlights returns up to maxHighlights text fragments around
// case-insensitive occurrences of the query, each padded with
// surrounding context and ellipsized where cut.
func makeHighlights(text, query string) []string {
	query = strings.TrimSpace(query)
	if text == "" || query == "" {
		return nil
	}

	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)

	var highlights []string
	pos := 0
	for len(highlights) < maxHighlights {
		idx := strings.Index(lowerText[pos:], lowerQuery)
		if idx < 0 {
			break
		}
		idx += pos

		start := idx - highlightContext
		if start < 0 {
			start = 0
		}
		end := idx + len(query) + highlightContext
		if end > len(text) {
			end = len(text)
		}
		// The context window is byte-based; don't cut a rune in half
		for start > 0 && !utf8.RuneStart(text[start]) {
			start--
		}
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end++
		}

		fragment := text[start:end]
		if start > 0 {
			fragment = "..." + fragment
		}
		if end < len(text) {
			fragment = fragment + "..."
		}
		highlights = append(highlights, fragment)

		// Advance past this occurrence
		pos = idx + len(query)
	}

	return highlights
}
