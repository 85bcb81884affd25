package openai

import "strings"

// truncateForModel caps text at maxChars to stay within the model's
// input budget, cutting at a rune boundary.
func truncateForModel(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}

// normalizeForEmbedding collapses newlines into spaces and trims
// whitespace before embedding.
func normalizeForEmbedding(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// stripCodeFences removes markdown code fences the model sometimes
// wraps around JSON output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
