package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "decree", normalizeLabel(" Decree.\n"))
	assert.Equal(t, "judgment", normalizeLabel(`"judgment"`))
	assert.Equal(t, "expert-report", normalizeLabel("expert-report"))
}

func TestPreviewWords(t *testing.T) {
	text := "uno due tre quattro cinque"

	assert.Equal(t, "uno due tre", previewWords(text, 3))
	assert.Equal(t, text, previewWords(text, 10))
}

func TestPreviewWordsLongDocument(t *testing.T) {
	long := strings.Repeat("parola ", 2000)

	preview := previewWords(long, classifyPreviewWords)

	assert.Len(t, strings.Fields(preview), classifyPreviewWords)
}
