package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSONMissingOpeningQuote(t *testing.T) {
	broken := `{persons": ["Mario Rossi"], dates": []}`

	fixed := repairJSON(broken)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(fixed), &result))
	assert.Contains(t, result, "persons")
	assert.Contains(t, result, "dates")
}

func TestRepairJSONLeavesValidJSONAlone(t *testing.T) {
	valid := `{"persons": ["Mario Rossi"], "amounts": ["1.234,56"]}`

	assert.Equal(t, valid, repairJSON(valid))
}

func TestStripCodeFences(t *testing.T) {
	fenced := "```json\n{\"search_text\": \"decreto\"}\n```"

	assert.Equal(t, `{"search_text": "decreto"}`, stripCodeFences(fenced))
}

func TestStripCodeFencesPlainText(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, stripCodeFences(`{"a": 1}`))
}
