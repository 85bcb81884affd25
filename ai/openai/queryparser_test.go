package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDate(t *testing.T) {
	assert.Equal(t, "2023-01-15", validDate("2023-01-15"))
	assert.Equal(t, "", validDate("15/01/2023"))
	assert.Equal(t, "", validDate("2023-13-40"))
	assert.Equal(t, "", validDate(""))
}

func TestIsKnownLabel(t *testing.T) {
	assert.True(t, isKnownLabel("decree"))
	assert.True(t, isKnownLabel("other"))
	assert.False(t, isKnownLabel("contract"))
	assert.False(t, isKnownLabel(""))
}
