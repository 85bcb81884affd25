package mock

import (
	"context"
	"strings"

	"github.com/poiesic/archivist/ai"
)

// MockEntityExtractor is a test double for ai.EntityExtractor.
// It allows custom behavior injection via function fields.
type MockEntityExtractor struct {
	// ExtractEntitiesFunc is called by ExtractEntities if set.
	// If nil, uses default heuristic extraction.
	ExtractEntitiesFunc func(ctx context.Context, text string) (*ai.ExtractedEntities, error)

	callCount int
}

// NewMockEntityExtractor creates a mock entity extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockEntityExtractor() *MockEntityExtractor {
	return &MockEntityExtractor{}
}

// ExtractEntities extracts simple mock entities from text.
// Default behavior: treats consecutive capitalized words as person names,
// up to 5, leaving the other categories empty.
func (m *MockEntityExtractor) ExtractEntities(ctx context.Context, text string) (*ai.ExtractedEntities, error) {
	m.callCount++

	if m.ExtractEntitiesFunc != nil {
		return m.ExtractEntitiesFunc(ctx, text)
	}

	entities := &ai.ExtractedEntities{
		Persons:       []string{},
		Organizations: []string{},
		Places:        []string{},
		Dates:         []string{},
		Amounts:       []string{},
		LegalRefs:     []string{},
	}

	words := strings.Fields(text)
	var name []string
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word != "" && word[0] >= 'A' && word[0] <= 'Z' {
			name = append(name, word)
			continue
		}
		if len(name) >= 2 && len(entities.Persons) < 5 {
			entities.Persons = append(entities.Persons, strings.Join(name, " "))
		}
		name = nil
	}
	if len(name) >= 2 && len(entities.Persons) < 5 {
		entities.Persons = append(entities.Persons, strings.Join(name, " "))
	}

	return entities, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEntityExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockEntityExtractor) Reset() {
	m.callCount = 0
	m.ExtractEntitiesFunc = nil
}
