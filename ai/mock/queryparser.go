package mock

import (
	"context"

	"github.com/poiesic/archivist/ai"
)

// MockQueryParser is a test double for ai.QueryParser.
// It allows custom behavior injection via function fields.
type MockQueryParser struct {
	// ParseQueryFunc is called by ParseQuery if set.
	// If nil, uses default passthrough behavior.
	ParseQueryFunc func(ctx context.Context, query string) (*ai.ParsedQuery, error)

	callCount int
}

// NewMockQueryParser creates a mock query parser with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockQueryParser().
func NewMockQueryParser() *MockQueryParser {
	return &MockQueryParser{}
}

// ParseQuery returns the raw query as the search text with no filters.
func (m *MockQueryParser) ParseQuery(ctx context.Context, query string) (*ai.ParsedQuery, error) {
	m.callCount++

	if m.ParseQueryFunc != nil {
		return m.ParseQueryFunc(ctx, query)
	}

	return &ai.ParsedQuery{SearchText: query}, nil
}

// CallCount returns the number of times any method was called.
func (m *MockQueryParser) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockQueryParser) Reset() {
	m.callCount = 0
	m.ParseQueryFunc = nil
}
