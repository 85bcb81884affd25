package mock

import (
	"context"
	"strings"
)

// MockClassifier is a test double for ai.Classifier.
// It allows custom behavior injection via function fields.
type MockClassifier struct {
	// ClassifyFunc is called by Classify if set.
	// If nil, uses default keyword-based classification.
	ClassifyFunc func(ctx context.Context, text string) (string, error)

	callCount int
}

// NewMockClassifier creates a mock classifier with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockClassifier().
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// Classify assigns a document type label based on simple keyword matching.
// Default behavior mirrors the Italian terms the production classifier
// is prompted with.
func (m *MockClassifier) Classify(ctx context.Context, text string) (string, error) {
	m.callCount++

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "decreto"):
		return "decree", nil
	case strings.Contains(lower, "ingiunzione"):
		return "injunction", nil
	case strings.Contains(lower, "sentenza"):
		return "judgment", nil
	case strings.Contains(lower, "perizia"), strings.Contains(lower, "ctu"):
		return "expert-report", nil
	default:
		return "other", nil
	}
}

// CallCount returns the number of times any method was called.
func (m *MockClassifier) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockClassifier) Reset() {
	m.callCount = 0
	m.ClassifyFunc = nil
}
