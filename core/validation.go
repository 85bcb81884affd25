package core

import "fmt"

// ValidateDocument checks the structural invariants of a document.
func ValidateDocument(d *Document) error {
	if d == nil {
		return ErrInvalidDocument
	}
	if d.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}
	if _, err := ParseDocumentType(string(d.Type)); err != nil {
		return fmt.Errorf("%w: %w %q", ErrInvalidDocument, ErrUnknownDocumentType, d.Type)
	}
	switch d.State {
	case StatePending, StateProcessing, StateCompleted, StateError:
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidDocument, ErrUnknownState, d.State)
	}
	if d.State == StateError && d.ErrorDetail == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrMissingErrorDetail)
	}
	return nil
}
