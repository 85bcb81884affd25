package pipeline

import "errors"

var (
	// ErrRepositoryRequired indicates a nil document repository was passed.
	ErrRepositoryRequired = errors.New("document repository is required")

	// ErrExtractorRequired indicates a nil text extractor was passed.
	ErrExtractorRequired = errors.New("text extractor is required")

	// ErrAIProviderRequired indicates a nil AI provider was passed.
	ErrAIProviderRequired = errors.New("AI provider is required")

	// ErrCacheRequired indicates a nil cache manager was passed.
	ErrCacheRequired = errors.New("cache manager is required")

	// ErrAlreadyProcessing indicates the document is currently being
	// processed by another run.
	ErrAlreadyProcessing = errors.New("document is already being processed")

	// ErrEmptyText indicates extraction produced no text to analyze.
	ErrEmptyText = errors.New("document produced no text")

	// ErrNotClaimed indicates a processing run was started on a document
	// that was never claimed via a state transition.
	ErrNotClaimed = errors.New("document is not claimed for processing")
)
