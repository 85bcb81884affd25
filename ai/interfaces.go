package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EntityExtractor extracts structured entities from document text.
// Implementations must be thread-safe for concurrent use.
type EntityExtractor interface {
	// ExtractEntities analyzes text and returns the named entities and
	// typed values found in it: persons, organizations, places, dates,
	// monetary amounts, and legal references. Lists are deduplicated
	// and sorted. Returns an empty bag if nothing is found.
	ExtractEntities(ctx context.Context, text string) (*ExtractedEntities, error)
}

// Classifier assigns a document type label to text.
type Classifier interface {
	// Classify returns one of the labels in DocumentTypeLabels for the
	// given text. Returns an error if classification fails.
	Classify(ctx context.Context, text string) (string, error)
}

// Summarizer produces a concise summary of document text.
type Summarizer interface {
	// Summarize returns a short summary covering the subject, the
	// parties involved, the main conclusions, and relevant dates.
	Summarize(ctx context.Context, text string) (string, error)
}

// QueryParser translates a natural-language query into structured
// search parameters.
type QueryParser interface {
	// ParseQuery interprets the query and returns the extracted search
	// parameters. Unknown or malformed fields in the model response are
	// dropped; a completely unparsable response is an error, which
	// callers recover from by searching the raw query text.
	ParseQuery(ctx context.Context, query string) (*ParsedQuery, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages service
// instances that share configuration and resources.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// EntityExtractor returns the entity extraction service.
	EntityExtractor() EntityExtractor

	// Classifier returns the document classification service.
	Classifier() Classifier

	// Summarizer returns the summary generation service.
	Summarizer() Summarizer

	// QueryParser returns the natural-language query parsing service.
	QueryParser() QueryParser

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
