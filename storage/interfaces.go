package storage

import (
	"context"
	"time"

	"github.com/poiesic/archivist/core"
)

// DocumentFilter narrows repository queries along structural
// dimensions. Zero-valued fields are ignored.
type DocumentFilter struct {
	// Type restricts results to one document type.
	Type core.DocumentType

	// State restricts results to one processing state.
	State core.ProcessingState

	// UploadedFrom is the inclusive lower bound on the upload time.
	UploadedFrom time.Time

	// UploadedTo is the exclusive upper bound on the upload time.
	UploadedTo time.Time
}

// Repository provides common storage operations shared across repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds documents whose vectors score at or above
	// minSimilarity against the given vector, restricted by filter
	// (nil means no restriction). Only documents with embeddings are
	// considered. Results are ordered by similarity score, highest first.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, filter *DocumentFilter) ([]*core.ScoredDocument, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository

	// AddDocuments adds one or more documents to storage.
	// Generates new IDs from sequence and sets UploadedAt and UpdatedAt
	// if not already set. Returns the documents with IDs and timestamps
	// populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing ones).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// ListDocuments retrieves documents matching the filter (nil means
	// all), ordered by upload time ascending.
	ListDocuments(ctx context.Context, filter *DocumentFilter) ([]*core.Document, error)

	// GetDocumentIDsByEntity retrieves IDs of documents whose extracted
	// entities contain the given (category, value) pair.
	GetDocumentIDsByEntity(ctx context.Context, category, value string) ([]core.ID, error)

	// TransitionToProcessing atomically moves the given documents from a
	// non-processing state into the processing state. The whole batch
	// succeeds or fails together: if any document is missing this
	// returns ErrNotFound, and if any is already being processed this
	// returns ErrConflict, in both cases without changing anything.
	// Error details from a previous failed run are cleared.
	TransitionToProcessing(ctx context.Context, ids ...core.ID) ([]*core.Document, error)
}

// FileStore persists uploaded document files.
type FileStore interface {
	// Save writes content to the store under a generated name and
	// returns a descriptor with the storage path, content hash, and size.
	Save(ctx context.Context, filename string, content []byte) (*core.FileDescriptor, error)

	// Read returns the content of a previously saved file.
	Read(ctx context.Context, descriptor *core.FileDescriptor) ([]byte, error)

	// Remove deletes a previously saved file.
	Remove(ctx context.Context, descriptor *core.FileDescriptor) error
}
