package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *DocumentRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, filter *storage.DocumentFilter) ([]*core.ScoredDocument, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, filter)
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments adds one or more documents to storage.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			doc.Id = core.ID(nextID)

			if doc.UploadedAt.IsZero() {
				doc.UploadedAt = time.Now().UTC()
			}
			doc.UpdatedAt = doc.UploadedAt

			if err := r.writeDocument(tx, doc); err != nil {
				return err
			}

			// Update date index
			dateKey := makeDocumentDateKey(doc.UploadedAt, doc.Id)
			if err := tx.Set(dateKey, storage.MarshalID(doc.Id)); err != nil {
				return err
			}

			// Update entity index
			if err := r.updateEntityIndex(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// UpdateDocuments updates existing documents.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			key := makeDocumentKey(doc.Id)

			// Read old document to detect index changes
			old, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			doc.UpdatedAt = time.Now().UTC()

			if err := r.writeDocument(tx, doc); err != nil {
				return err
			}

			// Update date index if upload time changed
			if !old.UploadedAt.Equal(doc.UploadedAt) {
				oldDateKey := makeDocumentDateKey(old.UploadedAt, old.Id)
				if err := tx.Delete(oldDateKey); err != nil {
					return err
				}
				newDateKey := makeDocumentDateKey(doc.UploadedAt, doc.Id)
				if err := tx.Set(newDateKey, storage.MarshalID(doc.Id)); err != nil {
					return err
				}
			}

			// Update entity index if entities changed
			if !entitiesEqual(old.Entities(), doc.Entities()) {
				if err := r.deleteEntityIndex(tx, old); err != nil {
					return err
				}
				if err := r.updateEntityIndex(tx, doc); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)

			// Read document to get metadata for index cleanup
			doc, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return storage.ErrNotFound
			}

			// Delete from date index
			dateKey := makeDocumentDateKey(doc.UploadedAt, doc.Id)
			if err := tx.Delete(dateKey); err != nil {
				return err
			}

			// Delete from entity index
			if err := r.deleteEntityIndex(tx, doc); err != nil {
				return err
			}

			// Delete primary record
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		var err error
		result, err = r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)
			doc, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments retrieves documents matching the filter, walking the
// upload date index so results come back in upload order.
func (r *DocumentRepository) ListDocuments(ctx context.Context, filter *storage.DocumentFilter) ([]*core.Document, error) {
	startTime := time.Time{}
	if filter != nil && !filter.UploadedFrom.IsZero() {
		startTime = filter.UploadedFrom
	}

	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialDocumentDateKey(startTime)
		prefix := []byte(documentDatePrefix + ":")

		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			// Read the ID from the index
			var docID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				docID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full document
			doc, err := r.readDocument(tx, makeDocumentKey(docID))
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}

			if filter != nil && !filter.UploadedTo.IsZero() && !doc.UploadedAt.Before(filter.UploadedTo) {
				break
			}
			if !matchesFilter(doc, filter) {
				continue
			}
			results = append(results, doc)
		}
		return nil
	}, false)

	return results, err
}

// GetDocumentIDsByEntity retrieves IDs of documents whose entities
// contain the (category, value) pair.
func (r *DocumentRepository) GetDocumentIDsByEntity(ctx context.Context, category, value string) ([]core.ID, error) {
	var docIDs []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialDocumentEntityKey(category, value)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			// Check if key still has our entityID prefix
			if len(key) < len(startKey) {
				break
			}
			if slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			// Read the docID from the value
			var docID core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				docID, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}
			docIDs = append(docIDs, docID)
		}
		return nil
	}, false)

	return docIDs, err
}

// TransitionToProcessing atomically claims documents for processing.
// All documents are checked before any is modified, so a batch with one
// conflicting document changes nothing.
func (r *DocumentRepository) TransitionToProcessing(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var claimed []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		docs := make([]*core.Document, 0, len(ids))
		for _, id := range ids {
			doc, err := r.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc == nil {
				return storage.ErrNotFound
			}
			if !doc.State.CanTransition(core.StateProcessing) {
				return storage.ErrConflict
			}
			docs = append(docs, doc)
		}

		now := time.Now().UTC()
		for _, doc := range docs {
			doc.State = core.StateProcessing
			doc.ErrorDetail = ""
			doc.Metadata.Error = nil
			doc.UpdatedAt = now
			if err := r.writeDocument(tx, doc); err != nil {
				return err
			}
		}

		claimed = docs
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Helper methods

// readDocument reads a document from the transaction.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// writeDocument stores a document under its primary key.
func (r *DocumentRepository) writeDocument(tx *badger.Txn, doc *core.Document) error {
	value, err := storage.MarshalDocument(doc)
	if err != nil {
		return err
	}
	return tx.Set(makeDocumentKey(doc.Id), value)
}

// updateEntityIndex adds entity index entries for a document.
func (r *DocumentRepository) updateEntityIndex(tx *badger.Txn, doc *core.Document) error {
	return forEachEntity(doc, func(category, value string) error {
		key := makeDocumentEntityKey(category, value, doc.Id)
		return tx.Set(key, storage.MarshalID(doc.Id))
	})
}

// deleteEntityIndex removes entity index entries for a document.
func (r *DocumentRepository) deleteEntityIndex(tx *badger.Txn, doc *core.Document) error {
	return forEachEntity(doc, func(category, value string) error {
		key := makeDocumentEntityKey(category, value, doc.Id)
		return tx.Delete(key)
	})
}

// forEachEntity visits every (category, value) pair in the document's
// entity bag.
func forEachEntity(doc *core.Document, fn func(category, value string) error) error {
	bag := doc.Entities()
	for _, category := range core.EntityCategories {
		for _, value := range bag.Category(category) {
			if err := fn(category, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// entitiesEqual compares two entity bags for equality.
func entitiesEqual(a, b *core.EntityBag) bool {
	for _, category := range core.EntityCategories {
		if !slices.Equal(a.Category(category), b.Category(category)) {
			return false
		}
	}
	return true
}
