// Package storage defines the persistence interfaces for documents and
// their uploaded files.
//
// The DocumentRepository interface covers document records, their
// secondary indexes, and linear-scan vector similarity search; the
// FileStore interface covers the raw uploaded bytes. Concrete
// implementations live in subpackages: storage/badger for the document
// store and storage/localfile for files on disk.
//
// Repositories are responsible for index maintenance: callers mutate
// documents through the repository and never touch index entries
// directly.
package storage
