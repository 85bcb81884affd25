package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/archivist/core"
)

// Key prefixes for different data types
const (
	documentPrefix       = "docrec"
	documentDatePrefix   = "docrecd"
	documentEntityPrefix = "docrece"
	documentIDSeq        = "docrecseq"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentDateKey generates a composite key for the upload date index.
// Format: prefix:timestamp:id
func makeDocumentDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := documentDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialDocumentDateKey(timestamp time.Time) []byte {
	prefix := documentDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Pre-epoch bounds (including the zero time) would go negative and
	// wrap to a huge unsigned value that sorts after every real key, so
	// clamp them to the start of the index.
	micros := timestamp.UnixMicro()
	if micros < 0 {
		micros = 0
	}
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(micros))
	return buf
}

// makeDocumentEntityKey generates a composite key for the entity index.
// The entity (category, value) tuple is reduced to a content-based ID so
// keys stay fixed-width regardless of entity text length.
// Format: prefix:entityID:documentID
func makeDocumentEntityKey(category, value string, docID core.ID) []byte {
	entityID := core.IDFromContent(core.EntityTuple(category, value))
	prefix := documentEntityPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for entityID + 8 bytes for docID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(entityID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	return buf
}

// makePartialDocumentEntityKey generates a partial key for entity queries.
// Format: prefix:entityID
func makePartialDocumentEntityKey(category, value string) []byte {
	entityID := core.IDFromContent(core.EntityTuple(category, value))
	prefix := documentEntityPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for entityID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(entityID))
	return buf
}
