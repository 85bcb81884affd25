package storage

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/poiesic/archivist/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	id := core.ID(0xDEADBEEF12345678)

	got, err := UnmarshalID(MarshalID(id))

	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestUnmarshalIDTruncated(t *testing.T) {
	_, err := UnmarshalID([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestMarshalIDSortsLexicographically(t *testing.T) {
	// Index keys embed IDs; BigEndian keeps byte order aligned with
	// numeric order.
	low := MarshalID(core.ID(5))
	high := MarshalID(core.ID(1 << 40))

	assert.Equal(t, -1, bytes.Compare(low, high))
}

func TestDocumentRoundTripPreservesCachePayload(t *testing.T) {
	uploaded := time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC)
	doc := &core.Document{
		Id:       42,
		Filename: "decreto.pdf",
		Type:     core.TypeDecree,
		Text:     "testo del decreto",
		Vector:   []float32{0.1, 0.2, 0.3},
		Metadata: core.Metadata{
			Entities: &core.EntityBag{
				Persons: []string{"Mario Rossi"},
				Amounts: []string{"1.234,56"},
			},
			Summary: "sintesi",
			Cache: map[string]core.CacheEntry{
				"entities_abc": {
					Result:    json.RawMessage(`{"persons":["Mario Rossi"]}`),
					Timestamp: uploaded,
					Version:   "1.0",
				},
			},
		},
		State:      core.StateCompleted,
		UploadedAt: uploaded,
	}

	data, err := MarshalDocument(doc)
	require.NoError(t, err)

	got, err := UnmarshalDocument(data)
	require.NoError(t, err)

	assert.Equal(t, doc.Id, got.Id)
	assert.Equal(t, doc.Vector, got.Vector)
	assert.Equal(t, doc.Metadata.Entities.Persons, got.Metadata.Entities.Persons)
	assert.JSONEq(t, string(doc.Metadata.Cache["entities_abc"].Result), string(got.Metadata.Cache["entities_abc"].Result))
	assert.True(t, got.UploadedAt.Equal(uploaded))
}

func TestUnmarshalDocumentGarbage(t *testing.T) {
	_, err := UnmarshalDocument([]byte("not json"))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
