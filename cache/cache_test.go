package cache

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFormat(t *testing.T) {
	key := Key("entities", "testo del documento")

	parts := strings.SplitN(key, "_", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, "entities", parts[0])
	assert.Len(t, parts[1], 64) // hex sha256
}

func TestKeyDependsOnTextOnly(t *testing.T) {
	assert.Equal(t, Key("summary", "abc"), Key("summary", "abc"))
	assert.NotEqual(t, Key("summary", "abc"), Key("summary", "abd"))
	assert.NotEqual(t, Key("summary", "abc"), Key("entities", "abc"))
}

func TestSetAndGet(t *testing.T) {
	m := NewManager(nil)
	doc := &core.Document{Id: 1}

	require.NoError(t, m.Set(doc, "entities", "testo", map[string][]string{
		"persons": {"Mario Rossi"},
	}))

	result, ok := m.Get(doc, "entities", "testo")
	require.True(t, ok)

	var payload map[string][]string
	require.NoError(t, json.Unmarshal(result, &payload))
	assert.Equal(t, []string{"Mario Rossi"}, payload["persons"])

	entry := doc.Metadata.Cache[Key("entities", "testo")]
	assert.Equal(t, Version, entry.Version)
}

func TestGetMissOnDifferentText(t *testing.T) {
	m := NewManager(nil)
	doc := &core.Document{Id: 1}

	require.NoError(t, m.Set(doc, "entities", "vecchio testo", "risultato"))

	_, ok := m.Get(doc, "entities", "nuovo testo")
	assert.False(t, ok)
}

func TestGetExpiredEntryIsMiss(t *testing.T) {
	current := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(nil, WithClock(func() time.Time { return current }))
	doc := &core.Document{Id: 1}

	require.NoError(t, m.Set(doc, "summary", "testo", "sintesi"))

	// Just inside the TTL
	current = current.Add(DefaultTTL - time.Second)
	_, ok := m.Get(doc, "summary", "testo")
	assert.True(t, ok)

	// At the TTL boundary the entry is stale
	current = current.Add(time.Second)
	_, ok = m.Get(doc, "summary", "testo")
	assert.False(t, ok)
}

func TestInvalidateByOperation(t *testing.T) {
	m := NewManager(nil)
	doc := &core.Document{Id: 1}

	require.NoError(t, m.Set(doc, "entities", "testo", "a"))
	require.NoError(t, m.Set(doc, "summary", "testo", "b"))

	removed := m.Invalidate(doc, "entities")
	assert.Equal(t, 1, removed)

	_, ok := m.Get(doc, "entities", "testo")
	assert.False(t, ok)
	_, ok = m.Get(doc, "summary", "testo")
	assert.True(t, ok)
}

func TestInvalidateAll(t *testing.T) {
	m := NewManager(nil)
	doc := &core.Document{Id: 1}

	require.NoError(t, m.Set(doc, "entities", "testo", "a"))
	require.NoError(t, m.Set(doc, "summary", "testo", "b"))

	assert.Equal(t, 2, m.Invalidate(doc, ""))
	assert.Empty(t, doc.Metadata.Cache)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	defer repo.Close()

	ctx := context.Background()
	current := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(repo, WithClock(func() time.Time { return current }))

	doc := &core.Document{Filename: "atto.pdf", Type: core.TypeOther, State: core.StateCompleted}
	require.NoError(t, m.Set(doc, "entities", "vecchio", "stale"))

	current = current.Add(DefaultTTL + time.Minute)
	require.NoError(t, m.Set(doc, "summary", "nuovo", "fresh"))

	docs, err := repo.AddDocuments(ctx, doc)
	require.NoError(t, err)

	removed, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := repo.GetDocument(ctx, docs[0].Id)
	require.NoError(t, err)
	assert.Len(t, got.Metadata.Cache, 1)
	_, ok := m.Get(got, "summary", "nuovo")
	assert.True(t, ok)
}
