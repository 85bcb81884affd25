package archivist

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/poiesic/archivist/ai/mock"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/extract"
	"github.com/poiesic/archivist/search"
	"github.com/poiesic/archivist/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileEngine reads the file back as its extracted text, so uploaded
// content flows through processing unchanged.
type fileEngine struct{}

func (fileEngine) PDFText(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (e fileEngine) PDFOCR(ctx context.Context, path string) (string, error) {
	return "", nil
}

func (e fileEngine) ImageOCR(ctx context.Context, path string) (string, error) {
	return e.PDFText(ctx, path)
}

func setupArchive(t *testing.T) *Archive {
	t.Helper()

	archive, err := NewArchive(t.TempDir(), t.TempDir(),
		WithAIProvider(mock.NewMockProvider()),
		WithExtractionEngine(fileEngine{}),
		WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	return archive
}

func waitForState(t *testing.T, archive *Archive, id core.ID, want core.ProcessingState) *core.Document {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		doc, err := archive.GetDocument(context.Background(), id)
		require.NoError(t, err)
		if doc.State == want {
			return doc
		}
		if time.Now().After(deadline) {
			t.Fatalf("document %d did not reach %s, state=%s", id, want, doc.State)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestUploadDocument(t *testing.T) {
	archive := setupArchive(t)
	ctx := context.Background()

	doc, err := archive.UploadDocument(ctx, "decreto.txt", []byte("decreto ingiuntivo"), "")
	require.NoError(t, err)

	assert.NotZero(t, doc.Id)
	assert.Equal(t, "decreto.txt", doc.Filename)
	assert.Equal(t, core.TypeOther, doc.Type)
	assert.Equal(t, core.StatePending, doc.State)
	assert.NotEmpty(t, doc.File.SHA256)
	assert.FileExists(t, doc.File.Path)
}

func TestUploadStripsPathComponents(t *testing.T) {
	archive := setupArchive(t)

	doc, err := archive.UploadDocument(context.Background(),
		"../../etc/sentenza.txt", []byte("testo"), core.TypeJudgment)
	require.NoError(t, err)
	assert.Equal(t, "sentenza.txt", doc.Filename)
}

func TestUploadUnsupportedFormat(t *testing.T) {
	archive := setupArchive(t)

	_, err := archive.UploadDocument(context.Background(), "virus.exe", []byte("x"), "")
	assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)
}

func TestUploadEmptyFilename(t *testing.T) {
	archive := setupArchive(t)

	_, err := archive.UploadDocument(context.Background(), "  ", []byte("x"), "")
	assert.ErrorIs(t, err, core.ErrEmptyFilename)
}

func TestUploadInvalidType(t *testing.T) {
	archive := setupArchive(t)

	_, err := archive.UploadDocument(context.Background(), "a.txt", []byte("x"), "contratto")
	assert.ErrorIs(t, err, core.ErrUnknownDocumentType)
}

func TestAnalysisLifecycle(t *testing.T) {
	archive := setupArchive(t)
	ctx := context.Background()

	doc, err := archive.UploadDocument(ctx, "sentenza.txt",
		[]byte("sentenza del Tribunale di Milano contro Mario Rossi"), "")
	require.NoError(t, err)

	claimed, err := archive.TriggerAnalysis(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StateProcessing, claimed.State)

	done := waitForState(t, archive, doc.Id, core.StateCompleted)
	assert.Equal(t, core.TypeJudgment, done.Type)
	assert.NotEmpty(t, done.Text)
	assert.NotEmpty(t, done.Vector)
	assert.NotEmpty(t, done.Metadata.Summary)

	entities, err := archive.GetEntities(ctx, doc.Id)
	require.NoError(t, err)
	assert.Contains(t, entities.Persons, "Mario Rossi")
}

func TestGetEntitiesBeforeAnalysis(t *testing.T) {
	archive := setupArchive(t)
	ctx := context.Background()

	doc, err := archive.UploadDocument(ctx, "nuovo.txt", []byte("non ancora analizzato"), "")
	require.NoError(t, err)

	_, err = archive.GetEntities(ctx, doc.Id)
	assert.ErrorIs(t, err, ErrEntitiesNotExtracted)
}

func TestBatchAnalysis(t *testing.T) {
	archive := setupArchive(t)
	ctx := context.Background()

	a, err := archive.UploadDocument(ctx, "a.txt", []byte("decreto uno"), "")
	require.NoError(t, err)
	b, err := archive.UploadDocument(ctx, "b.txt", []byte("decreto due"), "")
	require.NoError(t, err)

	claimed, err := archive.TriggerBatchAnalysis(ctx, a.Id, b.Id)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	waitForState(t, archive, a.Id, core.StateCompleted)
	waitForState(t, archive, b.Id, core.StateCompleted)
}

func TestListDocuments(t *testing.T) {
	archive := setupArchive(t)
	ctx := context.Background()

	_, err := archive.UploadDocument(ctx, "a.txt", []byte("uno"), core.TypeDecree)
	require.NoError(t, err)
	_, err = archive.UploadDocument(ctx, "b.txt", []byte("due"), core.TypeJudgment)
	require.NoError(t, err)

	all, err := archive.ListDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	decrees, err := archive.ListDocuments(ctx, &storage.DocumentFilter{Type: core.TypeDecree})
	require.NoError(t, err)
	require.Len(t, decrees, 1)
	assert.Equal(t, "a.txt", decrees[0].Filename)
}

func TestDeleteDocument(t *testing.T) {
	archive := setupArchive(t)
	ctx := context.Background()

	doc, err := archive.UploadDocument(ctx, "via.txt", []byte("da cancellare"), "")
	require.NoError(t, err)
	path := doc.File.Path

	require.NoError(t, archive.DeleteDocument(ctx, doc.Id))

	_, err = archive.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoFileExists(t, path)
}

func TestSearchFindsProcessedDocument(t *testing.T) {
	archive := setupArchive(t)
	ctx := context.Background()

	doc, err := archive.UploadDocument(ctx, "sentenza.txt",
		[]byte("sentenza di condanna al pagamento"), "")
	require.NoError(t, err)
	_, err = archive.TriggerAnalysis(ctx, doc.Id)
	require.NoError(t, err)
	waitForState(t, archive, doc.Id, core.StateCompleted)

	// The mock embedder is deterministic, so the exact text matches itself
	results, err := archive.Search(ctx, "sentenza di condanna al pagamento", nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results.Hits)
	assert.Equal(t, doc.Id, results.Hits[0].Document.Id)
}

func TestAggregateAndTimeline(t *testing.T) {
	archive := setupArchive(t)
	ctx := context.Background()

	doc, err := archive.UploadDocument(ctx, "decreto.txt",
		[]byte("decreto ingiuntivo per EUR 1.000,00"), "")
	require.NoError(t, err)
	_, err = archive.TriggerAnalysis(ctx, doc.Id)
	require.NoError(t, err)
	waitForState(t, archive, doc.Id, core.StateCompleted)

	groups, err := archive.Aggregate(ctx, search.GroupByType, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Count)

	buckets, err := archive.Timeline(ctx, search.GranularityYear, nil)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, 1, buckets[0].Count)
}

func TestExportDocument(t *testing.T) {
	archive := setupArchive(t)
	ctx := context.Background()

	doc, err := archive.UploadDocument(ctx, "perizia.txt", []byte("relazione del perito"), "")
	require.NoError(t, err)
	_, err = archive.TriggerAnalysis(ctx, doc.Id)
	require.NoError(t, err)
	waitForState(t, archive, doc.Id, core.StateCompleted)

	text, err := archive.ExportDocument(ctx, doc.Id, ExportText)
	require.NoError(t, err)
	assert.Equal(t, "relazione del perito", string(text))

	data, err := archive.ExportDocument(ctx, doc.Id, ExportJSON)
	require.NoError(t, err)
	var exported core.Document
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Equal(t, doc.Id, exported.Id)

	_, err = archive.ExportDocument(ctx, doc.Id, "xml")
	assert.ErrorIs(t, err, ErrUnknownExportFormat)
}

func TestSweepCache(t *testing.T) {
	archive := setupArchive(t)
	ctx := context.Background()

	removed, err := archive.SweepCache(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCloseReleasesCleanly(t *testing.T) {
	archive, err := NewArchive(t.TempDir(), t.TempDir(),
		WithAIProvider(mock.NewMockProvider()),
		WithExtractionEngine(fileEngine{}))
	require.NoError(t, err)
	assert.NoError(t, archive.Close())
}
