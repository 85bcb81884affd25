package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/poiesic/archivist/ai"
	"github.com/poiesic/archivist/ai/mock"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
	"github.com/poiesic/archivist/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSearcher(t *testing.T) (*Searcher, storage.DocumentRepository, *mock.MockProvider) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	provider := mock.NewMockProvider().(*mock.MockProvider)
	searcher, err := NewSearcher(repo, provider)
	require.NoError(t, err)

	return searcher, repo, provider
}

// axisEmbedder makes queries embed along the first axis so document
// vectors can be placed at known similarities.
func axisEmbedder(provider *mock.MockProvider) {
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
}

func addCompletedDocument(t *testing.T, repo storage.DocumentRepository, doc *core.Document) *core.Document {
	t.Helper()
	doc.State = core.StateCompleted
	docs, err := repo.AddDocuments(context.Background(), doc)
	require.NoError(t, err)
	return docs[0]
}

func TestSearchRanksBySimilarity(t *testing.T) {
	searcher, repo, provider := setupSearcher(t)
	axisEmbedder(provider)
	ctx := context.Background()

	addCompletedDocument(t, repo, &core.Document{
		Filename: "rilevante.pdf", Type: core.TypeJudgment,
		Text:   "sentenza che riguarda Mario Rossi",
		Vector: []float32{0.95, 0.1, 0},
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename: "meno-rilevante.pdf", Type: core.TypeJudgment,
		Text:   "altra sentenza",
		Vector: []float32{0.75, 0.5, 0},
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename: "estraneo.pdf", Type: core.TypeDecree,
		Text:   "documento non pertinente",
		Vector: []float32{0.1, 0.9, 0},
	})

	results, err := searcher.Search(ctx, "Mario Rossi", nil, &Options{MinSimilarity: -1})
	require.NoError(t, err)

	require.Equal(t, 3, results.Total)
	assert.Equal(t, "rilevante.pdf", results.Hits[0].Document.Filename)
	assert.Equal(t, "meno-rilevante.pdf", results.Hits[1].Document.Filename)
	for _, hit := range results.Hits {
		assert.GreaterOrEqual(t, hit.Score, float32(-1))
		assert.LessOrEqual(t, hit.Score, float32(1.01))
	}
}

func TestSearchAppliesThreshold(t *testing.T) {
	searcher, repo, provider := setupSearcher(t)
	axisEmbedder(provider)
	ctx := context.Background()

	addCompletedDocument(t, repo, &core.Document{
		Filename: "forte.pdf", Text: "testo", Vector: []float32{0.9, 0, 0},
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename: "debole.pdf", Text: "testo", Vector: []float32{0.3, 0, 0},
	})

	results, err := searcher.Search(ctx, "ricerca", nil, nil)
	require.NoError(t, err)

	require.Equal(t, 1, results.Total)
	assert.Equal(t, "forte.pdf", results.Hits[0].Document.Filename)
}

func TestSearchSkipsUnprocessedDocuments(t *testing.T) {
	searcher, repo, provider := setupSearcher(t)
	axisEmbedder(provider)
	ctx := context.Background()

	pending := &core.Document{Filename: "in-coda.pdf", State: core.StatePending}
	_, err := repo.AddDocuments(ctx, pending)
	require.NoError(t, err)

	results, err := searcher.Search(ctx, "qualsiasi", nil, &Options{MinSimilarity: -1})
	require.NoError(t, err)
	assert.Zero(t, results.Total)
}

func TestSearchPagination(t *testing.T) {
	searcher, repo, provider := setupSearcher(t)
	axisEmbedder(provider)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		addCompletedDocument(t, repo, &core.Document{
			Filename: "doc.pdf", Text: "testo",
			Vector: []float32{1 - float32(i)*0.1, 0, 0},
		})
	}

	first, err := searcher.Search(ctx, "testo", nil, &Options{MinSimilarity: -1, Limit: 2})
	require.NoError(t, err)
	second, err := searcher.Search(ctx, "testo", nil, &Options{MinSimilarity: -1, Limit: 2, Offset: 2})
	require.NoError(t, err)

	assert.Equal(t, 5, first.Total)
	assert.Equal(t, 5, second.Total)
	require.Len(t, first.Hits, 2)
	require.Len(t, second.Hits, 2)

	seen := make(map[core.ID]bool)
	for _, hit := range append(first.Hits, second.Hits...) {
		assert.False(t, seen[hit.Document.Id], "pages must not overlap")
		seen[hit.Document.Id] = true
	}
}

func TestSearchTypeAndDateFilters(t *testing.T) {
	searcher, repo, provider := setupSearcher(t)
	axisEmbedder(provider)
	ctx := context.Background()

	addCompletedDocument(t, repo, &core.Document{
		Filename: "sentenza-2023.pdf", Type: core.TypeJudgment,
		Text: "sentenza", Vector: []float32{1, 0, 0},
		UploadedAt: time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC),
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename: "sentenza-2022.pdf", Type: core.TypeJudgment,
		Text: "sentenza", Vector: []float32{1, 0, 0},
		UploadedAt: time.Date(2022, 5, 10, 0, 0, 0, 0, time.UTC),
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename: "decreto-2023.pdf", Type: core.TypeDecree,
		Text: "decreto", Vector: []float32{1, 0, 0},
		UploadedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	results, err := searcher.Search(ctx, "sentenza", &Filters{
		Type:     core.TypeJudgment,
		DateFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, &Options{MinSimilarity: -1})
	require.NoError(t, err)

	require.Equal(t, 1, results.Total)
	assert.Equal(t, "sentenza-2023.pdf", results.Hits[0].Document.Filename)
}

func TestSearchEntityFilter(t *testing.T) {
	searcher, repo, provider := setupSearcher(t)
	axisEmbedder(provider)
	ctx := context.Background()

	addCompletedDocument(t, repo, &core.Document{
		Filename: "con-rossi.pdf", Text: "ricorso di Mario Rossi",
		Vector: []float32{1, 0, 0},
		Metadata: core.Metadata{Entities: &core.EntityBag{
			Persons: []string{"Mario Rossi"},
		}},
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename: "senza-rossi.pdf", Text: "altro ricorso",
		Vector: []float32{1, 0, 0},
		Metadata: core.Metadata{Entities: &core.EntityBag{
			Persons: []string{"Anna Bianchi"},
		}},
	})

	results, err := searcher.Search(ctx, "ricorso", &Filters{
		Entities: map[string][]string{"persons": {"Mario Rossi"}},
	}, &Options{MinSimilarity: -1})
	require.NoError(t, err)

	require.Equal(t, 1, results.Total)
	assert.Equal(t, "con-rossi.pdf", results.Hits[0].Document.Filename)
}

func TestSearchHighlightsAndContent(t *testing.T) {
	searcher, repo, provider := setupSearcher(t)
	axisEmbedder(provider)
	ctx := context.Background()

	text := strings.Repeat("x", 150) + " Mario Rossi " + strings.Repeat("y", 150)
	addCompletedDocument(t, repo, &core.Document{
		Filename: "lungo.pdf", Text: text, Vector: []float32{1, 0, 0},
	})

	results, err := searcher.Search(ctx, "mario rossi", nil, &Options{MinSimilarity: -1})
	require.NoError(t, err)
	require.Len(t, results.Hits, 1)

	// Lightweight pages carry neither content nor highlights
	hit := results.Hits[0]
	assert.Empty(t, hit.Document.Text)
	assert.Empty(t, hit.Highlights)

	withContent, err := searcher.Search(ctx, "mario rossi", nil, &Options{MinSimilarity: -1, IncludeContent: true})
	require.NoError(t, err)
	require.Len(t, withContent.Hits, 1)

	hit = withContent.Hits[0]
	assert.Equal(t, text, hit.Document.Text)
	require.Len(t, hit.Highlights, 1)
	assert.Contains(t, hit.Highlights[0], "Mario Rossi")
	assert.True(t, strings.HasPrefix(hit.Highlights[0], "..."))
	assert.True(t, strings.HasSuffix(hit.Highlights[0], "..."))
}

func TestSearchEmptyQuery(t *testing.T) {
	searcher, _, _ := setupSearcher(t)

	_, err := searcher.Search(context.Background(), "   ", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchNaturalAppliesParsedFilters(t *testing.T) {
	searcher, repo, provider := setupSearcher(t)
	axisEmbedder(provider)
	ctx := context.Background()

	addCompletedDocument(t, repo, &core.Document{
		Filename: "sentenza-rossi.pdf", Type: core.TypeJudgment,
		Text: "sentenza contro Mario Rossi", Vector: []float32{1, 0, 0},
		UploadedAt: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		Metadata: core.Metadata{Entities: &core.EntityBag{
			Persons: []string{"Mario Rossi"},
		}},
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename: "decreto.pdf", Type: core.TypeDecree,
		Text: "decreto ingiuntivo", Vector: []float32{1, 0, 0},
		UploadedAt: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
	})

	provider.GetMockQueryParser().ParseQueryFunc = func(ctx context.Context, query string) (*ai.ParsedQuery, error) {
		return &ai.ParsedQuery{
			SearchText: "Mario Rossi",
			DocType:    "judgment",
			DateStart:  "2023-01-01",
			DateEnd:    "2023-12-31",
			Entities:   map[string][]string{"persons": {"Mario Rossi"}},
		}, nil
	}

	results, err := searcher.SearchNatural(ctx, "sentenze del 2023 che riguardano Mario Rossi", &Options{MinSimilarity: -1})
	require.NoError(t, err)

	require.Equal(t, 1, results.Total)
	assert.Equal(t, "sentenza-rossi.pdf", results.Hits[0].Document.Filename)
}

func TestSearchNaturalFallsBackOnParserError(t *testing.T) {
	searcher, repo, provider := setupSearcher(t)
	axisEmbedder(provider)
	ctx := context.Background()

	addCompletedDocument(t, repo, &core.Document{
		Filename: "unico.pdf", Text: "testo", Vector: []float32{1, 0, 0},
	})

	provider.GetMockQueryParser().ParseQueryFunc = func(ctx context.Context, query string) (*ai.ParsedQuery, error) {
		return nil, errors.New("model returned garbage")
	}

	results, err := searcher.SearchNatural(ctx, "query incomprensibile", &Options{MinSimilarity: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, results.Total)
}

func TestMakeHighlightsCapsAtThree(t *testing.T) {
	text := strings.Repeat("ricorso e poi altro testo. ", 20)

	highlights := makeHighlights(text, "ricorso")

	assert.Len(t, highlights, 3)
}

func TestMakeHighlightsNoMatch(t *testing.T) {
	assert.Empty(t, makeHighlights("testo qualunque", "assente"))
}

func TestMakeHighlightsKeepsRunesWhole(t *testing.T) {
	// The leading "x" shifts the two-byte runes onto odd offsets, so
	// the byte-based context window lands mid-rune on both sides
	text := "x" + strings.Repeat("è", 150) + " condanna " + strings.Repeat("à", 150)

	highlights := makeHighlights(text, "condanna")

	require.Len(t, highlights, 1)
	assert.True(t, utf8.ValidString(highlights[0]))
	assert.Contains(t, highlights[0], "condanna")
}

func TestParseAmount(t *testing.T) {
	amount, ok := ParseAmount("1.234,56")
	require.True(t, ok)
	assert.InDelta(t, 1234.56, amount, 0.001)

	amount, ok = ParseAmount("50.000,00")
	require.True(t, ok)
	assert.InDelta(t, 50000.0, amount, 0.001)

	_, ok = ParseAmount("circa mille")
	assert.False(t, ok)
}

func TestAggregateByTypeWithAmounts(t *testing.T) {
	searcher, repo, _ := setupSearcher(t)
	ctx := context.Background()

	addCompletedDocument(t, repo, &core.Document{
		Filename: "a.pdf", Type: core.TypeDecree,
		Metadata: core.Metadata{Entities: &core.EntityBag{
			Amounts: []string{"1.234,56", "50.000,00", "non-un-importo"},
		}},
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename: "b.pdf", Type: core.TypeJudgment,
	})

	groups, err := searcher.Aggregate(ctx, GroupByType, nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	var decree *AggregateGroup
	for _, g := range groups {
		if g.Key == "decree" {
			decree = g
		}
	}
	require.NotNil(t, decree)
	assert.Equal(t, 1, decree.Count)
	assert.InDelta(t, 51234.56, decree.AmountTotal, 0.001)
	assert.InDelta(t, 25617.28, decree.AmountAvg, 0.001)
}

func TestAggregateByEntityCategory(t *testing.T) {
	searcher, repo, _ := setupSearcher(t)
	ctx := context.Background()

	addCompletedDocument(t, repo, &core.Document{
		Filename: "a.pdf",
		Metadata: core.Metadata{Entities: &core.EntityBag{
			Persons: []string{"Mario Rossi", "Anna Bianchi"},
		}},
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename: "b.pdf",
		Metadata: core.Metadata{Entities: &core.EntityBag{
			Persons: []string{"Mario Rossi"},
		}},
	})

	groups, err := searcher.Aggregate(ctx, "persons", nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Mario Rossi", groups[0].Key)
	assert.Equal(t, 2, groups[0].Count)
}

func TestAggregateUnknownGrouping(t *testing.T) {
	searcher, _, _ := setupSearcher(t)

	_, err := searcher.Aggregate(context.Background(), "colore", nil)
	assert.ErrorIs(t, err, ErrUnknownGrouping)
}

func TestAggregateByMonthChronological(t *testing.T) {
	searcher, repo, _ := setupSearcher(t)
	ctx := context.Background()

	// March is busier than January; period order must still win
	addCompletedDocument(t, repo, &core.Document{
		Filename:   "gennaio.pdf",
		UploadedAt: time.Date(2023, 1, 10, 9, 0, 0, 0, time.UTC),
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename:   "marzo-1.pdf",
		UploadedAt: time.Date(2023, 3, 5, 9, 0, 0, 0, time.UTC),
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename:   "marzo-2.pdf",
		UploadedAt: time.Date(2023, 3, 20, 9, 0, 0, 0, time.UTC),
	})

	groups, err := searcher.Aggregate(ctx, GroupByMonth, nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "2023-01", groups[0].Key)
	assert.Equal(t, 1, groups[0].Count)
	assert.Equal(t, "2023-03", groups[1].Key)
	assert.Equal(t, 2, groups[1].Count)
}

func TestAggregateResultsAverageScore(t *testing.T) {
	hits := []*core.SearchResult{
		{
			Document: &core.Document{Id: 1, Type: core.TypeDecree},
			Score:    0.9,
		},
		{
			Document: &core.Document{Id: 2, Type: core.TypeDecree},
			Score:    0.7,
		},
		{
			Document: &core.Document{
				Id: 3, Type: core.TypeJudgment,
				Metadata: core.Metadata{Entities: &core.EntityBag{
					Amounts: []string{"1.000,00"},
				}},
			},
			Score: 0.8,
		},
	}

	groups, err := AggregateResults(hits, GroupByType)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "decree", groups[0].Key)
	assert.Equal(t, 2, groups[0].Count)
	assert.InDelta(t, 0.8, groups[0].ScoreAvg, 0.001)

	assert.Equal(t, "judgment", groups[1].Key)
	assert.InDelta(t, 0.8, groups[1].ScoreAvg, 0.001)
	assert.InDelta(t, 1000.0, groups[1].AmountTotal, 0.001)
}

func TestAggregateResultsUnknownGrouping(t *testing.T) {
	_, err := AggregateResults(nil, "colore")
	assert.ErrorIs(t, err, ErrUnknownGrouping)
}

func TestTimelineMonthBuckets(t *testing.T) {
	searcher, repo, _ := setupSearcher(t)
	ctx := context.Background()

	addCompletedDocument(t, repo, &core.Document{
		Filename: "gennaio-1.pdf", Type: core.TypeDecree,
		UploadedAt: time.Date(2023, 1, 15, 10, 0, 0, 0, time.UTC),
		Metadata: core.Metadata{Entities: &core.EntityBag{
			Persons: []string{"Mario Rossi"},
		}},
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename: "gennaio-2.pdf", Type: core.TypeJudgment,
		UploadedAt: time.Date(2023, 1, 30, 10, 0, 0, 0, time.UTC),
		Metadata: core.Metadata{Entities: &core.EntityBag{
			Persons: []string{"Mario Rossi", "Anna Bianchi"},
		}},
	})
	addCompletedDocument(t, repo, &core.Document{
		Filename: "marzo.pdf", Type: core.TypeDecree,
		UploadedAt: time.Date(2023, 3, 2, 10, 0, 0, 0, time.UTC),
	})

	buckets, err := searcher.Timeline(ctx, GranularityMonth, nil)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	january := buckets[0]
	assert.Equal(t, "2023-01", january.Period)
	assert.Equal(t, 2, january.Count)
	assert.Equal(t, 1, january.TypeCounts[core.TypeDecree])
	assert.Equal(t, 1, january.TypeCounts[core.TypeJudgment])
	assert.Equal(t, []string{"Anna Bianchi", "Mario Rossi"}, january.Entities["persons"])

	assert.Equal(t, "2023-03", buckets[1].Period)
}

func TestTimelinePeriodFormats(t *testing.T) {
	ts := time.Date(2023, 1, 18, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2023-01-18", formatPeriod(ts, GranularityDay))
	assert.Equal(t, "2023-W03", formatPeriod(ts, GranularityWeek))
	assert.Equal(t, "2023-01", formatPeriod(ts, GranularityMonth))
	assert.Equal(t, "2023", formatPeriod(ts, GranularityYear))
}

func TestTimelineUnknownGranularity(t *testing.T) {
	searcher, _, _ := setupSearcher(t)

	_, err := searcher.Timeline(context.Background(), Granularity("decade"), nil)
	assert.ErrorIs(t, err, ErrUnknownGranularity)
}
