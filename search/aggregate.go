package search

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

// Groupings for Aggregate. Entity categories ("persons",
// "organizations", ...) are also accepted and group by entity value.
const (
	GroupByType  = "type"
	GroupByMonth = "month"
)

// AggregateGroup is one group of documents with its amount metrics.
// Amounts come from the extracted entity amounts of the group's
// documents; values that fail to parse are skipped. ScoreAvg is only
// populated when aggregating search results, where relevance scores
// exist.
type AggregateGroup struct {
	Key         string  `json:"key"`
	Count       int     `json:"count"`
	AmountTotal float64 `json:"amount_total"`
	AmountAvg   float64 `json:"amount_avg"`
	ScoreAvg    float64 `json:"score_avg,omitempty"`
}

// Aggregate groups completed documents and computes per-group counts
// and monetary amount metrics. groupBy is "type", "month", or an
// entity category name. Month groups come back chronologically; other
// groupings by descending count with the key as tie-break.
func (s *Searcher) Aggregate(ctx context.Context, groupBy string, filters *Filters) ([]*AggregateGroup, error) {
	if groupBy != GroupByType && groupBy != GroupByMonth && !slices.Contains(core.EntityCategories, groupBy) {
		return nil, ErrUnknownGrouping
	}

	docs, err := s.listCompleted(ctx, filters)
	if err != nil {
		return nil, err
	}

	groups := newGroupAccumulator()
	for _, doc := range docs {
		groups.addDocument(groupBy, doc, 0, false)
	}
	return groups.finish(groupBy), nil
}

// AggregateResults groups the hits of a search the same way Aggregate
// groups the corpus, additionally computing the average relevance
// score per group. groupBy is "type", "month", or an entity category.
func AggregateResults(hits []*core.SearchResult, groupBy string) ([]*AggregateGroup, error) {
	if groupBy != GroupByType && groupBy != GroupByMonth && !slices.Contains(core.EntityCategories, groupBy) {
		return nil, ErrUnknownGrouping
	}

	groups := newGroupAccumulator()
	for _, hit := range hits {
		groups.addDocument(groupBy, hit.Document, float64(hit.Score), true)
	}
	return groups.finish(groupBy), nil
}

type groupAccumulator struct {
	groups map[string]*accumulator
}

type accumulator struct {
	count       int
	amountTotal float64
	amountCount int
	scoreTotal  float64
	scored      bool
}

func newGroupAccumulator() *groupAccumulator {
	return &groupAccumulator{groups: make(map[string]*accumulator)}
}

// addDocument folds one document into the group selected by groupBy.
// Entity groupings may place a document into several groups.
func (g *groupAccumulator) addDocument(groupBy string, doc *core.Document, score float64, scored bool) {
	accumulate := func(key string) {
		acc, ok := g.groups[key]
		if !ok {
			acc = &accumulator{}
			g.groups[key] = acc
		}
		acc.count++
		acc.scoreTotal += score
		acc.scored = acc.scored || scored
		for _, raw := range doc.Entities().Amounts {
			amount, ok := ParseAmount(raw)
			if !ok {
				continue
			}
			acc.amountTotal += amount
			acc.amountCount++
		}
	}

	switch groupBy {
	case GroupByType:
		accumulate(string(doc.Type))
	case GroupByMonth:
		accumulate(doc.UploadedAt.Format("2006-01"))
	default:
		for _, value := range doc.Entities().Category(groupBy) {
			accumulate(value)
		}
	}
}

// finish renders the accumulated groups in their output order: month
// groups chronologically by period key, everything else by descending
// count with the key as tie-break.
func (g *groupAccumulator) finish(groupBy string) []*AggregateGroup {
	results := make([]*AggregateGroup, 0, len(g.groups))
	for key, acc := range g.groups {
		group := &AggregateGroup{
			Key:         key,
			Count:       acc.count,
			AmountTotal: acc.amountTotal,
		}
		if acc.amountCount > 0 {
			group.AmountAvg = acc.amountTotal / float64(acc.amountCount)
		}
		if acc.scored && acc.count > 0 {
			group.ScoreAvg = acc.scoreTotal / float64(acc.count)
		}
		results = append(results, group)
	}

	slices.SortFunc(results, func(a, b *AggregateGroup) int {
		if groupBy == GroupByMonth {
			return strings.Compare(a.Key, b.Key)
		}
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Key, b.Key)
	})
	return results
}

// ParseAmount parses a locale-formatted amount string such as
// "1.234,56" ("." thousands, "," decimals) into a float.
func ParseAmount(raw string) (float64, bool) {
	normalized := strings.ReplaceAll(raw, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	amount, err := strconv.ParseFloat(strings.TrimSpace(normalized), 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// listCompleted lists completed documents narrowed by the structural
// parts of the filters. Entity filters are applied in memory.
func (s *Searcher) listCompleted(ctx context.Context, filters *Filters) ([]*core.Document, error) {
	structural := &storage.DocumentFilter{State: core.StateCompleted}
	if filters != nil {
		structural.Type = filters.Type
		structural.UploadedFrom = filters.DateFrom
		structural.UploadedTo = filters.DateTo
	}

	docs, err := s.repo.ListDocuments(ctx, structural)
	if err != nil {
		return nil, err
	}

	if filters == nil || len(filters.Entities) == 0 {
		return docs, nil
	}

	filtered := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		if containsAllEntities(doc, filters.Entities) {
			filtered = append(filtered, doc)
		}
	}
	return filtered, nil
}

// containsAllEntities reports whether the document contains every
// requested (category, value) pair.
func containsAllEntities(doc *core.Document, entities map[string][]string) bool {
	bag := doc.Entities()
	for category, values := range entities {
		for _, value := range values {
			if !bag.Contains(category, value) {
				return false
			}
		}
	}
	return true
}
