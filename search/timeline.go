package search

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/archivist/core"
)

// Granularity selects the bucket width for timelines.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// TimelineBucket is one period of the corpus timeline.
type TimelineBucket struct {
	// Period labels the bucket: "2023-01-15" (day), "2023-W03" (ISO
	// week), "2023-01" (month), or "2023" (year).
	Period string `json:"period"`

	// Count is the number of documents uploaded in the period.
	Count int `json:"count"`

	// Documents lists the IDs of the period's documents.
	Documents []core.ID `json:"documents"`

	// Summaries collects the summaries of the period's documents,
	// in upload order. Documents without a summary are skipped.
	Summaries []string `json:"summaries,omitempty"`

	// TypeCounts breaks the count down by document type.
	TypeCounts map[core.DocumentType]int `json:"type_counts"`

	// Entities merges the entities of the period's documents,
	// deduplicated and sorted per category.
	Entities map[string][]string `json:"entities"`
}

// Timeline buckets completed documents by upload period. Buckets are
// ordered chronologically and empty periods are omitted.
func (s *Searcher) Timeline(ctx context.Context, granularity Granularity, filters *Filters) ([]*TimelineBucket, error) {
	if granularity != GranularityDay && granularity != GranularityWeek &&
		granularity != GranularityMonth && granularity != GranularityYear {
		return nil, ErrUnknownGranularity
	}

	docs, err := s.listCompleted(ctx, filters)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*TimelineBucket)
	for _, doc := range docs {
		period := formatPeriod(doc.UploadedAt, granularity)
		bucket, ok := buckets[period]
		if !ok {
			bucket = &TimelineBucket{
				Period:     period,
				TypeCounts: make(map[core.DocumentType]int),
				Entities:   make(map[string][]string),
			}
			buckets[period] = bucket
		}

		bucket.Count++
		bucket.Documents = append(bucket.Documents, doc.Id)
		bucket.TypeCounts[doc.Type]++
		if doc.Metadata.Summary != "" {
			bucket.Summaries = append(bucket.Summaries, doc.Metadata.Summary)
		}

		bag := doc.Entities()
		for _, category := range core.EntityCategories {
			bucket.Entities[category] = append(bucket.Entities[category], bag.Category(category)...)
		}
	}

	results := make([]*TimelineBucket, 0, len(buckets))
	for _, bucket := range buckets {
		for category, values := range bucket.Entities {
			if len(values) == 0 {
				delete(bucket.Entities, category)
				continue
			}
			bucket.Entities[category] = dedupeSorted(values)
		}
		results = append(results, bucket)
	}

	slices.SortFunc(results, func(a, b *TimelineBucket) int {
		return strings.Compare(a.Period, b.Period)
	})
	return results, nil
}

// formatPeriod renders the bucket label for a time at the given
// granularity.
func formatPeriod(t time.Time, granularity Granularity) string {
	switch granularity {
	case GranularityDay:
		return t.Format("2006-01-02")
	case GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GranularityMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006")
	}
}

// dedupeSorted removes duplicates and sorts ascending.
func dedupeSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
