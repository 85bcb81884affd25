package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/archivist/ai"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

// DefaultMinSimilarity is the similarity threshold below which matches
// are discarded.
const DefaultMinSimilarity = 0.7

// DefaultLimit caps result pages when no limit is given.
const DefaultLimit = 10

// Filters narrows a search along structural and entity dimensions.
type Filters struct {
	// Type restricts results to one document type.
	Type core.DocumentType

	// DateFrom is the inclusive lower bound on the upload time.
	DateFrom time.Time

	// DateTo is the exclusive upper bound on the upload time.
	DateTo time.Time

	// Entities maps entity categories to values every result must
	// contain. All listed pairs must match.
	Entities map[string][]string
}

// Options tunes a single search call.
type Options struct {
	// MinSimilarity overrides the score threshold. Zero means the
	// default; use a negative value to disable the threshold entirely.
	MinSimilarity float32

	// Limit caps the page size; zero means DefaultLimit.
	Limit int

	// Offset skips that many ranked results before the page starts.
	Offset int

	// IncludeContent keeps the full extracted text on the results.
	// When false, result documents carry highlights but no text.
	IncludeContent bool

	// Monitor observes the search stages. Nil for no observation.
	Monitor SearchMonitor
}

// Results is one page of ranked hits plus the pre-pagination total.
type Results struct {
	Hits  []*core.SearchResult
	Total int
}

// Searcher runs semantic searches over processed documents.
type Searcher struct {
	repo     storage.DocumentRepository
	embedder ai.Embedder
	parser   ai.QueryParser
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repo storage.DocumentRepository, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		repo:     repo,
		embedder: provider.Embedder(),
		parser:   provider.QueryParser(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search runs a semantic search for the query, narrowed by filters.
func (s *Searcher) Search(ctx context.Context, query string, filters *Filters, opts *Options) (*Results, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if opts == nil {
		opts = &Options{}
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	minSimilarity := opts.MinSimilarity
	if minSimilarity == 0 {
		minSimilarity = DefaultMinSimilarity
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Structural narrowing happens inside the vector scan. Only
	// completed documents carry vectors worth scoring.
	structural := &storage.DocumentFilter{State: core.StateCompleted}
	if filters != nil {
		structural.Type = filters.Type
		structural.UploadedFrom = filters.DateFrom
		structural.UploadedTo = filters.DateTo
	}

	matches, err := s.repo.FindSimilar(ctx, embedding, minSimilarity, structural)
	if err != nil {
		s.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(matchIDs(matches))

	// Entity narrowing via the entity index
	if filters != nil && len(filters.Entities) > 0 {
		matches, err = s.filterByEntities(ctx, matches, filters.Entities)
		if err != nil {
			return nil, err
		}
	}
	monitor.AfterEntityFilter(matchIDs(matches))

	total := len(matches)

	// Paginate the ranked matches
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(matches) {
		offset = len(matches)
	}
	page := matches[offset:]
	if len(page) > limit {
		page = page[:limit]
	}

	results := make([]*core.SearchResult, 0, len(page))
	for _, match := range page {
		doc := match.Document
		// Highlights only accompany full content; lightweight result
		// pages skip the fragment scan entirely.
		var highlights []string
		if opts.IncludeContent {
			highlights = makeHighlights(doc.Text, query)
		} else {
			trimmed := *doc
			trimmed.Text = ""
			doc = &trimmed
		}
		results = append(results, &core.SearchResult{
			Document:   doc,
			Score:      match.Score,
			Highlights: highlights,
		})
	}

	monitor.Finish(results)
	s.logger.Debug("search finished", "query", query, "total", total, "returned", len(results))
	return &Results{Hits: results, Total: total}, nil
}

// SearchNatural interprets a natural-language query with the LLM
// parser and runs the resulting structured search. If the parser
// fails, the raw query text is searched without filters.
func (s *Searcher) SearchNatural(ctx context.Context, query string, opts *Options) (*Results, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	parsed, err := s.parser.ParseQuery(ctx, query)
	if err != nil {
		s.logger.Warn("query parsing failed, searching raw text", "query", query, "err", err)
		return s.Search(ctx, query, nil, opts)
	}

	filters := filtersFromParsed(parsed)
	searchText := parsed.SearchText
	if strings.TrimSpace(searchText) == "" {
		searchText = query
	}
	return s.Search(ctx, searchText, filters, opts)
}

// filterByEntities keeps only matches whose documents contain every
// requested (category, value) pair, resolving membership through the
// entity index.
func (s *Searcher) filterByEntities(ctx context.Context, matches []*core.ScoredDocument, entities map[string][]string) ([]*core.ScoredDocument, error) {
	allowed := make(map[core.ID]bool)
	first := true

	for category, values := range entities {
		for _, value := range values {
			ids, err := s.repo.GetDocumentIDsByEntity(ctx, category, value)
			if err != nil {
				return nil, err
			}

			set := make(map[core.ID]bool, len(ids))
			for _, id := range ids {
				set[id] = true
			}

			if first {
				allowed = set
				first = false
				continue
			}
			// Intersect
			for id := range allowed {
				if !set[id] {
					delete(allowed, id)
				}
			}
		}
	}

	filtered := matches[:0]
	for _, match := range matches {
		if allowed[match.Document.Id] {
			filtered = append(filtered, match)
		}
	}
	return filtered, nil
}

// filtersFromParsed converts parser output into search filters.
func filtersFromParsed(parsed *ai.ParsedQuery) *Filters {
	filters := &Filters{}

	if parsed.DocType != "" {
		if docType, err := core.ParseDocumentType(parsed.DocType); err == nil {
			filters.Type = docType
		}
	}
	if parsed.DateStart != "" {
		if t, err := time.Parse("2006-01-02", parsed.DateStart); err == nil {
			filters.DateFrom = t
		}
	}
	if parsed.DateEnd != "" {
		if t, err := time.Parse("2006-01-02", parsed.DateEnd); err == nil {
			// The end date names a day; the bound excludes the next one.
			filters.DateTo = t.AddDate(0, 0, 1)
		}
	}
	if len(parsed.Entities) > 0 {
		filters.Entities = parsed.Entities
	}

	return filters
}

// matchIDs extracts the document IDs from scored matches.
func matchIDs(matches []*core.ScoredDocument) []uint64 {
	ids := make([]uint64, len(matches))
	for i, match := range matches {
		ids[i] = uint64(match.Document.Id)
	}
	return ids
}
