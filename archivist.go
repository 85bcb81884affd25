// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package archivist assembles the document archive: storage, file
// handling, text extraction, AI enrichment, background processing, and
// search, behind one Archive type.
package archivist

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/archivist/ai"
	"github.com/poiesic/archivist/ai/openai"
	"github.com/poiesic/archivist/cache"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/extract"
	"github.com/poiesic/archivist/pipeline"
	"github.com/poiesic/archivist/search"
	"github.com/poiesic/archivist/storage"
	"github.com/poiesic/archivist/storage/badger"
	"github.com/poiesic/archivist/storage/localfile"
)

// ErrEntitiesNotExtracted indicates the document has not been analyzed
// yet, so it carries no entities.
var ErrEntitiesNotExtracted = errors.New("entities not extracted yet")

// Archive is the facade over the whole document system.
type Archive struct {
	backend   *badger.Backend
	repo      storage.DocumentRepository
	files     storage.FileStore
	provider  ai.AIProvider
	cache     *cache.Manager
	pipeline  *pipeline.Pipeline
	searcher  *search.Searcher
	extractor *extract.Extractor
	logger    *slog.Logger
}

// ArchiveOption configures an Archive.
type ArchiveOption func(*archiveOptions)

type archiveOptions struct {
	aiConfig    *ai.Config
	provider    ai.AIProvider
	engine      extract.Engine
	poolSize    int
	cacheTTL    time.Duration
	ocrLanguage string
}

// WithAIConfig sets the AI endpoint configuration.
func WithAIConfig(config *ai.Config) ArchiveOption {
	return func(o *archiveOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider injects a pre-built AI provider, bypassing the AI
// configuration. Used by tests to run against mocks.
func WithAIProvider(provider ai.AIProvider) ArchiveOption {
	return func(o *archiveOptions) {
		o.provider = provider
	}
}

// WithExtractionEngine injects a text extraction engine. Default is
// the external-tool engine (pdftotext, pdftoppm, tesseract).
func WithExtractionEngine(engine extract.Engine) ArchiveOption {
	return func(o *archiveOptions) {
		o.engine = engine
	}
}

// WithPoolSize sets the analysis worker pool size.
func WithPoolSize(size int) ArchiveOption {
	return func(o *archiveOptions) {
		o.poolSize = size
	}
}

// WithCacheTTL sets the lifetime of memoized AI results.
func WithCacheTTL(ttl time.Duration) ArchiveOption {
	return func(o *archiveOptions) {
		o.cacheTTL = ttl
	}
}

// WithOCRLanguage sets the tesseract language pack.
func WithOCRLanguage(lang string) ArchiveOption {
	return func(o *archiveOptions) {
		o.ocrLanguage = lang
	}
}

// NewArchive opens an archive with its database under dataDir and
// uploaded files under filesDir.
func NewArchive(dataDir, filesDir string, opts ...ArchiveOption) (*Archive, error) {
	options := &archiveOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(dataDir, false)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	files, err := localfile.NewStore(filesDir)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repo.Close()
			backend.Close()
			return nil, err
		}
	}

	engine := options.engine
	if engine == nil {
		var engineOpts []extract.ExecEngineOption
		if options.ocrLanguage != "" {
			engineOpts = append(engineOpts, extract.WithOCRLanguage(options.ocrLanguage))
		}
		engine = extract.NewExecEngine(engineOpts...)
	}
	extractor := extract.NewExtractor(engine)

	var cacheOpts []cache.Option
	if options.cacheTTL > 0 {
		cacheOpts = append(cacheOpts, cache.WithTTL(options.cacheTTL))
	}
	cacheManager := cache.NewManager(repo, cacheOpts...)

	var pipelineOpts []pipeline.Option
	if options.poolSize > 0 {
		pipelineOpts = append(pipelineOpts, pipeline.WithPoolSize(options.poolSize))
	}
	pipe, err := pipeline.NewPipeline(repo, extractor, provider, cacheManager, pipelineOpts...)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(repo, provider)
	if err != nil {
		pipe.Release()
		repo.Close()
		backend.Close()
		return nil, err
	}

	return &Archive{
		backend:   backend,
		repo:      repo,
		files:     files,
		provider:  provider,
		cache:     cacheManager,
		pipeline:  pipe,
		searcher:  searcher,
		extractor: extractor,
		logger:    slog.Default(),
	}, nil
}

// Close releases the archive's resources.
func (a *Archive) Close() error {
	a.pipeline.Release()

	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}
	if err := a.repo.Close(); err != nil {
		a.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Repository exposes the document repository.
func (a *Archive) Repository() storage.DocumentRepository {
	return a.repo
}

// UploadDocument stores the file and registers a pending document for
// it. docType may be empty or TypeOther to let processing classify the
// document from its content.
func (a *Archive) UploadDocument(ctx context.Context, filename string, content []byte, docType core.DocumentType) (*core.Document, error) {
	// Drop any path components a client sent along
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, core.ErrEmptyFilename
	}
	if !extract.Supported(filename) {
		return nil, extract.ErrUnsupportedFormat
	}

	if docType == "" {
		docType = core.TypeOther
	}
	if _, err := core.ParseDocumentType(string(docType)); err != nil {
		return nil, err
	}

	descriptor, err := a.files.Save(ctx, filename, content)
	if err != nil {
		return nil, err
	}

	doc := &core.Document{
		Filename: filename,
		Type:     docType,
		State:    core.StatePending,
		File:     *descriptor,
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	docs, err := a.repo.AddDocuments(ctx, doc)
	if err != nil {
		return nil, err
	}

	a.logger.Info("document uploaded", "id", docs[0].Id, "filename", filename, "sha256", descriptor.SHA256)
	return docs[0], nil
}

// TriggerAnalysis starts background processing for one document.
func (a *Archive) TriggerAnalysis(ctx context.Context, id core.ID) (*core.Document, error) {
	return a.pipeline.Trigger(ctx, id)
}

// TriggerBatchAnalysis starts background processing for several
// documents atomically: either all are claimed or none.
func (a *Archive) TriggerBatchAnalysis(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	return a.pipeline.TriggerBatch(ctx, ids...)
}

// GetDocument returns a document with its current processing state.
func (a *Archive) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	return a.repo.GetDocument(ctx, id)
}

// ListDocuments lists documents matching the filter, in upload order.
func (a *Archive) ListDocuments(ctx context.Context, filter *storage.DocumentFilter) ([]*core.Document, error) {
	return a.repo.ListDocuments(ctx, filter)
}

// GetEntities returns the entities extracted from a document. Documents
// that have not been analyzed yet have none.
func (a *Archive) GetEntities(ctx context.Context, id core.ID) (*core.EntityBag, error) {
	doc, err := a.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Metadata.Entities == nil {
		return nil, ErrEntitiesNotExtracted
	}
	return doc.Entities(), nil
}

// DeleteDocument removes a document and its stored file.
func (a *Archive) DeleteDocument(ctx context.Context, id core.ID) error {
	doc, err := a.repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := a.repo.DeleteDocuments(ctx, id); err != nil {
		return err
	}
	if err := a.files.Remove(ctx, &doc.File); err != nil {
		a.logger.Warn("failed to remove stored file", "id", id, "path", doc.File.Path, "err", err)
	}
	return nil
}

// Search runs a semantic search with explicit filters.
func (a *Archive) Search(ctx context.Context, query string, filters *search.Filters, opts *search.Options) (*search.Results, error) {
	return a.searcher.Search(ctx, query, filters, opts)
}

// SearchNatural runs a natural-language search, extracting filters
// from the query phrasing.
func (a *Archive) SearchNatural(ctx context.Context, query string, opts *search.Options) (*search.Results, error) {
	return a.searcher.SearchNatural(ctx, query, opts)
}

// Aggregate groups completed documents and computes amount metrics.
func (a *Archive) Aggregate(ctx context.Context, groupBy string, filters *search.Filters) ([]*search.AggregateGroup, error) {
	return a.searcher.Aggregate(ctx, groupBy, filters)
}

// Timeline buckets completed documents by upload period.
func (a *Archive) Timeline(ctx context.Context, granularity search.Granularity, filters *search.Filters) ([]*search.TimelineBucket, error) {
	return a.searcher.Timeline(ctx, granularity, filters)
}

// SweepCache removes expired memoized AI results from all documents.
// Returns the number of entries removed.
func (a *Archive) SweepCache(ctx context.Context) (int, error) {
	return a.cache.Sweep(ctx)
}
