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


package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/archivist/ai"
	"github.com/poiesic/archivist/cache"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/extract"
	"github.com/poiesic/archivist/storage"
)

// Pipeline orchestrates background analysis of uploaded documents.
type Pipeline struct {
	repo      storage.DocumentRepository
	extractor *extract.Extractor
	provider  ai.AIProvider
	cache     *cache.Manager
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new analysis pipeline.
func NewPipeline(
	repo storage.DocumentRepository,
	extractor *extract.Extractor,
	provider ai.AIProvider,
	cacheManager *cache.Manager,
	opts ...Option,
) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if cacheManager == nil {
		return nil, ErrCacheRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repo:      repo,
		extractor: extractor,
		provider:  provider,
		cache:     cacheManager,
		pool:      pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Trigger claims the document for processing and schedules the
// analysis run in the background. Returns the document in its claimed
// (processing) state, or ErrAlreadyProcessing if another run holds it.
func (p *Pipeline) Trigger(ctx context.Context, id core.ID) (*core.Document, error) {
	claimed, err := p.repo.TransitionToProcessing(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrAlreadyProcessing
		}
		return nil, err
	}

	p.submit(id)
	return claimed[0], nil
}

// TriggerBatch claims all the given documents atomically and schedules
// an analysis run for each. If any document is missing or already
// being processed, nothing is claimed and nothing runs.
func (p *Pipeline) TriggerBatch(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	claimed, err := p.repo.TransitionToProcessing(ctx, ids...)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrAlreadyProcessing
		}
		return nil, err
	}

	for _, id := range ids {
		p.submit(id)
	}
	return claimed, nil
}

// submit hands a processing run to the worker pool. Errors from the
// run are recorded on the document, so here they are only logged.
func (p *Pipeline) submit(id core.ID) {
	p.pool.Submit(func() {
		if err := p.Process(context.Background(), id); err != nil {
			p.logger.Error("error processing document", "id", id, "err", err)
		}
	})
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
