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


package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

const (
	// Version tags the cache payload format.
	Version = "1.0"

	// DefaultTTL is how long cached results stay valid.
	DefaultTTL = 24 * time.Hour
)

// Manager memoizes expensive per-document operation results inside the
// document's metadata. Entries are keyed by operation name and a hash
// of the exact input text, so a change to the text is a cache miss by
// construction.
type Manager struct {
	repo   storage.DocumentRepository
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL overrides the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithClock overrides the time source. For tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a cache manager. The repository is used by Sweep
// to persist expired-entry removal; Get and Set only touch the
// in-memory document.
func NewManager(repo storage.DocumentRepository, opts ...Option) *Manager {
	m := &Manager{
		repo:   repo,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default().With("component", "cache"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Key builds the cache key for an operation over the given input text.
func Key(operation, text string) string {
	sum := sha256.Sum256([]byte(text))
	return operation + "_" + hex.EncodeToString(sum[:])
}

// Get returns the cached result for the operation over text, if present
// and not expired. Expired entries are left in place for Sweep.
func (m *Manager) Get(doc *core.Document, operation, text string) (json.RawMessage, bool) {
	if doc.Metadata.Cache == nil {
		return nil, false
	}

	entry, ok := doc.Metadata.Cache[Key(operation, text)]
	if !ok {
		return nil, false
	}
	if !m.fresh(entry) {
		return nil, false
	}
	return entry.Result, true
}

// Set stores the result of an operation over text in the document's
// cache namespace. The result must be JSON-serializable.
func (m *Manager) Set(doc *core.Document, operation, text string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	if doc.Metadata.Cache == nil {
		doc.Metadata.Cache = make(map[string]core.CacheEntry)
	}
	doc.Metadata.Cache[Key(operation, text)] = core.CacheEntry{
		Result:    data,
		Timestamp: m.now().UTC(),
		Version:   Version,
	}
	return nil
}

// Invalidate removes cached entries for the given operation from the
// document, or every entry when operation is empty. Returns the number
// of entries removed.
func (m *Manager) Invalidate(doc *core.Document, operation string) int {
	if doc.Metadata.Cache == nil {
		return 0
	}

	removed := 0
	for key := range doc.Metadata.Cache {
		if operation == "" || strings.HasPrefix(key, operation+"_") {
			delete(doc.Metadata.Cache, key)
			removed++
		}
	}
	return removed
}

// Sweep walks all documents and removes expired cache entries,
// persisting every document it changed. Returns the number of entries
// removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	docs, err := m.repo.ListDocuments(ctx, nil)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, doc := range docs {
		changed := false
		for key, entry := range doc.Metadata.Cache {
			if m.fresh(entry) {
				continue
			}
			delete(doc.Metadata.Cache, key)
			removed++
			changed = true
		}
		if changed {
			if _, err := m.repo.UpdateDocuments(ctx, doc); err != nil {
				return removed, err
			}
		}
	}

	if removed > 0 {
		m.logger.Info("swept expired cache entries", "removed", removed)
	}
	return removed, nil
}

// fresh reports whether the entry is within its TTL.
func (m *Manager) fresh(entry core.CacheEntry) bool {
	return m.now().Sub(entry.Timestamp) < m.ttl
}
