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


package localfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

// Store implements storage.FileStore on the local filesystem.
// Files are saved under generated UUID names so uploads with colliding
// or hostile filenames cannot overwrite each other.
type Store struct {
	root   string
	logger *slog.Logger
}

var _ storage.FileStore = (*Store)(nil)

// NewStore creates a file store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{
		root:   dir,
		logger: slog.Default().With("component", "localfile-store"),
	}, nil
}

// Save writes content under a generated name, keeping the original
// extension, and returns a descriptor with the content hash and size.
func (s *Store) Save(ctx context.Context, filename string, content []byte) (*core.FileDescriptor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.New().String() + ext
	path := filepath.Join(s.root, name)

	if err := os.WriteFile(path, content, 0644); err != nil {
		s.logger.Error("failed to write file", "path", path, "err", err)
		return nil, err
	}

	sum := sha256.Sum256(content)

	s.logger.Debug("saved file", "original", filename, "path", path, "size", len(content))
	return &core.FileDescriptor{
		Path:   path,
		SHA256: hex.EncodeToString(sum[:]),
		Size:   int64(len(content)),
	}, nil
}

// Read returns the content of a previously saved file.
func (s *Store) Read(ctx context.Context, descriptor *core.FileDescriptor) ([]byte, error) {
	return os.ReadFile(descriptor.Path)
}

// Remove deletes a previously saved file.
func (s *Store) Remove(ctx context.Context, descriptor *core.FileDescriptor) error {
	return os.Remove(descriptor.Path)
}
