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


// Package memory provides an in-process flat vector index. Scores are dot
// products over normalized vectors, equivalent to cosine similarity.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/vecstore"
)

// Index is an in-memory flat vector index implementing vecstore.Index.
// Safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	dimension int
	created   bool
	closed    bool
	chunks    map[core.ID]*core.Chunk
	order     []core.ID // Insertion order, for deterministic tie-breaking
	logger    *slog.Logger
}

var _ vecstore.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// New creates an in-memory index with the given vector dimension.
func New(dimension int, opts ...Option) *Index {
	idx := &Index{
		dimension: dimension,
		chunks:    make(map[core.ID]*core.Chunk),
		logger:    slog.Default().With("component", "memory-index"),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// EnsureCollection marks the physical collection as created. Idempotent.
func (idx *Index) EnsureCollection(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return vecstore.ErrIndexClosed
	}
	if !idx.created {
		idx.created = true
		idx.logger.Debug("initialized in-memory collection", "dimension", idx.dimension)
	}
	return nil
}

// Upsert inserts or replaces chunks by id.
func (idx *Index) Upsert(ctx context.Context, chunks []*core.Chunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return vecstore.ErrIndexClosed
	}

	for _, chunk := range chunks {
		if len(chunk.Vector) != idx.dimension {
			return fmt.Errorf("%w: got %d, want %d", vecstore.ErrDimensionMismatch, len(chunk.Vector), idx.dimension)
		}
		if _, exists := idx.chunks[chunk.Id]; !exists {
			idx.order = append(idx.order, chunk.Id)
		}
		stored := *chunk
		idx.chunks[chunk.Id] = &stored
	}

	idx.logger.Debug("upserted chunks", "count", len(chunks), "total", len(idx.chunks))
	return nil
}

// Search returns up to topK hits ordered by descending score. A non-empty
// collections set restricts hits to matching tags (logical OR).
func (idx *Index) Search(ctx context.Context, vector []float32, collections []string, topK int) ([]core.RetrievedDoc, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, vecstore.ErrIndexClosed
	}

	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", vecstore.ErrDimensionMismatch, len(vector), idx.dimension)
	}

	allowed := make(map[string]bool, len(collections))
	for _, name := range collections {
		allowed[name] = true
	}

	type scored struct {
		doc   core.RetrievedDoc
		order int
	}
	var hits []scored

	for pos, id := range idx.order {
		chunk := idx.chunks[id]
		if len(allowed) > 0 && !allowed[chunk.Collection] {
			continue
		}
		hits = append(hits, scored{
			doc: core.RetrievedDoc{
				Text:       chunk.Text,
				Score:      vecstore.DotProduct(vector, chunk.Vector),
				Collection: chunk.Collection,
				ChunkIndex: chunk.ChunkIndex,
			},
			order: pos,
		})
	}

	// Sort by score descending; ties broken by insertion order so results
	// are deterministic for a fixed index state.
	slices.SortFunc(hits, func(a, b scored) int {
		if a.doc.Score > b.doc.Score {
			return -1
		}
		if a.doc.Score < b.doc.Score {
			return 1
		}
		return a.order - b.order
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}

	docs := make([]core.RetrievedDoc, len(hits))
	for i, hit := range hits {
		docs[i] = hit.doc
	}
	return docs, nil
}

// DropCollection rebuilds the index from the chunks NOT tagged with name.
func (idx *Index) DropCollection(ctx context.Context, name string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return vecstore.ErrIndexClosed
	}

	survivors := make(map[core.ID]*core.Chunk, len(idx.chunks))
	var order []core.ID
	removed := 0
	for _, id := range idx.order {
		chunk := idx.chunks[id]
		if chunk.Collection == name {
			removed++
			continue
		}
		survivors[id] = chunk
		order = append(order, id)
	}

	idx.chunks = survivors
	idx.order = order
	idx.logger.Info("dropped logical collection", "collection", name, "removed", removed, "remaining", len(survivors))
	return nil
}

// Stats returns chunk counts per logical collection.
func (idx *Index) Stats(ctx context.Context) (map[string]uint64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, vecstore.ErrIndexClosed
	}

	stats := make(map[string]uint64)
	for _, chunk := range idx.chunks {
		stats[chunk.Collection]++
	}
	return stats, nil
}

// Close releases the index. Subsequent calls on the index return ErrIndexClosed.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.chunks = nil
	idx.order = nil
	return nil
}
