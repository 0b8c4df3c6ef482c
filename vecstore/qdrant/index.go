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


// Package qdrant implements the vector index on a Qdrant server. All logical
// collections live in one physical collection, discriminated by a keyword
// payload field.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/vecstore"
)

const (
	// DefaultCollection is the physical Qdrant collection name.
	DefaultCollection = "ragkit_chunks"

	payloadText       = "text"
	payloadCollection = "collection"
	payloadChunkIndex = "chunk_index"

	scrollBatchSize = 256
)

// Index implements vecstore.Index against a Qdrant server.
type Index struct {
	client     *qdrant.Client
	collection string
	dimension  int
	logger     *slog.Logger
}

var _ vecstore.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithCollection overrides the physical collection name.
func WithCollection(name string) Option {
	return func(idx *Index) {
		if name != "" {
			idx.collection = name
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// New connects to a Qdrant server and returns an index over it.
func New(host string, port int, dimension int, opts ...Option) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vecstore.ErrStore, err)
	}

	idx := &Index{
		client:     client,
		collection: DefaultCollection,
		dimension:  dimension,
		logger:     slog.Default().With("component", "qdrant-index"),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// EnsureCollection creates the physical collection and the keyword index on
// the collection tag if they do not exist yet. Idempotent.
func (idx *Index) EnsureCollection(ctx context.Context) error {
	exists, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", vecstore.ErrStore, err)
	}
	if exists {
		return nil
	}

	err = idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(idx.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection: %v", vecstore.ErrStore, err)
	}

	_, err = idx.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: idx.collection,
		FieldName:      payloadCollection,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("%w: indexing payload field: %v", vecstore.ErrStore, err)
	}

	idx.logger.Info("created qdrant collection", "collection", idx.collection, "dimension", idx.dimension)
	return nil
}

// Upsert writes chunks as points. Chunk ids double as point ids, so
// re-ingesting identical content overwrites rather than duplicates.
func (idx *Index) Upsert(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Vector) != idx.dimension {
			return fmt.Errorf("%w: got %d, want %d", vecstore.ErrDimensionMismatch, len(chunk.Vector), idx.dimension)
		}
		points = append(points, chunkToPoint(chunk))
	}

	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting points: %v", vecstore.ErrStore, err)
	}

	idx.logger.Debug("upserted points", "count", len(points))
	return nil
}

// Search runs a similarity query, optionally restricted to the given logical
// collections, and returns hits ordered by descending score.
func (idx *Index) Search(ctx context.Context, vector []float32, collections []string, topK int) ([]core.RetrievedDoc, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", vecstore.ErrDimensionMismatch, len(vector), idx.dimension)
	}

	query := &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		Filter:         collectionFilter(collections),
		WithPayload:    qdrant.NewWithPayload(true),
	}

	hits, err := idx.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying points: %v", vecstore.ErrStore, err)
	}

	docs := make([]core.RetrievedDoc, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, payloadToDoc(hit.GetPayload(), hit.GetScore()))
	}
	return docs, nil
}

// DropCollection removes all points tagged with name. Qdrant has no payload
// scoped delete that also reclaims the field index, so the physical collection
// is rebuilt from the surviving points.
func (idx *Index) DropCollection(ctx context.Context, name string) error {
	survivors, err := idx.scrollSurvivors(ctx, name)
	if err != nil {
		return err
	}

	if err := idx.client.DeleteCollection(ctx, idx.collection); err != nil {
		return fmt.Errorf("%w: deleting collection: %v", vecstore.ErrStore, err)
	}
	if err := idx.EnsureCollection(ctx); err != nil {
		return err
	}

	if len(survivors) > 0 {
		_, err = idx.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: idx.collection,
			Points:         survivors,
		})
		if err != nil {
			return fmt.Errorf("%w: restoring points: %v", vecstore.ErrStore, err)
		}
	}

	idx.logger.Info("dropped logical collection", "collection", name, "restored", len(survivors))
	return nil
}

// scrollSurvivors pages through every stored point and returns the ones whose
// collection tag differs from excluded, vectors included.
func (idx *Index) scrollSurvivors(ctx context.Context, excluded string) ([]*qdrant.PointStruct, error) {
	var survivors []*qdrant.PointStruct
	seen := make(map[uint64]bool)
	var offset *qdrant.PointId

	for {
		points, err := idx.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: idx.collection,
			Limit:          qdrant.PtrOf(uint32(scrollBatchSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: scrolling points: %v", vecstore.ErrStore, err)
		}
		if len(points) == 0 {
			return survivors, nil
		}

		progressed := false
		for _, point := range points {
			id := point.GetId().GetNum()
			if seen[id] {
				continue
			}
			seen[id] = true
			progressed = true

			payload := point.GetPayload()
			if payload[payloadCollection].GetStringValue() == excluded {
				continue
			}
			survivors = append(survivors, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(id),
				Vectors: qdrant.NewVectors(point.GetVectors().GetVector().GetData()...),
				Payload: payload,
			})
		}
		if !progressed || len(points) < scrollBatchSize {
			return survivors, nil
		}
		offset = points[len(points)-1].GetId()
	}
}

// Stats counts stored points per logical collection.
func (idx *Index) Stats(ctx context.Context) (map[string]uint64, error) {
	stats := make(map[string]uint64)
	seen := make(map[uint64]bool)
	var offset *qdrant.PointId

	for {
		points, err := idx.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: idx.collection,
			Limit:          qdrant.PtrOf(uint32(scrollBatchSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: scrolling points: %v", vecstore.ErrStore, err)
		}
		if len(points) == 0 {
			return stats, nil
		}

		progressed := false
		for _, point := range points {
			id := point.GetId().GetNum()
			if seen[id] {
				continue
			}
			seen[id] = true
			progressed = true
			stats[point.GetPayload()[payloadCollection].GetStringValue()]++
		}
		if !progressed || len(points) < scrollBatchSize {
			return stats, nil
		}
		offset = points[len(points)-1].GetId()
	}
}

// Close shuts down the underlying gRPC connection.
func (idx *Index) Close() error {
	return idx.client.Close()
}

func chunkToPoint(chunk *core.Chunk) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(chunk.Id)),
		Vectors: qdrant.NewVectors(chunk.Vector...),
		Payload: qdrant.NewValueMap(map[string]any{
			payloadText:       chunk.Text,
			payloadCollection: chunk.Collection,
			payloadChunkIndex: int64(chunk.ChunkIndex),
		}),
	}
}

func payloadToDoc(payload map[string]*qdrant.Value, score float32) core.RetrievedDoc {
	return core.RetrievedDoc{
		Text:       payload[payloadText].GetStringValue(),
		Score:      score,
		Collection: payload[payloadCollection].GetStringValue(),
		ChunkIndex: int(payload[payloadChunkIndex].GetIntegerValue()),
	}
}

// collectionFilter builds an OR filter over the collection tag. Empty input
// means no filter at all.
func collectionFilter(collections []string) *qdrant.Filter {
	if len(collections) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(collections))
	for _, name := range collections {
		conditions = append(conditions, qdrant.NewMatch(payloadCollection, name))
	}
	return &qdrant.Filter{Should: conditions}
}
