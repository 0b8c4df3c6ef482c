package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/vecstore"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx := New(3)
	require.NoError(t, idx.EnsureCollection(context.Background()))
	t.Cleanup(func() { idx.Close() })
	return idx
}

func chunk(id uint64, text, collection string, chunkIndex int, vector []float32) *core.Chunk {
	return &core.Chunk{
		Id:         core.ID(id),
		Text:       text,
		Vector:     vecstore.Normalize(vector),
		Collection: collection,
		ChunkIndex: chunkIndex,
	}
}

func TestIndex_SearchOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	err := idx.Upsert(ctx, []*core.Chunk{
		chunk(1, "exact match", "docs", 0, []float32{1, 0, 0}),
		chunk(2, "close match", "docs", 1, []float32{1, 0.2, 0}),
		chunk(3, "far match", "docs", 2, []float32{0, 1, 0}),
		chunk(4, "orthogonal", "docs", 3, []float32{0, 0, 1}),
	})
	require.NoError(t, err)

	query := vecstore.Normalize([]float32{1, 0, 0})
	docs, err := idx.Search(ctx, query, nil, 3)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "exact match", docs[0].Text)
	assert.Equal(t, "close match", docs[1].Text)
	for i := 1; i < len(docs); i++ {
		assert.GreaterOrEqual(t, docs[i-1].Score, docs[i].Score)
	}
}

func TestIndex_SearchTopKExceedsSize(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, []*core.Chunk{
		chunk(1, "only one", "docs", 0, []float32{1, 0, 0}),
	}))

	docs, err := idx.Search(ctx, vecstore.Normalize([]float32{1, 0, 0}), nil, 10)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestIndex_SearchCollectionFilter(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, []*core.Chunk{
		chunk(1, "alpha doc", "alpha", 0, []float32{1, 0, 0}),
		chunk(2, "beta doc", "beta", 0, []float32{1, 0, 0}),
		chunk(3, "gamma doc", "gamma", 0, []float32{1, 0, 0}),
	}))

	query := vecstore.Normalize([]float32{1, 0, 0})

	docs, err := idx.Search(ctx, query, []string{"alpha"}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "alpha", docs[0].Collection)

	docs, err = idx.Search(ctx, query, []string{"alpha", "beta"}, 10)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	for _, doc := range docs {
		assert.NotEqual(t, "gamma", doc.Collection)
	}

	// Empty filter matches everything.
	docs, err = idx.Search(ctx, query, nil, 10)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestIndex_SearchPayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, []*core.Chunk{
		chunk(42, "the payload text", "kb", 7, []float32{0.5, 0.5, 0}),
	}))

	docs, err := idx.Search(ctx, vecstore.Normalize([]float32{0.5, 0.5, 0}), []string{"kb"}, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "the payload text", docs[0].Text)
	assert.Equal(t, "kb", docs[0].Collection)
	assert.Equal(t, 7, docs[0].ChunkIndex)
	assert.InDelta(t, 1.0, docs[0].Score, 1e-5)
}

func TestIndex_UpsertReplacesById(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, []*core.Chunk{
		chunk(1, "first version", "docs", 0, []float32{1, 0, 0}),
	}))
	require.NoError(t, idx.Upsert(ctx, []*core.Chunk{
		chunk(1, "second version", "docs", 0, []float32{1, 0, 0}),
	}))

	docs, err := idx.Search(ctx, vecstore.Normalize([]float32{1, 0, 0}), nil, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "second version", docs[0].Text)
}

func TestIndex_DropCollection(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, []*core.Chunk{
		chunk(1, "keep me", "alpha", 0, []float32{1, 0, 0}),
		chunk(2, "drop me", "beta", 0, []float32{1, 0, 0}),
		chunk(3, "drop me too", "beta", 1, []float32{0, 1, 0}),
	}))

	require.NoError(t, idx.DropCollection(ctx, "beta"))

	query := vecstore.Normalize([]float32{1, 0, 0})
	docs, err := idx.Search(ctx, query, []string{"beta"}, 10)
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = idx.Search(ctx, query, []string{"alpha"}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "keep me", docs[0].Text)
}

func TestIndex_Stats(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, []*core.Chunk{
		chunk(1, "a", "alpha", 0, []float32{1, 0, 0}),
		chunk(2, "b", "alpha", 1, []float32{0, 1, 0}),
		chunk(3, "c", "beta", 0, []float32{0, 0, 1}),
	}))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"alpha": 2, "beta": 1}, stats)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	err := idx.Upsert(ctx, []*core.Chunk{
		chunk(1, "bad", "docs", 0, []float32{1, 0}),
	})
	assert.ErrorIs(t, err, vecstore.ErrDimensionMismatch)

	_, err = idx.Search(ctx, []float32{1, 0}, nil, 5)
	assert.ErrorIs(t, err, vecstore.ErrDimensionMismatch)
}

func TestIndex_Closed(t *testing.T) {
	ctx := context.Background()
	idx := New(3)
	require.NoError(t, idx.EnsureCollection(ctx))
	require.NoError(t, idx.Close())

	assert.ErrorIs(t, idx.Upsert(ctx, nil), vecstore.ErrIndexClosed)
	_, err := idx.Search(ctx, []float32{1, 0, 0}, nil, 1)
	assert.ErrorIs(t, err, vecstore.ErrIndexClosed)
	_, err = idx.Stats(ctx)
	assert.ErrorIs(t, err, vecstore.ErrIndexClosed)
}
