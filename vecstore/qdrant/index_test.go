package qdrant

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragkit/core"
)

func TestCollectionFilter(t *testing.T) {
	assert.Nil(t, collectionFilter(nil))
	assert.Nil(t, collectionFilter([]string{}))

	filter := collectionFilter([]string{"alpha", "beta"})
	require.NotNil(t, filter)
	assert.Len(t, filter.Should, 2)
	assert.Empty(t, filter.Must)
}

func TestChunkToPointRoundTrip(t *testing.T) {
	chunk := &core.Chunk{
		Id:         core.ID(99),
		Text:       "some text",
		Vector:     []float32{0.1, 0.2, 0.3},
		Collection: "kb",
		ChunkIndex: 4,
	}

	point := chunkToPoint(chunk)
	assert.Equal(t, uint64(99), point.GetId().GetNum())
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, point.GetVectors().GetVector().GetDense().GetData())

	doc := payloadToDoc(point.GetPayload(), 0.87)
	assert.Equal(t, "some text", doc.Text)
	assert.Equal(t, "kb", doc.Collection)
	assert.Equal(t, 4, doc.ChunkIndex)
	assert.InDelta(t, 0.87, doc.Score, 1e-6)
}

func TestPayloadToDoc_MissingFields(t *testing.T) {
	doc := payloadToDoc(map[string]*qdrant.Value{}, 0.5)
	assert.Empty(t, doc.Text)
	assert.Empty(t, doc.Collection)
	assert.Zero(t, doc.ChunkIndex)
}
