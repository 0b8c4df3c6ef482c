package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragkit/ai/mock"
	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/vecstore"
	"github.com/poiesic/ragkit/vecstore/memory"
)

// slowIndex wraps an Index and delays every search.
type slowIndex struct {
	vecstore.Index
	delay time.Duration
}

func (s *slowIndex) Search(ctx context.Context, vector []float32, collections []string, topK int) ([]core.RetrievedDoc, error) {
	time.Sleep(s.delay)
	return s.Index.Search(ctx, vector, collections, topK)
}

func seedIndex(t *testing.T, embedder *mock.MockEmbedder, texts ...string) *memory.Index {
	t.Helper()
	ctx := context.Background()
	idx := memory.New(384)
	require.NoError(t, idx.EnsureCollection(ctx))
	t.Cleanup(func() { idx.Close() })

	for i, text := range texts {
		vec, err := embedder.EmbedText(ctx, text)
		require.NoError(t, err)
		require.NoError(t, idx.Upsert(ctx, []*core.Chunk{{
			Id:         core.IDFromContent(text),
			Text:       text,
			Vector:     vecstore.Normalize(vec),
			Collection: "kb",
			ChunkIndex: i,
		}}))
	}
	return idx
}

func TestContextFor_InjectsBestMatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	idx := seedIndex(t, embedder, "the meeting room is on the third floor")

	p := NewProactiveRetriever(idx, embedder)
	msg, ok := p.ContextFor(context.Background(), "the meeting room is on the third floor")

	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "Relevant context from knowledge base: "))
	assert.Contains(t, msg, "the meeting room is on the third floor")
}

func TestContextFor_EmptyIndex(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	idx := seedIndex(t, embedder)

	p := NewProactiveRetriever(idx, embedder)
	msg, ok := p.ContextFor(context.Background(), "anything")

	assert.False(t, ok)
	assert.Empty(t, msg)
}

func TestContextFor_BlankUtterance(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	idx := seedIndex(t, mock.NewMockEmbedder(), "some fact")

	p := NewProactiveRetriever(idx, embedder)
	_, ok := p.ContextFor(context.Background(), "   ")
	assert.False(t, ok)
	assert.Zero(t, embedder.CallCount())
}

func TestContextFor_TimeoutAbandonsSearch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	idx := seedIndex(t, embedder, "some fact")
	slow := &slowIndex{Index: idx, delay: 200 * time.Millisecond}

	p := NewProactiveRetriever(slow, embedder, WithProactiveTimeout(20*time.Millisecond))

	start := time.Now()
	msg, ok := p.ContextFor(context.Background(), "some fact")
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Empty(t, msg)
	assert.Less(t, elapsed, 150*time.Millisecond, "must return at the deadline, not after the search")
}

func TestContextFor_EmbedderFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedder down")
	}
	idx := seedIndex(t, mock.NewMockEmbedder(), "some fact")

	p := NewProactiveRetriever(idx, embedder)
	_, ok := p.ContextFor(context.Background(), "some fact")
	assert.False(t, ok)
}
