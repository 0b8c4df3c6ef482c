package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragkit/ai"
	"github.com/poiesic/ragkit/ai/mock"
	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/storage/badger"
	"github.com/poiesic/ragkit/vecstore"
	"github.com/poiesic/ragkit/vecstore/memory"
)

type fixture struct {
	workflow *Workflow
	index    *memory.Index
	embedder *mock.MockEmbedder
	chat     *mock.MockChatModel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	idx := memory.New(384)
	require.NoError(t, idx.EnsureCollection(context.Background()))
	t.Cleanup(func() { idx.Close() })

	threadRepo, journalRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { journalRepo.Close(); threadRepo.Close(); backend.Close() })

	embedder := mock.NewMockEmbedder()
	chat := mock.NewMockChatModel()
	factory := func(ctx context.Context, provider, apiKey string) (ai.ChatModel, error) {
		return chat, nil
	}

	w, err := New(idx, embedder, factory, threadRepo)
	require.NoError(t, err)

	return &fixture{workflow: w, index: idx, embedder: embedder, chat: chat}
}

// seed indexes one chunk per text under the collection, embedding with the
// deterministic mock embedder so the same text can be found again by query.
func (f *fixture) seed(t *testing.T, collection string, texts ...string) {
	t.Helper()
	ctx := context.Background()
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		vec, err := f.embedder.EmbedText(ctx, text)
		require.NoError(t, err)
		chunks[i] = &core.Chunk{
			Id:         core.IDFromContent(text),
			Text:       text,
			Vector:     vecstore.Normalize(vec),
			Collection: collection,
			ChunkIndex: i,
		}
	}
	require.NoError(t, f.index.Upsert(ctx, chunks))
}

func promptText(messages []ai.Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func TestRun_AnswersFromRetrievedContext(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "kb", "the capital of france is paris")
	f.chat.Answer = "Paris."

	result, err := f.workflow.Run(context.Background(), ChatRequest{
		Query:       "the capital of france is paris",
		Collections: []string{"kb"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Paris.", result.Answer)
	assert.Equal(t, DefaultThreadID, result.ThreadId)
	require.NotEmpty(t, result.Retrieved)
	assert.Contains(t, result.Context, "Document 1 (Score:")
	assert.Contains(t, result.Context, "the capital of france is paris")

	prompt := promptText(f.chat.LastPrompt())
	assert.Contains(t, prompt, SystemPrompt)
	assert.Contains(t, prompt, "Context from knowledge base:")
	assert.Contains(t, prompt, "User Question: the capital of france is paris")
}

func TestRun_ShortCircuitsWithoutContextOrHistory(t *testing.T) {
	f := newFixture(t)

	result, err := f.workflow.Run(context.Background(), ChatRequest{Query: "anything at all"})
	require.NoError(t, err)

	assert.Equal(t, insufficientInfoAnswer, result.Answer)
	assert.Equal(t, noDocsContext, result.Context)
	assert.Empty(t, result.Retrieved)
	assert.Zero(t, f.chat.CallCount(), "model must not be invoked without grounding")
}

func TestRun_HistoryOnlyPrompt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "kb", "widget assembly requires a torque wrench")

	// First turn grounded in the index.
	_, err := f.workflow.Run(ctx, ChatRequest{
		Query:       "widget assembly requires a torque wrench",
		Collections: []string{"kb"},
		ThreadId:    "t1",
	})
	require.NoError(t, err)

	// Second turn retrieves nothing but has conversation history.
	f.chat.Reset()
	result, err := f.workflow.Run(ctx, ChatRequest{
		Query:       "zzzzzz unrelated follow up zzzzzz",
		Collections: []string{"empty-collection"},
		ThreadId:    "t1",
	})
	require.NoError(t, err)

	assert.NotEqual(t, insufficientInfoAnswer, result.Answer)
	require.Equal(t, 1, f.chat.CallCount())
	prompt := promptText(f.chat.LastPrompt())
	assert.Contains(t, prompt, "Previous conversation:")
	assert.Contains(t, prompt, "User: widget assembly requires a torque wrench")
	assert.Contains(t, prompt, "Please answer based on our conversation history.")
}

func TestRun_HistoryPersistsAcrossRuns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "kb", "alpha fact", "beta fact")

	for _, q := range []string{"alpha fact", "beta fact"} {
		_, err := f.workflow.Run(ctx, ChatRequest{Query: q, Collections: []string{"kb"}, ThreadId: "t1"})
		require.NoError(t, err)
	}

	history, err := f.workflow.History(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "alpha fact", history[0].Query)
	assert.Equal(t, "beta fact", history[1].Query)

	// Prior turns appear in the next prompt.
	_, err = f.workflow.Run(ctx, ChatRequest{Query: "alpha fact", Collections: []string{"kb"}, ThreadId: "t1"})
	require.NoError(t, err)
	prompt := promptText(f.chat.LastPrompt())
	assert.Contains(t, prompt, "Previous conversation:")
	assert.Contains(t, prompt, "User: beta fact")
}

func TestRun_AnonymousRequestStartsFresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "kb", "the sky is blue")

	// Two runs without a thread id: the second must not see the first
	// turn, even though both persist under the default thread.
	for i := 0; i < 2; i++ {
		_, err := f.workflow.Run(ctx, ChatRequest{
			Query:       "the sky is blue",
			Collections: []string{"kb"},
		})
		require.NoError(t, err)
	}
	prompt := promptText(f.chat.LastPrompt())
	assert.NotContains(t, prompt, "Previous conversation:")

	history, err := f.workflow.History(ctx, DefaultThreadID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// Naming the default thread explicitly does load its history.
	_, err = f.workflow.Run(ctx, ChatRequest{
		Query:       "the sky is blue",
		Collections: []string{"kb"},
		ThreadId:    DefaultThreadID,
	})
	require.NoError(t, err)
	assert.Contains(t, promptText(f.chat.LastPrompt()), "Previous conversation:")
}

func TestRun_SkipHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "kb", "some indexed fact")

	_, err := f.workflow.Run(ctx, ChatRequest{
		Query:       "some indexed fact",
		Collections: []string{"kb"},
		ThreadId:    "ephemeral",
		SkipHistory: true,
	})
	require.NoError(t, err)

	history, err := f.workflow.History(ctx, "ephemeral")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRun_GenerationFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "kb", "indexed fact")
	f.chat.GenerateTextFunc = func(ctx context.Context, messages []ai.Message) (string, error) {
		return "", errors.New("model unavailable")
	}

	result, err := f.workflow.Run(context.Background(), ChatRequest{
		Query:       "indexed fact",
		Collections: []string{"kb"},
	})
	require.NoError(t, err)
	assert.Equal(t, generationErrAnswer, result.Answer)
}

func TestRun_UnknownProviderDegrades(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "kb", "indexed fact")

	result, err := f.workflow.Run(context.Background(), ChatRequest{
		Query:       "indexed fact",
		Collections: []string{"kb"},
		Provider:    "no-such-provider",
	})
	require.NoError(t, err)
	assert.Equal(t, generationErrAnswer, result.Answer)
}

func TestRun_ValidatesQuery(t *testing.T) {
	f := newFixture(t)
	_, err := f.workflow.Run(context.Background(), ChatRequest{Query: "   "})
	assert.ErrorIs(t, err, core.ErrEmptyQuery)
}

func TestFormatHistory_WindowAndPreview(t *testing.T) {
	long := strings.Repeat("x", 400)
	history := []core.Turn{
		{Query: "q1", Answer: "a1"},
		{Query: "q2", Answer: "a2"},
		{Query: "q3", Answer: long},
	}

	formatted := formatHistory(history)
	assert.NotContains(t, formatted, "User: q1", "only the trailing window is kept")
	assert.Contains(t, formatted, "User: q2")
	assert.Contains(t, formatted, "User: q3")
	assert.Contains(t, formatted, long[:answerPreviewLimit]+"...")
	assert.NotContains(t, formatted, long)

	assert.Empty(t, formatHistory(nil))
}

func TestTruncateContext(t *testing.T) {
	short := "short context"
	assert.Equal(t, short, truncateContext(short))

	long := strings.Repeat("y", contextCharBudget+500)
	truncated := truncateContext(long)
	assert.Len(t, truncated, contextCharBudget+len(truncationMarker))
	assert.True(t, strings.HasSuffix(truncated, truncationMarker))
}

func TestTruncateContext_RuneBoundary(t *testing.T) {
	// Offset the three-byte runes so the budget lands mid-rune; the cut
	// must back off instead of emitting invalid UTF-8.
	long := "x" + strings.Repeat("界", contextCharBudget)
	truncated := truncateContext(long)
	assert.True(t, utf8.ValidString(truncated))
	assert.True(t, strings.HasSuffix(truncated, truncationMarker))
	assert.LessOrEqual(t, len(truncated), contextCharBudget+len(truncationMarker))
}

func TestFormatHistory_PreviewRuneBoundary(t *testing.T) {
	long := "ab" + strings.Repeat("界", answerPreviewLimit)
	formatted := formatHistory([]core.Turn{{Query: "q", Answer: long}})
	assert.True(t, utf8.ValidString(formatted))
	assert.NotContains(t, formatted, long)
}

func TestClientCache(t *testing.T) {
	cache := NewClientCache()
	ctx := context.Background()

	calls := 0
	factory := func(ctx context.Context, provider, apiKey string) (ai.ChatModel, error) {
		calls++
		return mock.NewMockChatModel(), nil
	}

	first, err := cache.GetOrCreate(ctx, "openai", "key-a", factory)
	require.NoError(t, err)
	second, err := cache.GetOrCreate(ctx, "openai", "key-a", factory)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	_, err = cache.GetOrCreate(ctx, "openai", "key-b", factory)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, cache.Len())

	cache.Clear()
	assert.Zero(t, cache.Len())
	_, err = cache.GetOrCreate(ctx, "openai", "key-a", factory)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestClientCache_FactoryErrorNotCached(t *testing.T) {
	cache := NewClientCache()
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := cache.GetOrCreate(ctx, "openai", "k", func(ctx context.Context, provider, apiKey string) (ai.ChatModel, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, cache.Len())
}
