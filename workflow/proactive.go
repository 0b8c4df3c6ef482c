package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/ragkit/ai"
	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/vecstore"
)

const (
	// DefaultProactiveTimeout bounds how long a proactive lookup may take
	// before the conversation proceeds without context.
	DefaultProactiveTimeout = time.Second

	proactiveTopK = 1
)

// ProactiveRetriever performs best-effort context lookups for live
// conversations. A lookup that misses its deadline is abandoned; the caller
// always gets an immediate answer about whether context is available.
type ProactiveRetriever struct {
	index       vecstore.Index
	embedder    ai.Embedder
	collections []string
	timeout     time.Duration
	logger      *slog.Logger
}

// ProactiveOption configures a ProactiveRetriever.
type ProactiveOption func(*ProactiveRetriever)

// WithProactiveTimeout overrides the lookup deadline.
func WithProactiveTimeout(timeout time.Duration) ProactiveOption {
	return func(p *ProactiveRetriever) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithProactiveCollections restricts lookups to the given collections.
// Default is all collections.
func WithProactiveCollections(collections []string) ProactiveOption {
	return func(p *ProactiveRetriever) {
		p.collections = collections
	}
}

// WithProactiveLogger sets a custom logger.
func WithProactiveLogger(logger *slog.Logger) ProactiveOption {
	return func(p *ProactiveRetriever) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProactiveRetriever creates a proactive retriever over the index.
func NewProactiveRetriever(index vecstore.Index, embedder ai.Embedder, opts ...ProactiveOption) *ProactiveRetriever {
	p := &ProactiveRetriever{
		index:    index,
		embedder: embedder,
		timeout:  DefaultProactiveTimeout,
		logger:   slog.Default().With("component", "proactive"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ContextFor looks up the single best-matching chunk for an utterance and
// returns it as an injectable context message. ok is false when nothing
// relevant was found, the lookup errored, or the deadline passed. ContextFor
// never blocks longer than the configured timeout.
func (p *ProactiveRetriever) ContextFor(ctx context.Context, utterance string) (string, bool) {
	if strings.TrimSpace(utterance) == "" {
		return "", false
	}

	type lookup struct {
		docs []core.RetrievedDoc
		err  error
	}
	done := make(chan lookup, 1)

	// The search keeps running after a timeout, but its result is dropped;
	// the buffered channel lets the goroutine exit either way.
	go func() {
		vector, err := p.embedder.EmbedText(ctx, utterance)
		if err != nil {
			done <- lookup{err: err}
			return
		}
		docs, err := p.index.Search(ctx, vecstore.Normalize(vector), p.collections, proactiveTopK)
		done <- lookup{docs: docs, err: err}
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case result := <-done:
		if result.err != nil {
			p.logger.Error("proactive lookup failed", "err", result.err)
			return "", false
		}
		if len(result.docs) == 0 {
			p.logger.Info("no proactive context found")
			return "", false
		}
		text := strings.TrimSpace(result.docs[0].Text)
		if text == "" {
			return "", false
		}
		p.logger.Info("proactive context found", "score", result.docs[0].Score)
		return fmt.Sprintf("Relevant context from knowledge base: %s", text), true
	case <-timer.C:
		p.logger.Warn("proactive lookup timed out, continuing without context")
		return "", false
	case <-ctx.Done():
		return "", false
	}
}
