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

package ragkit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragkit/ai"
	"github.com/poiesic/ragkit/ai/googleai"
	"github.com/poiesic/ragkit/ai/openai"
	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/ingest"
	"github.com/poiesic/ragkit/outbox"
	"github.com/poiesic/ragkit/storage"
	"github.com/poiesic/ragkit/storage/badger"
	"github.com/poiesic/ragkit/vecstore"
	"github.com/poiesic/ragkit/vecstore/memory"
	"github.com/poiesic/ragkit/workflow"
)

// Engine is the top-level facade: ingestion, retrieval, chat with durable
// conversation memory, and the audit journal, wired over one storage backend
// and one vector index.
type Engine struct {
	backend      *badger.Backend
	threadRepo   storage.ThreadRepository
	journalRepo  storage.JournalRepository
	index        vecstore.Index
	provider     ai.AIProvider
	orchestrator *ingest.Orchestrator
	workflow     *workflow.Workflow
	proactive    *workflow.ProactiveRetriever
	events       *outbox.Outbox
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig  *ai.Config
	index     vecstore.Index
	extractor ingest.Extractor
	provider  ai.AIProvider
	factory   ai.ChatModelFactory
	inMemory  bool
}

// WithAIConfig overrides the default AI provider configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithIndex plugs in an external vector index (for example a Qdrant server).
// Default is an in-process index.
func WithIndex(index vecstore.Index) EngineOption {
	return func(o *engineOptions) {
		if index != nil {
			o.index = index
		}
	}
}

// WithExtractor overrides the source extractor used for ingestion.
// Default reads plain-text files from disk.
func WithExtractor(extractor ingest.Extractor) EngineOption {
	return func(o *engineOptions) {
		if extractor != nil {
			o.extractor = extractor
		}
	}
}

// WithProvider plugs in a custom AI provider instead of the OpenAI-backed
// default. The provider's chat model is then used for every request
// regardless of the request's provider field.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		if provider != nil {
			o.provider = provider
			o.factory = func(ctx context.Context, name, apiKey string) (ai.ChatModel, error) {
				return provider.ChatModel(), nil
			}
		}
	}
}

// WithInMemoryStorage keeps threads and the journal in memory instead of on
// disk. Intended for tests.
func WithInMemoryStorage() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine opens the storage backend at filePath and wires the engine.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:  ai.DefaultConfig(),
		extractor: ingest.FileExtractor{},
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.index == nil {
		options.index = memory.New(options.aiConfig.Dimension)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	threadRepo := badger.NewThreadRepository(backend)

	journalRepo, err := badger.NewJournalRepository(backend)
	if err != nil {
		threadRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			journalRepo.Close()
			threadRepo.Close()
			backend.Close()
			return nil, err
		}
	}
	factory := options.factory
	if factory == nil {
		factory = NewChatModelFactory(options.aiConfig)
	}

	orchestrator, err := ingest.NewOrchestrator(options.index, provider.Embedder(), options.extractor)
	if err != nil {
		provider.Close()
		journalRepo.Close()
		threadRepo.Close()
		backend.Close()
		return nil, err
	}

	wf, err := workflow.New(options.index, provider.Embedder(), factory, threadRepo)
	if err != nil {
		orchestrator.Release()
		provider.Close()
		journalRepo.Close()
		threadRepo.Close()
		backend.Close()
		return nil, err
	}

	events, err := outbox.New(outbox.NewJournalSink(journalRepo))
	if err != nil {
		orchestrator.Release()
		provider.Close()
		journalRepo.Close()
		threadRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:      backend,
		threadRepo:   threadRepo,
		journalRepo:  journalRepo,
		index:        options.index,
		provider:     provider,
		orchestrator: orchestrator,
		workflow:     wf,
		proactive:    workflow.NewProactiveRetriever(options.index, provider.Embedder()),
		events:       events,
		logger:       slog.Default(),
	}, nil
}

// NewChatModelFactory assembles the closed set of supported chat providers.
// An empty API key falls back to the configured one.
func NewChatModelFactory(config *ai.Config) ai.ChatModelFactory {
	return func(ctx context.Context, provider, apiKey string) (ai.ChatModel, error) {
		resolved, err := ai.ResolveProvider(provider)
		if err != nil {
			return nil, err
		}
		if apiKey == "" {
			apiKey = config.APIKey
		}

		switch resolved {
		case ai.ProviderGemini:
			return googleai.NewChatModel(ctx, apiKey, "")
		default:
			cfg := *config
			cfg.APIKey = apiKey
			return openai.NewChatModel(&cfg)
		}
	}
}

// Ingest runs one ingestion batch into the logical collection.
func (e *Engine) Ingest(ctx context.Context, collection string, sources []core.Source) (*core.IngestionResult, error) {
	result, err := e.orchestrator.Ingest(ctx, collection, sources)
	if err != nil {
		return result, err
	}

	e.events.Publish(&core.Event{
		Kind:   core.EventIngestionCompleted,
		Detail: fmt.Sprintf("collection %s: %d chunks from %d sources", collection, result.TotalChunks, len(result.Succeeded)),
	})
	return result, nil
}

// RunChat answers one question through the retrieve then generate workflow.
func (e *Engine) RunChat(ctx context.Context, req workflow.ChatRequest) (*workflow.ChatResult, error) {
	result, err := e.workflow.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	e.events.Publish(&core.Event{
		Kind:     core.EventChatCompleted,
		ThreadId: result.ThreadId,
		Detail:   fmt.Sprintf("retrieved %d documents", len(result.Retrieved)),
	})
	return result, nil
}

// Search runs a raw similarity search without the chat workflow.
func (e *Engine) Search(ctx context.Context, query string, collections []string, topK int) ([]core.RetrievedDoc, error) {
	if topK == 0 {
		topK = workflow.DefaultTopK
	}
	if err := core.ValidateSearch(query, topK); err != nil {
		return nil, err
	}

	vector, err := e.provider.Embedder().EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.index.Search(ctx, vecstore.Normalize(vector), collections, topK)
}

// History returns the stored conversation turns for a thread.
func (e *Engine) History(ctx context.Context, threadID string) ([]core.Turn, error) {
	return e.workflow.History(ctx, threadID)
}

// DropCollection removes every chunk tagged with the logical collection.
// Must not run concurrently with ingestion or search.
func (e *Engine) DropCollection(ctx context.Context, name string) error {
	return e.index.DropCollection(ctx, name)
}

// Stats returns per-collection chunk counts.
func (e *Engine) Stats(ctx context.Context) (map[string]uint64, error) {
	return e.index.Stats(ctx)
}

// ProactiveContext performs a deadline-bounded lookup for a live utterance.
func (e *Engine) ProactiveContext(ctx context.Context, utterance string) (string, bool) {
	msg, ok := e.proactive.ContextFor(ctx, utterance)
	if ok {
		e.events.Publish(&core.Event{
			Kind:   core.EventContextInjected,
			Detail: utterance,
		})
	}
	return msg, ok
}

// RecentEvents reads the tail of the audit journal, most recent first.
func (e *Engine) RecentEvents(ctx context.Context, limit int) ([]*core.Event, error) {
	return e.journalRepo.Recent(ctx, limit)
}

// FlushEvents blocks until all published events are in the journal.
func (e *Engine) FlushEvents() {
	e.events.Flush()
}

// ThreadRepository exposes the underlying thread storage.
func (e *Engine) ThreadRepository() storage.ThreadRepository {
	return e.threadRepo
}

// Close shuts down the engine in dependency order.
func (e *Engine) Close() error {
	if err := e.events.Close(); err != nil {
		e.logger.Error("error closing outbox", "err", err)
	}
	e.orchestrator.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.index.Close(); err != nil {
		e.logger.Error("error closing vector index", "err", err)
	}

	if err := e.journalRepo.Close(); err != nil {
		e.logger.Error("error closing journal repository", "err", err)
		return err
	}
	if err := e.threadRepo.Close(); err != nil {
		e.logger.Error("error closing thread repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
