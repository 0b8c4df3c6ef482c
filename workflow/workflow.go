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

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/ragkit/ai"
	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/storage"
	"github.com/poiesic/ragkit/vecstore"
)

const (
	// DefaultTopK is the retrieval depth when the request leaves it unset.
	DefaultTopK = 5

	// DefaultThreadID names the conversation thread used when none is given.
	DefaultThreadID = "default"

	// contextCharBudget bounds how much formatted context enters the prompt.
	contextCharBudget = 3000
	truncationMarker  = "... [content truncated]"

	// historyWindow is how many past turns enter the prompt, with each
	// answer previewed to answerPreviewLimit characters.
	historyWindow      = 2
	answerPreviewLimit = 150
)

// Placeholder contexts produced by the retrieve step. The generate step keys
// off these to decide whether usable context exists.
const (
	noDocsContext      = "No relevant documents found in the knowledge base."
	retrieveErrContext = "Error retrieving documents from knowledge base."
)

// Fixed answers for degraded paths. The workflow always completes with an
// answer; it never surfaces retrieval or generation failures to the caller.
const (
	insufficientInfoAnswer = "I don't have enough information in the knowledge base to answer your question. Please try rephrasing or ask about a different topic."
	generationErrAnswer    = "I encountered an error while generating the answer. Please try again."
	runErrAnswer           = "An error occurred while processing your request."
)

// ChatRequest carries one question through the workflow.
type ChatRequest struct {
	Query        string
	Collections  []string // Logical collections to search; empty means all
	TopK         int      // Retrieval depth; 0 means DefaultTopK
	ThreadId     string   // Conversation thread; "" means DefaultThreadID
	SystemPrompt string   // Optional system prompt override
	Provider     string   // "openai" (default) or "gemini"
	APIKey       string
	SkipHistory  bool // Neither load nor persist conversation memory
}

// ChatResult is the outcome of one workflow run.
type ChatResult struct {
	Answer    string
	Retrieved []core.RetrievedDoc
	Context   string
	ThreadId  string
	History   []core.Turn // Including the turn just completed
}

// Workflow runs the two-step retrieve then generate pipeline with durable
// thread-scoped conversation memory.
type Workflow struct {
	index    vecstore.Index
	embedder ai.Embedder
	factory  ai.ChatModelFactory
	threads  storage.ThreadRepository
	cache    *ClientCache
	logger   *slog.Logger
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClientCache shares a client cache across workflows.
func WithClientCache(cache *ClientCache) Option {
	return func(w *Workflow) {
		if cache != nil {
			w.cache = cache
		}
	}
}

// New creates a workflow. The thread repository may be nil, in which case
// conversation memory is disabled and every run behaves as if SkipHistory
// were set.
func New(
	index vecstore.Index,
	embedder ai.Embedder,
	factory ai.ChatModelFactory,
	threads storage.ThreadRepository,
	opts ...Option,
) (*Workflow, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if factory == nil {
		return nil, ErrFactoryRequired
	}

	w := &Workflow{
		index:    index,
		embedder: embedder,
		factory:  factory,
		threads:  threads,
		cache:    NewClientCache(),
		logger:   slog.Default().With("component", "workflow"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// ClearClientCache drops all memoized chat clients.
func (w *Workflow) ClearClientCache() {
	w.cache.Clear()
}

// runState carries intermediate values between the retrieve and generate
// steps of one run.
type runState struct {
	query     string
	retrieved []core.RetrievedDoc
	context   string
	answer    string
	history   []core.Turn
}

// Run executes retrieve then generate for one question and persists the
// completed turn to the request's thread. Degraded dependencies (index down,
// unknown provider, LLM failure) produce fixed answers instead of errors;
// the only error returned is input validation.
func (w *Workflow) Run(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	topK := req.TopK
	if topK == 0 {
		topK = DefaultTopK
	}
	if err := core.ValidateSearch(req.Query, topK); err != nil {
		return nil, err
	}

	// An anonymous request starts fresh: history is only looked up when the
	// caller names a thread. The completed turn still persists, under the
	// default thread when none was given.
	threadID := req.ThreadId
	loadHistory := !req.SkipHistory && w.threads != nil && threadID != ""
	if threadID == "" {
		threadID = DefaultThreadID
	}

	state := &runState{query: req.Query}

	if loadHistory {
		thread, err := w.threads.GetThread(ctx, threadID)
		if err != nil {
			w.logger.Debug("no previous conversation history", "thread", threadID, "err", err)
		} else if thread != nil {
			state.history = thread.Turns
		}
	}

	w.retrieve(ctx, state, req.Collections, topK)
	w.generate(ctx, state, req.Provider, req.APIKey, req.SystemPrompt)

	if state.answer == "" {
		state.answer = runErrAnswer
	}

	state.history = append(state.history, core.Turn{Query: state.query, Answer: state.answer})

	if !req.SkipHistory && w.threads != nil {
		thread := &core.Thread{Id: threadID, Turns: state.history}
		if err := w.threads.SaveThread(ctx, thread); err != nil {
			w.logger.Error("error persisting conversation thread", "thread", threadID, "err", err)
		}
	}

	return &ChatResult{
		Answer:    state.answer,
		Retrieved: state.retrieved,
		Context:   state.context,
		ThreadId:  threadID,
		History:   state.history,
	}, nil
}

// History returns the stored turns for a thread. Missing threads and load
// errors both yield an empty history.
func (w *Workflow) History(ctx context.Context, threadID string) ([]core.Turn, error) {
	if w.threads == nil {
		return nil, nil
	}
	thread, err := w.threads.GetThread(ctx, threadID)
	if err != nil {
		w.logger.Error("error loading conversation history", "thread", threadID, "err", err)
		return nil, nil
	}
	if thread == nil {
		return nil, nil
	}
	return thread.Turns, nil
}

// retrieve embeds the query, searches the index, and formats the hits into
// the prompt context. Failures degrade to a placeholder context.
func (w *Workflow) retrieve(ctx context.Context, state *runState, collections []string, topK int) {
	w.logger.Info("retrieving documents", "query", state.query, "topK", topK)

	vector, err := w.embedder.EmbedText(ctx, state.query)
	if err != nil {
		w.logger.Error("error embedding query", "err", err)
		state.context = retrieveErrContext
		return
	}

	docs, err := w.index.Search(ctx, vecstore.Normalize(vector), collections, topK)
	if err != nil {
		w.logger.Error("error searching index", "err", err)
		state.context = retrieveErrContext
		return
	}

	if len(docs) == 0 {
		w.logger.Info("no documents retrieved")
		state.context = noDocsContext
		return
	}

	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = fmt.Sprintf("Document %d (Score: %.3f):\n%s", i+1, doc.Score, doc.Text)
	}
	state.retrieved = docs
	state.context = strings.Join(parts, "\n\n")
	w.logger.Info("retrieved documents", "count", len(docs))
}

// generate builds the prompt from context and history and invokes the chat
// model. Every failure path sets a fixed answer; generate never errors.
func (w *Workflow) generate(ctx context.Context, state *runState, provider, apiKey, systemPrompt string) {
	historyContext := formatHistory(state.history)
	hasContext := state.context != "" &&
		state.context != noDocsContext &&
		state.context != retrieveErrContext

	var prompt string
	switch {
	case hasContext:
		prompt = buildRAGPrompt(truncateContext(state.context), state.query)
		if historyContext != "" {
			prompt = historyContext + "\n\n" + prompt
		}
	case historyContext != "":
		prompt = fmt.Sprintf("%s\n\nCurrent question: %s\n\nPlease answer based on our conversation history.", historyContext, state.query)
	default:
		// Nothing to ground an answer on; skip the model entirely.
		state.answer = insufficientInfoAnswer
		return
	}

	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}

	model, err := w.chatModel(ctx, provider, apiKey)
	if err != nil {
		w.logger.Error("error constructing chat model", "provider", provider, "err", err)
		state.answer = generationErrAnswer
		return
	}

	answer, err := model.GenerateText(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleHuman, Content: prompt},
	})
	if err != nil {
		w.logger.Error("error generating answer", "err", err)
		state.answer = generationErrAnswer
		return
	}

	state.answer = answer
	w.logger.Info("answer generated")
}

// chatModel resolves the provider name and pulls the client from the cache.
func (w *Workflow) chatModel(ctx context.Context, provider, apiKey string) (ai.ChatModel, error) {
	resolved, err := ai.ResolveProvider(provider)
	if err != nil {
		return nil, err
	}
	return w.cache.GetOrCreate(ctx, resolved, apiKey, w.factory)
}

// truncateContext enforces the character budget on the formatted context.
func truncateContext(context string) string {
	if len(context) <= contextCharBudget {
		return context
	}
	return truncate(context, contextCharBudget) + truncationMarker
}

// truncate cuts s to at most limit bytes, backing off so a multi-byte rune
// is never split.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// formatHistory renders the trailing window of past turns for the prompt.
// Answers are previewed so long generations do not crowd out the question.
func formatHistory(history []core.Turn) string {
	if len(history) == 0 {
		return ""
	}
	start := len(history) - historyWindow
	if start < 0 {
		start = 0
	}

	items := make([]string, 0, historyWindow)
	for _, turn := range history[start:] {
		answer := turn.Answer
		if len(answer) > answerPreviewLimit {
			answer = truncate(answer, answerPreviewLimit) + "..."
		}
		items = append(items, fmt.Sprintf("User: %s\nAssistant: %s", turn.Query, answer))
	}
	return "\n\nPrevious conversation:\n" + strings.Join(items, "\n\n")
}
