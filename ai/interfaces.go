package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use. Embedders do not
// retry internally; provider failures propagate to the caller.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Role identifies the author of a chat message.
type Role int

const (
	// RoleSystem carries instructions for the model.
	RoleSystem Role = iota + 1
	// RoleHuman carries user input.
	RoleHuman
)

// Message is one entry in a chat prompt.
type Message struct {
	Role    Role
	Content string
}

// ChatModel generates text from a sequence of chat messages.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// GenerateText invokes the model with the given messages and returns its
	// text completion. Returns an error if the provider call fails.
	GenerateText(ctx context.Context, messages []Message) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and ChatModel instances, ensuring
// they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ChatModel returns the text generation service.
	// The returned ChatModel is safe for concurrent use.
	ChatModel() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
