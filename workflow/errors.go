package workflow

import "errors"

var (
	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrFactoryRequired is returned when a chat model factory is not provided.
	ErrFactoryRequired = errors.New("chat model factory required")
)
