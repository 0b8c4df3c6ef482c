package ingest

import "errors"

var (
	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrAllSourcesFailed is returned when every source in a batch failed
	// extraction and nothing was indexed.
	ErrAllSourcesFailed = errors.New("all sources failed extraction")

	// ErrNoChunks is returned when extraction succeeded for at least one
	// source but none of them produced any chunk. Nothing is indexed.
	ErrNoChunks = errors.New("no data extracted from any source")
)
