package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/ragkit/ai"
	"github.com/poiesic/ragkit/chunker"
	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/vecstore"
)

const (
	// embedBatchSize bounds how many chunk texts go to the embedder per call.
	embedBatchSize = 100
)

// Orchestrator runs ingestion batches: extract sources concurrently, chunk
// the extracted text, embed everything, and upsert into the vector index.
// One failing source never aborts the batch; its failure is reported in the
// result alongside the sources that succeeded.
type Orchestrator struct {
	index     vecstore.Index
	embedder  ai.Embedder
	extractor Extractor
	chunker   *chunker.Chunker
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithPoolSize sets the worker pool size for concurrent extraction.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}
		if o.pool != nil {
			o.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		o.pool = pool
		return nil
	}
}

// WithChunker sets a custom chunker.
func WithChunker(c *chunker.Chunker) Option {
	return func(o *Orchestrator) error {
		if c != nil {
			o.chunker = c
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an ingestion orchestrator.
func NewOrchestrator(
	index vecstore.Index,
	embedder ai.Embedder,
	extractor Extractor,
	opts ...Option,
) (*Orchestrator, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		index:     index,
		embedder:  embedder,
		extractor: extractor,
		chunker:   chunker.New(),
		pool:      pool,
		logger:    slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if optErr := opt(o); optErr != nil {
			o.Release()
			return nil, optErr
		}
	}

	return o, nil
}

// extraction is the fan-in record for one source.
type extraction struct {
	text string
	err  error
}

// Ingest extracts, chunks, embeds, and indexes the given sources under the
// logical collection. Extraction runs concurrently; chunk indices are assigned
// after fan-in, in source submission order, so they are continuous and
// gap-free across the batch regardless of which source finished first.
func (o *Orchestrator) Ingest(ctx context.Context, collection string, sources []core.Source) (*core.IngestionResult, error) {
	if err := core.ValidateIngestion(collection, sources); err != nil {
		return nil, err
	}
	if err := o.index.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	// Fan-out extraction. Results land in submission-order slots so the
	// batch outcome is independent of completion order.
	extractions := make([]extraction, len(sources))
	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		submitErr := o.pool.Submit(func() {
			defer wg.Done()
			text, err := o.extractor.Extract(ctx, source)
			extractions[i] = extraction{text: text, err: err}
		})
		if submitErr != nil {
			extractions[i] = extraction{err: submitErr}
			wg.Done()
		}
	}
	wg.Wait()

	result := &core.IngestionResult{}
	var chunks []*core.Chunk
	nextIndex := 0

	for i, source := range sources {
		label := source.DisplayLabel()
		if extractions[i].err != nil {
			o.logger.Warn("source extraction failed", "source", label, "err", extractions[i].err)
			result.Failed = append(result.Failed, core.SourceFailure{
				Label: label,
				Err:   extractions[i].err.Error(),
			})
			continue
		}

		pieces, err := o.chunker.Split(extractions[i].text)
		if err != nil {
			result.Failed = append(result.Failed, core.SourceFailure{
				Label: label,
				Err:   err.Error(),
			})
			continue
		}

		for _, piece := range pieces {
			chunks = append(chunks, &core.Chunk{
				Id:         core.IDFromContent(fmt.Sprintf("%s:%d:%s", collection, nextIndex, piece)),
				Text:       piece,
				Collection: collection,
				ChunkIndex: nextIndex,
			})
			nextIndex++
		}
		result.Succeeded = append(result.Succeeded, core.SourceChunks{
			Label:  label,
			Chunks: len(pieces),
		})
	}

	if len(result.Succeeded) == 0 {
		causes := make([]string, len(result.Failed))
		for i, failure := range result.Failed {
			causes[i] = fmt.Sprintf("%s: %s", failure.Label, failure.Err)
		}
		return result, fmt.Errorf("%w: %s", ErrAllSourcesFailed, strings.Join(causes, "; "))
	}

	// A batch must yield at least one chunk; sources that extract cleanly
	// but produce only empty text fail the ingestion as a whole.
	if len(chunks) == 0 {
		o.logger.Warn("ingestion produced no chunks", "collection", collection)
		return result, ErrNoChunks
	}
	result.TotalChunks = len(chunks)

	if err := o.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}
	if err := o.index.Upsert(ctx, chunks); err != nil {
		return nil, err
	}

	o.logger.Info("ingestion completed",
		"collection", collection,
		"sources", len(sources),
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
		"chunks", result.TotalChunks)

	return result, nil
}

// embedChunks embeds chunk texts in bounded batches and normalizes the
// resulting vectors in place.
func (o *Orchestrator) embedChunks(ctx context.Context, chunks []*core.Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, end-start)
		for i, chunk := range chunks[start:end] {
			texts[i] = chunk.Text
		}

		vectors, err := o.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch: %w", err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}

		for i, vector := range vectors {
			chunks[start+i].Vector = vecstore.Normalize(vector)
		}
	}
	return nil
}

// Release releases the worker pool.
// The orchestrator should not be used after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}
