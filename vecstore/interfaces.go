package vecstore

import (
	"context"

	"github.com/poiesic/ragkit/core"
)

// Index is a similarity-search service over one physical vector collection
// multiplexed into logical collections by a metadata tag. Implementations
// must be safe for concurrent Upsert and Search; DropCollection is a rebuild
// and must be externally serialized against concurrent upserts.
type Index interface {
	// EnsureCollection idempotently creates the physical collection (cosine
	// similarity, fixed dimension) and the keyword index on the logical
	// collection tag. Calling it when both exist is a no-op, not an error.
	EnsureCollection(ctx context.Context) error

	// Upsert inserts or replaces chunks by id. Each chunk payload carries
	// text, chunk index, and logical collection tag.
	Upsert(ctx context.Context, chunks []*core.Chunk) error

	// Search returns up to topK hits ordered by descending similarity score.
	// A non-empty collections set restricts results to chunks whose tag is a
	// member of the set (logical OR); an empty set spans all collections.
	Search(ctx context.Context, vector []float32, collections []string, topK int) ([]core.RetrievedDoc, error)

	// DropCollection removes every chunk tagged with name by rebuilding the
	// physical collection from the chunks NOT tagged with it. Expensive and
	// non-atomic; callers must serialize it against concurrent ingestion.
	DropCollection(ctx context.Context, name string) error

	// Stats returns the number of stored chunks per logical collection.
	Stats(ctx context.Context) (map[string]uint64, error)

	// Close releases resources held by the index.
	Close() error
}
