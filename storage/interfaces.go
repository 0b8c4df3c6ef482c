package storage

import (
	"context"

	"github.com/poiesic/ragkit/core"
)

// ThreadRepository persists conversation threads. Implementations must be
// thread-safe and support concurrent access.
type ThreadRepository interface {
	// SaveThread writes a whole thread under its id, replacing any prior
	// version. UpdatedAt is set by the repository.
	SaveThread(ctx context.Context, thread *core.Thread) error

	// GetThread loads a thread by id.
	// Returns (nil, nil) when the thread has never been saved.
	GetThread(ctx context.Context, id string) (*core.Thread, error)

	// DeleteThread removes a thread and its history.
	// Returns ErrNotFound if the thread doesn't exist.
	DeleteThread(ctx context.Context, id string) error

	// ListThreads returns the ids of all stored threads.
	ListThreads(ctx context.Context) ([]string, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// JournalRepository is an append-only audit log of engine events.
type JournalRepository interface {
	// Append writes an event to the journal. The event id is assigned from
	// a monotonic sequence.
	Append(ctx context.Context, event *core.Event) error

	// Recent returns up to limit events, most recent first.
	Recent(ctx context.Context, limit int) ([]*core.Event, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
