package outbox

import (
	"context"

	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/storage"
)

// JournalSink persists events to a journal repository.
type JournalSink struct {
	journal storage.JournalRepository
}

var _ Sink = (*JournalSink)(nil)

// NewJournalSink wraps a journal repository as an outbox sink.
func NewJournalSink(journal storage.JournalRepository) *JournalSink {
	return &JournalSink{journal: journal}
}

// Write appends the event to the journal.
func (s *JournalSink) Write(ctx context.Context, event *core.Event) error {
	return s.journal.Append(ctx, event)
}
