package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/storage/badger"
)

// recordingSink collects written events, optionally slowly or with errors.
type recordingSink struct {
	mu     sync.Mutex
	events []*core.Event
	delay  time.Duration
	err    error
}

func (s *recordingSink) Write(ctx context.Context, event *core.Event) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestOutbox_PublishAndFlush(t *testing.T) {
	sink := &recordingSink{}
	o, err := New(sink)
	require.NoError(t, err)
	defer o.Close()

	for i := 0; i < 10; i++ {
		o.Publish(&core.Event{Kind: core.EventChatCompleted, ThreadId: "default"})
	}
	o.Flush()

	assert.Equal(t, 10, sink.count())
}

func TestOutbox_PublishNeverBlocksWhenFull(t *testing.T) {
	sink := &recordingSink{delay: 50 * time.Millisecond}
	o, err := New(sink, WithBufferSize(1))
	require.NoError(t, err)
	defer o.Close()

	start := time.Now()
	for i := 0; i < 20; i++ {
		o.Publish(&core.Event{Kind: core.EventContextInjected})
	}
	assert.Less(t, time.Since(start), 40*time.Millisecond, "publish must not wait on the worker")
}

func TestOutbox_CloseDrains(t *testing.T) {
	sink := &recordingSink{}
	o, err := New(sink)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		o.Publish(&core.Event{Kind: core.EventIngestionCompleted})
	}
	require.NoError(t, o.Close())

	assert.Equal(t, 5, sink.count())

	// Publishing after close drops silently.
	o.Publish(&core.Event{Kind: core.EventChatCompleted})
	assert.Equal(t, 5, sink.count())

	// Close is idempotent.
	require.NoError(t, o.Close())
}

func TestOutbox_SinkErrorDoesNotStopWorker(t *testing.T) {
	sink := &recordingSink{err: errors.New("journal unavailable")}
	o, err := New(sink)
	require.NoError(t, err)
	defer o.Close()

	o.Publish(&core.Event{Kind: core.EventChatCompleted})
	o.Flush()

	sink.err = nil
	o.Publish(&core.Event{Kind: core.EventChatCompleted})
	o.Flush()

	assert.Equal(t, 1, sink.count())
}

func TestOutbox_RequiresSink(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrSinkRequired)
}

func TestJournalSink_PersistsEvents(t *testing.T) {
	threadRepo, journalRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { journalRepo.Close(); threadRepo.Close(); backend.Close() }()

	o, err := New(NewJournalSink(journalRepo))
	require.NoError(t, err)
	defer o.Close()

	o.Publish(&core.Event{Kind: core.EventChatCompleted, ThreadId: "t1", Detail: "5 documents"})
	o.Publish(&core.Event{Kind: core.EventIngestionCompleted, Detail: "12 chunks"})
	o.Flush()

	events, err := journalRepo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, core.EventIngestionCompleted, events[0].Kind)
	assert.Equal(t, core.EventChatCompleted, events[1].Kind)
}
