package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/storage"
)

// JournalRepository implements storage.JournalRepository for BadgerDB.
// Events are keyed by a monotonic sequence so iteration order matches
// append order.
type JournalRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.JournalRepository = (*JournalRepository)(nil)

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(backend *Backend) (*JournalRepository, error) {
	seq, err := backend.GetSequence(journalEventSeq)
	if err != nil {
		return nil, err
	}
	return &JournalRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the event sequence.
func (r *JournalRepository) Close() error {
	return r.seq.Release()
}

// Append writes an event to the journal. The event id is assigned from the
// sequence and the timestamp is set if unset.
func (r *JournalRepository) Append(ctx context.Context, event *core.Event) error {
	next, err := r.seq.Next()
	if err != nil {
		return err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		next, err = r.seq.Next()
		if err != nil {
			return err
		}
	}
	event.Id = core.ID(next)
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeJournalKey(next), storage.MarshalEvent(event)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Recent returns up to limit events, most recent first.
func (r *JournalRepository) Recent(ctx context.Context, limit int) ([]*core.Event, error) {
	var events []*core.Event

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(journalPrefix + ":")
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// With Reverse, seek past the end of the prefix range and walk back.
		seek := append([]byte(journalPrefix+":"), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for iter.Seek(seek); iter.Valid() && len(events) < limit; iter.Next() {
			var event *core.Event
			err := iter.Item().Value(func(val []byte) error {
				var err error
				event, err = storage.UnmarshalEvent(val)
				return err
			})
			if err != nil {
				return err
			}
			events = append(events, event)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return events, nil
}
