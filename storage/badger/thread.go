package badger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/ragkit/core"
	"github.com/poiesic/ragkit/storage"
)

// ThreadRepository implements storage.ThreadRepository for BadgerDB.
type ThreadRepository struct {
	backend *Backend
}

var _ storage.ThreadRepository = (*ThreadRepository)(nil)

// NewThreadRepository creates a new ThreadRepository.
func NewThreadRepository(backend *Backend) *ThreadRepository {
	return &ThreadRepository{backend: backend}
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *ThreadRepository) Close() error {
	return nil
}

// SaveThread writes a whole thread under its id, replacing any prior version.
func (r *ThreadRepository) SaveThread(ctx context.Context, thread *core.Thread) error {
	thread.UpdatedAt = time.Now().UTC()

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeThreadKey(thread.Id)
		value := storage.MarshalThread(thread)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetThread loads a thread by id. Returns (nil, nil) when the thread has
// never been saved.
func (r *ThreadRepository) GetThread(ctx context.Context, id string) (*core.Thread, error) {
	var thread *core.Thread

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeThreadKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			thread, err = storage.UnmarshalThread(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return thread, nil
}

// DeleteThread removes a thread and its history.
func (r *ThreadRepository) DeleteThread(ctx context.Context, id string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeThreadKey(id)
		if _, err := tx.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		} else if err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListThreads returns the ids of all stored threads.
func (r *ThreadRepository) ListThreads(ctx context.Context) ([]string, error) {
	var ids []string
	prefix := threadPrefix + ":"

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := string(iter.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, prefix))
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return ids, nil
}
