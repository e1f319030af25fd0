package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/storage"
)

// RequestLogRepository implements storage.RequestLogRepository for BadgerDB.
type RequestLogRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.RequestLogRepository = (*RequestLogRepository)(nil)

// NewRequestLogRepository creates a request log repository on backend.
func NewRequestLogRepository(backend *Backend) (storage.RequestLogRepository, error) {
	return newRequestLogRepository(backend)
}

func newRequestLogRepository(backend *Backend) (*RequestLogRepository, error) {
	idSeq, err := backend.GetSequence(requestLogIDSeq)
	if err != nil {
		return nil, err
	}
	return &RequestLogRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *RequestLogRepository) Close() error {
	return r.idSeq.Release()
}

// AddRequestLogs stores one or more request logs.
func (r *RequestLogRepository) AddRequestLogs(ctx context.Context, logs ...*core.RequestLog) ([]*core.RequestLog, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, log := range logs {
			if err := ctx.Err(); err != nil {
				return err
			}
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				if nextID, err = r.idSeq.Next(); err != nil {
					return err
				}
			}
			log.Id = core.ID(nextID)
			if log.Timestamp.IsZero() {
				log.Timestamp = time.Now().UTC()
			}

			if err := tx.Set(makeRequestLogKey(log.Id), storage.MarshalRequestLog(log)); err != nil {
				return err
			}
			if err := tx.Set(makeRequestLogDateKey(log.Timestamp, log.Id), storage.MarshalID(log.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return logs, err
}

// GetRequestLog retrieves a single request log by ID.
func (r *RequestLogRepository) GetRequestLog(ctx context.Context, id core.ID) (*core.RequestLog, error) {
	var result *core.RequestLog
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readRequestLog(tx, makeRequestLogKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetRequestLogsByDateRange retrieves logs where start <= Timestamp < end.
func (r *RequestLogRepository) GetRequestLogsByDateRange(ctx context.Context, start, end time.Time) ([]*core.RequestLog, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", storage.ErrInvalidQuery, end, start)
	}
	var results []*core.RequestLog
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		endKey := makePartialRequestLogDateKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(makePartialRequestLogDateKey(start)); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, []byte(requestLogDatePrefix+":")) || bytes.Compare(key, endKey) >= 0 {
				break
			}
			log, err := r.readIndexed(tx, iter.Item())
			if err != nil {
				return err
			}
			if log != nil {
				results = append(results, log)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetRecentRequestLogs retrieves the N most recent logs, most recent first.
func (r *RequestLogRepository) GetRecentRequestLogs(ctx context.Context, limit int) ([]*core.RequestLog, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}
	var results []*core.RequestLog
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent logs first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek to the last possible key of the date index
		prefix := []byte(requestLogDatePrefix + ":")
		startKey := append(bytes.Clone(prefix), bytes.Repeat([]byte{0xff}, 16)...)

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				break
			}
			log, err := r.readIndexed(tx, iter.Item())
			if err != nil {
				return err
			}
			if log != nil {
				results = append(results, log)
			}
		}
		return nil
	}, false)
	return results, err
}

// DeleteRequestLogsBefore removes logs older than cutoff.
func (r *RequestLogRepository) DeleteRequestLogsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	type doomed struct {
		indexKey []byte
		id       core.ID
	}
	var victims []doomed
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(requestLogDatePrefix + ":")
		endKey := makePartialRequestLogDateKey(cutoff)
		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) || bytes.Compare(key, endKey) >= 0 {
				break
			}
			id, err := storage.UnmarshalID(key[len(prefix)+8:])
			if err != nil {
				return err
			}
			victims = append(victims, doomed{indexKey: iter.Item().KeyCopy(nil), id: id})
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}

	// Delete in batches small enough to stay under badger's transaction limits.
	const batch = 500
	for i := 0; i < len(victims); i += batch {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		chunk := victims[i:min(i+batch, len(victims))]
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, v := range chunk {
				if err := tx.Delete(v.indexKey); err != nil {
					return err
				}
				if err := tx.Delete(makeRequestLogKey(v.id)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return i, err
		}
	}
	return len(victims), nil
}

// Helper methods

// readIndexed follows a date index entry to its log.
func (r *RequestLogRepository) readIndexed(tx *badger.Txn, item *badger.Item) (*core.RequestLog, error) {
	var id core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}
	return r.readRequestLog(tx, makeRequestLogKey(id))
}

// readRequestLog reads a request log from the transaction.
func (r *RequestLogRepository) readRequestLog(tx *badger.Txn, key []byte) (*core.RequestLog, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var log *core.RequestLog
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		log, unmarshalErr = storage.UnmarshalRequestLog(val)
		return unmarshalErr
	})
	return log, err
}
