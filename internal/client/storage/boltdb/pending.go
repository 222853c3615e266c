package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/schoolsync/internal/client/storage"
)

// EnqueueChange appends a change to the pending queue.
// Sequence numbers come from the bucket's NextSequence, so queue order
// survives restarts and is strictly the order of local edits.
func (s *Storage) EnqueueChange(ctx context.Context, change *storage.PendingChange) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPending)

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		change.Seq = seq

		data, err := json.Marshal(change)
		if err != nil {
			return fmt.Errorf("failed to marshal pending change: %w", err)
		}

		return b.Put(itob(seq), data)
	})
}

// ListPending retrieves all pending changes in queue order
// Returns empty slice if the queue is empty
func (s *Storage) ListPending(ctx context.Context) ([]*storage.PendingChange, error) {
	var changes []*storage.PendingChange

	err := s.db.View(func(tx *bbolt.Tx) error {
		// Big-endian ключи — ForEach идет в порядке очереди
		return tx.Bucket(bucketPending).ForEach(func(k, v []byte) error {
			change := &storage.PendingChange{}
			if err := json.Unmarshal(v, change); err != nil {
				return fmt.Errorf("failed to unmarshal pending change: %w", err)
			}
			changes = append(changes, change)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return changes, nil
}

// DeletePending removes a pending change by sequence number
func (s *Storage) DeletePending(ctx context.Context, seq uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPending)
		if b.Get(itob(seq)) == nil {
			return storage.ErrPendingNotFound
		}
		return b.Delete(itob(seq))
	})
}
