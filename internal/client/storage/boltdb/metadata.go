package boltdb

import (
	"context"
	"encoding/binary"

	"go.etcd.io/bbolt"
)

// GetLastSyncID returns the last persisted pull cursor (0 if never synced)
func (s *Storage) GetLastSyncID(ctx context.Context) (int64, error) {
	var id int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyLastSyncID)
		if data == nil {
			return nil
		}
		id = int64(binary.BigEndian.Uint64(data)) //nolint:gosec // курсор неотрицателен
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// SaveLastSyncID persists the pull cursor
func (s *Storage) SaveLastSyncID(ctx context.Context, id int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyLastSyncID, itob(uint64(id))) //nolint:gosec
	})
}
