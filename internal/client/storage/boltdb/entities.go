package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/schoolsync/internal/client/storage"
	"github.com/iudanet/schoolsync/internal/models"
)

// SaveEntity stores or overwrites a local entity
func (s *Storage) SaveEntity(ctx context.Context, entityType string, entity *models.Entity) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketEntities).CreateBucketIfNotExists([]byte(entityType))
		if err != nil {
			return fmt.Errorf("failed to create entity bucket: %w", err)
		}
		return b.Put([]byte(entity.ID), data)
	})
}

// GetEntity retrieves a local entity by type and id
// Returns ErrEntityNotFound if absent
func (s *Storage) GetEntity(ctx context.Context, entityType, entityID string) (*models.Entity, error) {
	var entity *models.Entity

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntities).Bucket([]byte(entityType))
		if b == nil {
			return storage.ErrEntityNotFound
		}

		data := b.Get([]byte(entityID))
		if data == nil {
			return storage.ErrEntityNotFound
		}

		entity = &models.Entity{}
		if err := json.Unmarshal(data, entity); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// ListEntities retrieves all local entities of a type
// Returns empty slice if none found
func (s *Storage) ListEntities(ctx context.Context, entityType string) ([]*models.Entity, error) {
	var entities []*models.Entity

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntities).Bucket([]byte(entityType))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			entity := &models.Entity{}
			if err := json.Unmarshal(v, entity); err != nil {
				return fmt.Errorf("failed to unmarshal entity %s: %w", k, err)
			}
			entities = append(entities, entity)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return entities, nil
}

// DeleteEntity removes a local entity (no-op if absent)
func (s *Storage) DeleteEntity(ctx context.Context, entityType, entityID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntities).Bucket([]byte(entityType))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(entityID))
	})
}
