package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/schoolsync/internal/client/storage"
	"github.com/iudanet/schoolsync/internal/models"
)

// Service применяет правки пользователя к локальной реплике и ставит
// их в очередь на отправку. Каждая правка записывает сущность локально
// и добавляет ровно одно изменение в очередь pending.
//
// Локальная версия ведется с опережением: после постановки UPDATE
// в очередь локальная запись получает версию, которую сервер присвоит
// после применения этого изменения. Так вторая офлайн-правка той же
// сущности объявляет корректную базовую версию.
type Service struct {
	entities storage.EntityStorage
	pending  storage.PendingStorage
}

// NewService creates a new local data service
func NewService(entities storage.EntityStorage, pending storage.PendingStorage) *Service {
	return &Service{
		entities: entities,
		pending:  pending,
	}
}

// Create создает сущность локально и ставит CREATE в очередь.
// Идентификатор генерируется на клиенте и переживает офлайн-границу.
func (s *Service) Create(ctx context.Context, entityType string, record any) (*models.Entity, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	now := time.Now()
	entity := &models.Entity{
		ID:        uuid.New().String(),
		Data:      data,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.entities.SaveEntity(ctx, entityType, entity); err != nil {
		return nil, fmt.Errorf("failed to save entity locally: %w", err)
	}

	change := &storage.PendingChange{
		EntityType: entityType,
		EntityID:   entity.ID,
		Operation:  models.OperationCreate,
		Version:    1,
		Data:       data,
		QueuedAt:   now.Unix(),
	}

	if err := s.pending.EnqueueChange(ctx, change); err != nil {
		return nil, fmt.Errorf("failed to enqueue change: %w", err)
	}

	return entity, nil
}

// Update перезаписывает бизнес-поля сущности локально
// и ставит UPDATE с базовой версией в очередь
func (s *Service) Update(ctx context.Context, entityType, entityID string, record any) (*models.Entity, error) {
	entity, err := s.entities.GetEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	baseVersion := entity.Version
	now := time.Now()

	entity.Data = data
	entity.Version = baseVersion + 1
	entity.UpdatedAt = now

	if err := s.entities.SaveEntity(ctx, entityType, entity); err != nil {
		return nil, fmt.Errorf("failed to save entity locally: %w", err)
	}

	change := &storage.PendingChange{
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  models.OperationUpdate,
		Version:    baseVersion,
		Data:       data,
		QueuedAt:   now.Unix(),
	}

	if err := s.pending.EnqueueChange(ctx, change); err != nil {
		return nil, fmt.Errorf("failed to enqueue change: %w", err)
	}

	return entity, nil
}

// Delete удаляет сущность локально и ставит DELETE в очередь
func (s *Service) Delete(ctx context.Context, entityType, entityID string) error {
	entity, err := s.entities.GetEntity(ctx, entityType, entityID)
	if err != nil {
		return fmt.Errorf("failed to get entity: %w", err)
	}

	if err := s.entities.DeleteEntity(ctx, entityType, entityID); err != nil {
		return fmt.Errorf("failed to delete entity locally: %w", err)
	}

	change := &storage.PendingChange{
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  models.OperationDelete,
		Version:    entity.Version,
		QueuedAt:   time.Now().Unix(),
	}

	if err := s.pending.EnqueueChange(ctx, change); err != nil {
		return fmt.Errorf("failed to enqueue change: %w", err)
	}

	return nil
}

// Get возвращает локальную сущность
func (s *Service) Get(ctx context.Context, entityType, entityID string) (*models.Entity, error) {
	return s.entities.GetEntity(ctx, entityType, entityID)
}

// List возвращает все локальные сущности типа
func (s *Service) List(ctx context.Context, entityType string) ([]*models.Entity, error) {
	return s.entities.ListEntities(ctx, entityType)
}
