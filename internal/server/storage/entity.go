package storage

import (
	"context"

	"github.com/iudanet/schoolsync/internal/models"
)

// EntityRepository определяет единственный путь мутации синхронизируемых
// сущностей одного типа. Каждая успешная мутация добавляет ровно одну
// запись в журнал изменений в той же транзакции, что и запись сущности.
type EntityRepository interface {
	// EntityType returns the entity type tag this repository serves
	EntityType() string

	// Create inserts a new entity with version 1 and appends a CREATE
	// change log entry. The entity id may be client-generated.
	// Returns ErrEntityExists if the id is already taken.
	Create(ctx context.Context, entity *models.Entity, userID string) (*models.Entity, error)

	// Update overwrites the entity data and increments its version by 1,
	// appending an UPDATE change log entry. The version check and the
	// write happen in one transaction.
	// Returns ErrEntityNotFound if no row matches id+school,
	// ErrVersionConflict if the stored version differs from expectedVersion.
	Update(ctx context.Context, schoolID, entityID string, data []byte, expectedVersion int64, userID string) (*models.Entity, error)

	// Delete removes the entity row and appends a DELETE change log entry
	// in the same transaction. Returns whether a row was actually deleted.
	Delete(ctx context.Context, schoolID, entityID, userID string) (bool, error)

	// Get retrieves an entity scoped to the school.
	// Returns ErrEntityNotFound if absent or owned by another school.
	Get(ctx context.Context, schoolID, entityID string) (*models.Entity, error)

	// ListBySchool retrieves all entities of this type for a school
	ListBySchool(ctx context.Context, schoolID string) ([]*models.Entity, error)
}

// ChangeLogStorage определяет доступ на чтение к журналу изменений.
// Запись в журнал происходит только внутри транзакций репозиториев.
type ChangeLogStorage interface {
	// ListChangesSince retrieves up to limit change log entries for a school
	// with id strictly greater than sinceID, ordered ascending by id
	ListChangesSince(ctx context.Context, schoolID string, sinceID int64, limit int) ([]*models.ChangeEntry, error)

	// LastChangeID returns the highest change log id for a school
	// (0 if the school has no changes)
	LastChangeID(ctx context.Context, schoolID string) (int64, error)
}
