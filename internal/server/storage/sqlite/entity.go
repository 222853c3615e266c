package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/schoolsync/internal/models"
	"github.com/iudanet/schoolsync/internal/server/storage"
)

// entityTables связывает типы сущностей с таблицами.
// Таблицы имеют идентичную форму (см. миграции), поэтому один
// репозиторий обслуживает все типы.
var entityTables = map[string]string{
	models.EntityTypeClass:      "school_classes",
	models.EntityTypeStudent:    "students",
	models.EntityTypeTask:       "tasks",
	models.EntityTypeSubmission: "submissions",
}

// EntityRepo implements storage.EntityRepository on top of one entity table.
// Every mutation writes the entity table and the change log in a single
// transaction, so a committed change log id guarantees the mutation
// it records is durably visible.
type EntityRepo struct {
	db         *sql.DB
	table      string
	entityType string
}

// EntityRepo returns a repository for the given entity type
// Returns ErrUnknownEntityType for an unregistered type tag
func (s *Storage) EntityRepo(entityType string) (*EntityRepo, error) {
	table, ok := entityTables[entityType]
	if !ok {
		return nil, storage.ErrUnknownEntityType
	}

	return &EntityRepo{db: s.db, table: table, entityType: entityType}, nil
}

// EntityType returns the entity type tag this repository serves
func (r *EntityRepo) EntityType() string {
	return r.entityType
}

// Create inserts a new entity with version 1 and appends a CREATE
// change log entry in the same transaction
func (r *EntityRepo) Create(ctx context.Context, entity *models.Entity, userID string) (*models.Entity, error) {
	now := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := fmt.Sprintf(`
		INSERT INTO %s (id, school_id, data, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
	`, r.table)

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.SchoolID,
		string(entity.Data),
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, storage.ErrEntityExists
		}
		return nil, fmt.Errorf("failed to insert entity: %w", err)
	}

	if err := appendChange(ctx, tx, entity.SchoolID, r.entityType, entity.ID, models.OperationCreate, userID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	created := entity.Clone()
	created.Version = 1
	created.CreatedAt = time.Unix(now.Unix(), 0)
	created.UpdatedAt = time.Unix(now.Unix(), 0)

	return created, nil
}

// Update overwrites the entity data and increments its version by 1.
// The version check and the write share one transaction: two concurrent
// updates observing the same version cannot both succeed.
// Returns ErrEntityNotFound or ErrVersionConflict as typed outcomes.
func (r *EntityRepo) Update(ctx context.Context, schoolID, entityID string, data []byte, expectedVersion int64, userID string) (*models.Entity, error) {
	now := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Читаем текущую версию внутри транзакции
	selectQuery := fmt.Sprintf(`
		SELECT version, created_at FROM %s
		WHERE id = ? AND school_id = ?
	`, r.table)

	var currentVersion, createdAt int64
	err = tx.QueryRowContext(ctx, selectQuery, entityID, schoolID).Scan(&currentVersion, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to read current version: %w", err)
	}

	if currentVersion != expectedVersion {
		return nil, storage.ErrVersionConflict
	}

	updateQuery := fmt.Sprintf(`
		UPDATE %s
		SET data = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND school_id = ? AND version = ?
	`, r.table)

	result, err := tx.ExecContext(ctx, updateQuery,
		string(data),
		now.Unix(),
		entityID,
		schoolID,
		expectedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Версия ушла между SELECT и UPDATE — при одном writer
		// недостижимо, но проверка держит инвариант и на других пулах
		return nil, storage.ErrVersionConflict
	}

	if err := appendChange(ctx, tx, schoolID, r.entityType, entityID, models.OperationUpdate, userID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.Entity{
		ID:        entityID,
		SchoolID:  schoolID,
		Data:      json.RawMessage(data),
		Version:   expectedVersion + 1,
		CreatedAt: time.Unix(createdAt, 0),
		UpdatedAt: time.Unix(now.Unix(), 0),
	}, nil
}

// Delete removes the entity row and appends a DELETE change log entry
// in the same transaction. Returns whether a row was actually deleted.
func (r *EntityRepo) Delete(ctx context.Context, schoolID, entityID, userID string) (bool, error) {
	now := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND school_id = ?`, r.table)

	result, err := tx.ExecContext(ctx, query, entityID, schoolID)
	if err != nil {
		return false, fmt.Errorf("failed to delete entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		// Строки нет (или чужая школа) — журнал не трогаем
		return false, nil
	}

	if err := appendChange(ctx, tx, schoolID, r.entityType, entityID, models.OperationDelete, userID, now); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// Get retrieves an entity scoped to the school
// Returns ErrEntityNotFound if absent or owned by another school
func (r *EntityRepo) Get(ctx context.Context, schoolID, entityID string) (*models.Entity, error) {
	query := fmt.Sprintf(`
		SELECT id, school_id, data, version, created_at, updated_at
		FROM %s
		WHERE id = ? AND school_id = ?
	`, r.table)

	entity, err := scanEntity(r.db.QueryRowContext(ctx, query, entityID, schoolID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	return entity, nil
}

// ListBySchool retrieves all entities of this type for a school
// Returns empty slice if no entities found
func (r *EntityRepo) ListBySchool(ctx context.Context, schoolID string) ([]*models.Entity, error) {
	query := fmt.Sprintf(`
		SELECT id, school_id, data, version, created_at, updated_at
		FROM %s
		WHERE school_id = ?
		ORDER BY created_at ASC, id ASC
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var entities []*models.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entities, nil
}

// rowScanner покрывает *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntity is a helper to scan one entity row
func scanEntity(row rowScanner) (*models.Entity, error) {
	entity := &models.Entity{}
	var data string
	var createdAt, updatedAt int64

	err := row.Scan(
		&entity.ID,
		&entity.SchoolID,
		&data,
		&entity.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entity.Data = json.RawMessage(data)
	entity.CreatedAt = time.Unix(createdAt, 0)
	entity.UpdatedAt = time.Unix(updatedAt, 0)

	return entity, nil
}
