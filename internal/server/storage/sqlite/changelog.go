package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/schoolsync/internal/models"
)

// appendChange добавляет запись в журнал изменений внутри транзакции
// мутации. Журнал append-only: записи никогда не обновляются
// и не удаляются, id выдает AUTOINCREMENT.
func appendChange(ctx context.Context, tx *sql.Tx, schoolID, entityType, entityID, operation, userID string, now time.Time) error {
	query := `
		INSERT INTO change_log (school_id, entity_type, entity_id, operation, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(ctx, query,
		schoolID,
		entityType,
		entityID,
		operation,
		userID,
		now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append change log entry: %w", err)
	}

	return nil
}

// ListChangesSince retrieves up to limit change log entries for a school
// with id strictly greater than sinceID, ordered ascending by id.
// Returns empty slice if no entries found
func (s *Storage) ListChangesSince(ctx context.Context, schoolID string, sinceID int64, limit int) ([]*models.ChangeEntry, error) {
	query := `
		SELECT id, school_id, entity_type, entity_id, operation, user_id, created_at
		FROM change_log
		WHERE school_id = ? AND id > ?
		ORDER BY id ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, schoolID, sinceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query change log: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var entries []*models.ChangeEntry
	for rows.Next() {
		entry := &models.ChangeEntry{}
		var createdAt int64

		err := rows.Scan(
			&entry.ID,
			&entry.SchoolID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Operation,
			&entry.UserID,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change log entry: %w", err)
		}

		entry.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

// LastChangeID returns the highest change log id for a school
// (0 if the school has no changes)
func (s *Storage) LastChangeID(ctx context.Context, schoolID string) (int64, error) {
	query := `SELECT COALESCE(MAX(id), 0) FROM change_log WHERE school_id = ?`

	var id int64
	if err := s.db.QueryRowContext(ctx, query, schoolID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get last change id: %w", err)
	}

	return id, nil
}
