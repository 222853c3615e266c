package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/schoolsync/internal/models"
	"github.com/iudanet/schoolsync/internal/server/storage"
	"github.com/iudanet/schoolsync/pkg/api"
)

// PageSize ограничивает количество записей журнала в одном ответе pull
const PageSize = 100

// PullService отдает записи журнала изменений после клиентского курсора.
// Чтение идемпотентно и без побочных эффектов: повторный вызов с тем же
// курсором возвращает тот же результат (с точностью до актуальности
// снимков, см. GetChangesSince).
type PullService struct {
	logger    *slog.Logger
	changeLog storage.ChangeLogStorage
	registry  *Registry
}

// NewPullService creates a new pull service
func NewPullService(logger *slog.Logger, changeLog storage.ChangeLogStorage, registry *Registry) *PullService {
	return &PullService{
		logger:    logger,
		changeLog: changeLog,
		registry:  registry,
	}
}

// GetChangesSince возвращает записи журнала школы с id строго больше
// sinceID (0 — с самого начала), по возрастанию id, не более PageSize.
//
// Для операций CREATE/UPDATE к записи прикладывается актуальный снимок
// сущности на момент запроса, а не историческое значение: клиент,
// догоняющий несколько записей одной сущности, увидит один и тот же
// (последний) снимок несколько раз. Если сущность уже удалена,
// снимок null — это не ошибка.
//
// LastSyncID — id последней возвращенной записи (или входной курсор,
// если записей нет); клиент обязан сохранить его как курсор следующего
// вызова. HasMore=true тогда и только тогда, когда страница заполнена
// целиком.
func (s *PullService) GetChangesSince(ctx context.Context, schoolID string, sinceID int64) (*api.PullResponse, error) {
	entries, err := s.changeLog.ListChangesSince(ctx, schoolID, sinceID, PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}

	changes := make([]api.PulledChange, 0, len(entries))
	lastSyncID := sinceID

	for _, entry := range entries {
		change := api.PulledChange{
			ChangeID:   entry.ID,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Operation:  entry.Operation,
			UserID:     entry.UserID,
			Timestamp:  entry.CreatedAt.Unix(),
		}

		if entry.Operation != models.OperationDelete {
			snapshot, err := s.resolveSnapshot(ctx, entry)
			if err != nil {
				return nil, err
			}
			change.Data = snapshot
		}

		changes = append(changes, change)
		lastSyncID = entry.ID
	}

	s.logger.Debug("pull served",
		"school_id", schoolID,
		"since", sinceID,
		"returned", len(changes),
		"last_sync_id", lastSyncID)

	return &api.PullResponse{
		Changes:    changes,
		LastSyncID: lastSyncID,
		HasMore:    len(entries) == PageSize,
	}, nil
}

// resolveSnapshot читает актуальное состояние сущности для записи журнала.
// Отсутствие строки (сущность удалена позже этой записи) — штатный случай,
// снимок остается null.
func (s *PullService) resolveSnapshot(ctx context.Context, entry *models.ChangeEntry) ([]byte, error) {
	repo, ok := s.registry.Lookup(entry.EntityType)
	if !ok {
		// Журнал может содержать типы, чьи репозитории еще не
		// зарегистрированы (например, откат деплоя) — отдаем без снимка
		s.logger.Warn("no repository for entity type in change log",
			"entity_type", entry.EntityType,
			"change_id", entry.ID)
		return nil, nil
	}

	entity, err := repo.Get(ctx, entry.SchoolID, entry.EntityID)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve snapshot for change %d: %w", entry.ID, err)
	}

	snapshot, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot for change %d: %w", entry.ID, err)
	}

	return snapshot, nil
}
