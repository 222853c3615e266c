package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/schoolsync/internal/client/storage"
	"github.com/iudanet/schoolsync/internal/models"
	"github.com/iudanet/schoolsync/pkg/api"
)

// APIClient определяет часть API клиента, нужную для синхронизации
type APIClient interface {
	Pull(ctx context.Context, accessToken string, since int64) (*api.PullResponse, error)
	Push(ctx context.Context, accessToken string, req api.PushRequest) (*api.PushResponse, error)
}

// Service handles synchronization between client and server
type Service struct {
	apiClient APIClient
	entities  storage.EntityStorage
	pending   storage.PendingStorage
	metadata  storage.MetadataStorage
	logger    *slog.Logger
}

// NewService creates a new sync service
func NewService(apiClient APIClient, entities storage.EntityStorage, pending storage.PendingStorage, metadata storage.MetadataStorage, logger *slog.Logger) *Service {
	return &Service{
		apiClient: apiClient,
		entities:  entities,
		pending:   pending,
		metadata:  metadata,
		logger:    logger,
	}
}

// SyncResult contains sync operation results
type SyncResult struct {
	Pushed     int   // количество отправленных на сервер изменений
	Accepted   int   // количество принятых сервером изменений
	Conflicts  int   // количество конфликтов (нужен повторный ввод после pull)
	Rejected   int   // количество отклоненных изменений (не конфликты)
	Applied    int   // количество примененных локально серверных изменений
	LastSyncID int64 // курсор журнала после синхронизации
}

// Sync performs full synchronization with server:
// 1. Pushes the pending change queue
// 2. Pulls server changes page by page until hasMore=false,
//    applying them to the local replica and advancing the cursor
//
// Конфликтующие изменения сервер отклоняет; мы убираем их из очереди
// и сообщаем пользователю — после pull у него будет серверное значение,
// правку нужно внести заново (ручное разрешение, без auto-merge).
func (s *Service) Sync(ctx context.Context, accessToken string) (*SyncResult, error) {
	result := &SyncResult{}

	if err := s.pushPending(ctx, accessToken, result); err != nil {
		return nil, err
	}

	if err := s.pullChanges(ctx, accessToken, result); err != nil {
		return nil, err
	}

	s.logger.Info("sync completed",
		"pushed", result.Pushed,
		"accepted", result.Accepted,
		"conflicts", result.Conflicts,
		"rejected", result.Rejected,
		"applied", result.Applied,
		"last_sync_id", result.LastSyncID)

	return result, nil
}

// PendingCount возвращает количество изменений, ожидающих отправки
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	pending, err := s.pending.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending changes: %w", err)
	}
	return len(pending), nil
}

// pushPending отправляет очередь локальных изменений одним батчем
func (s *Service) pushPending(ctx context.Context, accessToken string, result *SyncResult) error {
	pending, err := s.pending.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending changes: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	changes := make([]api.ChangeRequest, 0, len(pending))
	for _, p := range pending {
		changes = append(changes, api.ChangeRequest{
			EntityType: p.EntityType,
			EntityID:   p.EntityID,
			Operation:  p.Operation,
			Version:    p.Version,
			Data:       p.Data,
		})
	}

	result.Pushed = len(changes)

	resp, err := s.apiClient.Push(ctx, accessToken, api.PushRequest{Changes: changes})
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}

	if len(resp.Results) != len(pending) {
		return fmt.Errorf("push returned %d results for %d changes", len(resp.Results), len(pending))
	}

	// Результаты идут в порядке запроса — сопоставляем по индексу
	for i, r := range resp.Results {
		p := pending[i]

		switch {
		case r.Success:
			result.Accepted++
		case r.Conflict:
			result.Conflicts++
			s.logger.Warn("change conflicted, server value wins",
				"entity_type", p.EntityType,
				"entity_id", p.EntityID,
				"operation", p.Operation)
		default:
			result.Rejected++
			s.logger.Warn("change rejected",
				"entity_type", p.EntityType,
				"entity_id", p.EntityID,
				"operation", p.Operation,
				"error", r.ErrorMessage)
		}

		// Изменение обработано сервером (принято или отклонено) —
		// повторная отправка без изменений бессмысленна, убираем из очереди
		if err := s.pending.DeletePending(ctx, p.Seq); err != nil && !errors.Is(err, storage.ErrPendingNotFound) {
			return fmt.Errorf("failed to dequeue change %d: %w", p.Seq, err)
		}
	}

	return nil
}

// pullChanges забирает журнал изменений постранично и применяет
// его к локальной реплике, продвигая курсор после каждой страницы
func (s *Service) pullChanges(ctx context.Context, accessToken string, result *SyncResult) error {
	since, err := s.metadata.GetLastSyncID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sync cursor: %w", err)
	}

	for {
		resp, err := s.apiClient.Pull(ctx, accessToken, since)
		if err != nil {
			return fmt.Errorf("pull request failed: %w", err)
		}

		for _, change := range resp.Changes {
			if err := s.applyChange(ctx, change); err != nil {
				return fmt.Errorf("failed to apply change %d: %w", change.ChangeID, err)
			}
			result.Applied++
		}

		// Сохраняем курсор после каждой страницы: при обрыве
		// следующий sync продолжит с этого места
		if err := s.metadata.SaveLastSyncID(ctx, resp.LastSyncID); err != nil {
			return fmt.Errorf("failed to save sync cursor: %w", err)
		}

		since = resp.LastSyncID
		result.LastSyncID = resp.LastSyncID

		if !resp.HasMore {
			return nil
		}
	}
}

// applyChange применяет одно серверное изменение к локальной реплике.
// Снимок в Data — актуальное состояние сущности; для DELETE или уже
// исчезнувшей сущности снимок пуст и локальная запись просто удаляется.
func (s *Service) applyChange(ctx context.Context, change api.PulledChange) error {
	if change.Operation == models.OperationDelete || len(change.Data) == 0 {
		if err := s.entities.DeleteEntity(ctx, change.EntityType, change.EntityID); err != nil {
			return fmt.Errorf("failed to delete local entity: %w", err)
		}
		return nil
	}

	entity := &models.Entity{}
	if err := json.Unmarshal(change.Data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity snapshot: %w", err)
	}

	if err := s.entities.SaveEntity(ctx, change.EntityType, entity); err != nil {
		return fmt.Errorf("failed to save local entity: %w", err)
	}

	return nil
}
