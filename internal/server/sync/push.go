package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/schoolsync/internal/models"
	"github.com/iudanet/schoolsync/internal/server/storage"
	"github.com/iudanet/schoolsync/internal/validation"
	"github.com/iudanet/schoolsync/pkg/api"
)

// ConflictMessage — текст ошибки для конфликтующих изменений.
// Клиентская логика опирается на флаг Conflict, текст только для людей.
const ConflictMessage = "Version conflict"

// PushService применяет батчи клиентских мутаций. Изменения
// обрабатываются строго в порядке следования; исход каждого изменения
// независим — ошибка изменения N не прерывает изменение N+1.
// Журнал изменений пишут сами репозитории внутри своих транзакций,
// push его не трогает.
type PushService struct {
	logger   *slog.Logger
	registry *Registry
}

// NewPushService creates a new push service
func NewPushService(logger *slog.Logger, registry *Registry) *PushService {
	return &PushService{
		logger:   logger,
		registry: registry,
	}
}

// PushChanges применяет батч изменений и возвращает результат
// по каждому изменению в том же порядке. Бизнес-ошибки (not found,
// конфликт версий, неизвестный тип) превращаются в результаты,
// а не в ошибку вызова; error возвращается только при отказе
// инфраструктуры хранилища.
func (s *PushService) PushChanges(ctx context.Context, schoolID, userID string, changes []api.ChangeRequest) *api.PushResponse {
	resp := &api.PushResponse{
		Results: make([]api.ChangeResult, 0, len(changes)),
	}

	for _, change := range changes {
		result := s.applyChange(ctx, schoolID, userID, change)

		if result.Success {
			resp.SuccessCount++
		} else {
			resp.FailureCount++
		}

		resp.Results = append(resp.Results, result)
	}

	s.logger.Info("push processed",
		"school_id", schoolID,
		"user_id", userID,
		"changes", len(changes),
		"succeeded", resp.SuccessCount,
		"failed", resp.FailureCount)

	return resp
}

// applyChange применяет одно изменение через репозиторий его типа.
// Любая неожиданная ошибка репозитория превращается в failure result
// этого изменения и не затрагивает остальной батч.
func (s *PushService) applyChange(ctx context.Context, schoolID, userID string, change api.ChangeRequest) api.ChangeResult {
	result := api.ChangeResult{EntityID: change.EntityID}

	if err := validation.ValidateEntityID(change.EntityID); err != nil {
		result.ErrorMessage = err.Error()
		return result
	}

	repo, ok := s.registry.Lookup(change.EntityType)
	if !ok {
		result.ErrorMessage = fmt.Sprintf("unknown entity type: %q", change.EntityType)
		return result
	}

	switch change.Operation {
	case models.OperationCreate:
		if len(change.Data) == 0 {
			result.ErrorMessage = "missing data payload for CREATE"
			return result
		}

		entity := &models.Entity{
			ID:       change.EntityID,
			SchoolID: schoolID,
			Data:     change.Data,
		}

		_, err := repo.Create(ctx, entity, userID)
		switch {
		case err == nil:
			result.Success = true
		case errors.Is(err, storage.ErrEntityExists):
			// Кто-то успел создать сущность с этим id — клиент
			// должен сначала увидеть серверное значение через pull
			result.Conflict = true
			result.ErrorMessage = ConflictMessage
		default:
			result.ErrorMessage = err.Error()
		}

	case models.OperationUpdate:
		if len(change.Data) == 0 {
			result.ErrorMessage = "missing data payload for UPDATE"
			return result
		}

		_, err := repo.Update(ctx, schoolID, change.EntityID, change.Data, change.Version, userID)
		switch {
		case err == nil:
			result.Success = true
		case errors.Is(err, storage.ErrEntityNotFound):
			result.ErrorMessage = "entity not found"
		case errors.Is(err, storage.ErrVersionConflict):
			result.Conflict = true
			result.ErrorMessage = ConflictMessage
		default:
			result.ErrorMessage = err.Error()
		}

	case models.OperationDelete:
		deleted, err := repo.Delete(ctx, schoolID, change.EntityID, userID)
		switch {
		case err != nil:
			result.ErrorMessage = err.Error()
		case !deleted:
			result.ErrorMessage = "entity not found"
		default:
			result.Success = true
		}

	default:
		result.ErrorMessage = fmt.Sprintf("unknown operation: %q", change.Operation)
	}

	if !result.Success {
		s.logger.Debug("change rejected",
			"school_id", schoolID,
			"entity_type", change.EntityType,
			"entity_id", change.EntityID,
			"operation", change.Operation,
			"conflict", result.Conflict,
			"error", result.ErrorMessage)
	}

	return result
}
