package storage

import (
	"context"
	"time"

	"github.com/iudanet/schoolsync/internal/models"
)

// Session представляет сохраненную сессию пользователя
type Session struct {
	ExpiresAt    time.Time `json:"expires_at"` // срок действия access token
	UserID       string    `json:"user_id"`
	SchoolID     string    `json:"school_id"`
	Username     string    `json:"username"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// IsExpired проверяет, истек ли access token
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// PendingChange представляет локальную мутацию, ожидающую отправки
// на сервер. Seq задает порядок применения (очередь FIFO).
type PendingChange struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Operation  string `json:"operation"`
	Data       []byte `json:"data,omitempty"`
	Version    int64  `json:"version"`
	QueuedAt   int64  `json:"queued_at"` // epoch seconds
	Seq        uint64 `json:"seq"`
}

// AuthStorage определяет интерфейс для хранения сессии
type AuthStorage interface {
	// SaveSession stores the current session
	SaveSession(ctx context.Context, session *Session) error

	// GetSession retrieves the current session
	// Returns ErrSessionNotFound if not logged in
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession removes the current session
	DeleteSession(ctx context.Context) error
}

// EntityStorage определяет интерфейс локальной реплики сущностей
type EntityStorage interface {
	// SaveEntity stores or overwrites a local entity
	SaveEntity(ctx context.Context, entityType string, entity *models.Entity) error

	// GetEntity retrieves a local entity by type and id
	// Returns ErrEntityNotFound if absent
	GetEntity(ctx context.Context, entityType, entityID string) (*models.Entity, error)

	// ListEntities retrieves all local entities of a type
	ListEntities(ctx context.Context, entityType string) ([]*models.Entity, error)

	// DeleteEntity removes a local entity (no-op if absent)
	DeleteEntity(ctx context.Context, entityType, entityID string) error
}

// PendingStorage определяет интерфейс очереди локальных изменений
type PendingStorage interface {
	// EnqueueChange appends a change to the pending queue,
	// assigning it the next sequence number
	EnqueueChange(ctx context.Context, change *PendingChange) error

	// ListPending retrieves all pending changes in queue order
	ListPending(ctx context.Context) ([]*PendingChange, error)

	// DeletePending removes a pending change by sequence number
	DeletePending(ctx context.Context, seq uint64) error
}

// MetadataStorage определяет интерфейс для метаданных синхронизации
type MetadataStorage interface {
	// GetLastSyncID returns the last persisted pull cursor (0 if never synced)
	GetLastSyncID(ctx context.Context) (int64, error)

	// SaveLastSyncID persists the pull cursor
	SaveLastSyncID(ctx context.Context, id int64) error
}
