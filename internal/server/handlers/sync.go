package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/schoolsync/pkg/api"
)

// contextKey тип для ключей контекста
type contextKey string

const (
	// UserIDKey ключ для хранения user_id в контексте
	UserIDKey contextKey = "user_id"
	// SchoolIDKey ключ для хранения school_id в контексте
	SchoolIDKey contextKey = "school_id"
	// UsernameKey ключ для хранения username в контексте
	UsernameKey contextKey = "username"
)

// GetUserID извлекает user_id из контекста запроса
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetSchoolID извлекает school_id из контекста запроса
func GetSchoolID(ctx context.Context) (string, bool) {
	schoolID, ok := ctx.Value(SchoolIDKey).(string)
	return schoolID, ok
}

// GetUsername извлекает username из контекста запроса
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// PullService определяет интерфейс выдачи изменений
type PullService interface {
	GetChangesSince(ctx context.Context, schoolID string, sinceID int64) (*api.PullResponse, error)
}

// PushService определяет интерфейс применения клиентских изменений
type PushService interface {
	PushChanges(ctx context.Context, schoolID, userID string, changes []api.ChangeRequest) *api.PushResponse
}

// SyncHandler handles synchronization requests
type SyncHandler struct {
	logger *slog.Logger
	pull   PullService
	push   PushService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, pull PullService, push PushService) *SyncHandler {
	return &SyncHandler{
		logger: logger,
		pull:   pull,
		push:   push,
	}
}

// HandleSync обрабатывает GET и POST запросы для синхронизации.
// Идентичность (school_id, user_id) берется только из контекста,
// установленного AuthMiddleware — клиент не может назвать чужую школу.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	schoolID, ok := GetSchoolID(ctx)
	if !ok {
		h.logger.Error("School ID not found in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, ok := GetUserID(ctx)
	if !ok {
		h.logger.Error("User ID not found in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handlePull(w, r, schoolID)
	case http.MethodPost:
		h.handlePush(w, r, schoolID, userID)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handlePull обрабатывает GET /api/v1/sync?since=<change_id>
// Возвращает страницу журнала изменений после курсора
func (h *SyncHandler) handlePull(w http.ResponseWriter, r *http.Request, schoolID string) {
	ctx := r.Context()

	// Парсим параметр since (0 = с самого начала)
	var since int64
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		var err error
		since, err = strconv.ParseInt(sinceStr, 10, 64)
		if err != nil || since < 0 {
			h.logger.Warn("Invalid since parameter", "since", sinceStr, "error", err)
			http.Error(w, "Invalid since parameter", http.StatusBadRequest)
			return
		}
	}

	h.logger.Info("pull request", "school_id", schoolID, "since", since)

	resp, err := h.pull.GetChangesSince(ctx, schoolID, since)
	if err != nil {
		h.logger.Error("Failed to get changes", "error", err, "school_id", schoolID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, resp, http.StatusOK)

	h.logger.Info("pull completed",
		"school_id", schoolID,
		"changes", len(resp.Changes),
		"last_sync_id", resp.LastSyncID,
		"has_more", resp.HasMore)
}

// handlePush обрабатывает POST /api/v1/sync
// Применяет батч клиентских изменений и возвращает результат по каждому
func (h *SyncHandler) handlePush(w http.ResponseWriter, r *http.Request, schoolID, userID string) {
	ctx := r.Context()

	var req api.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode push request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.logger.Info("push request",
		"school_id", schoolID,
		"user_id", userID,
		"changes", len(req.Changes))

	resp := h.push.PushChanges(ctx, schoolID, userID, req.Changes)

	h.sendJSON(w, resp, http.StatusOK)

	h.logger.Info("push completed",
		"school_id", schoolID,
		"succeeded", resp.SuccessCount,
		"failed", resp.FailureCount)
}

// sendJSON отправляет JSON ответ
func (h *SyncHandler) sendJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
