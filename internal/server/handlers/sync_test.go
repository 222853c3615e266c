package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/schoolsync/pkg/api"
)

// mockPullService реализует PullService для тестов
type mockPullService struct {
	getChangesSinceFunc func(ctx context.Context, schoolID string, sinceID int64) (*api.PullResponse, error)
}

func (m *mockPullService) GetChangesSince(ctx context.Context, schoolID string, sinceID int64) (*api.PullResponse, error) {
	return m.getChangesSinceFunc(ctx, schoolID, sinceID)
}

// mockPushService реализует PushService для тестов
type mockPushService struct {
	pushChangesFunc func(ctx context.Context, schoolID, userID string, changes []api.ChangeRequest) *api.PushResponse
}

func (m *mockPushService) PushChanges(ctx context.Context, schoolID, userID string, changes []api.ChangeRequest) *api.PushResponse {
	return m.pushChangesFunc(ctx, schoolID, userID, changes)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// authedRequest добавляет идентичность в контекст так же, как AuthMiddleware
func authedRequest(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), UserIDKey, "user-1")
	ctx = context.WithValue(ctx, SchoolIDKey, "school-1")
	ctx = context.WithValue(ctx, UsernameKey, "teacher1")
	return r.WithContext(ctx)
}

func TestSyncHandler_Unauthorized(t *testing.T) {
	handler := NewSyncHandler(testLogger(), &mockPullService{}, &mockPushService{})

	// Контекст без идентичности — middleware не отработал
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync", nil)
	w := httptest.NewRecorder()

	handler.HandleSync(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSyncHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSyncHandler(testLogger(), &mockPullService{}, &mockPushService{})

	req := authedRequest(httptest.NewRequest(http.MethodDelete, "/api/v1/sync", nil))
	w := httptest.NewRecorder()

	handler.HandleSync(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSyncHandler_Pull(t *testing.T) {
	pull := &mockPullService{
		getChangesSinceFunc: func(ctx context.Context, schoolID string, sinceID int64) (*api.PullResponse, error) {
			assert.Equal(t, "school-1", schoolID)
			assert.Equal(t, int64(42), sinceID)
			return &api.PullResponse{
				Changes: []api.PulledChange{
					{ChangeID: 43, EntityType: "task", EntityID: "t-1", Operation: "CREATE"},
				},
				LastSyncID: 43,
				HasMore:    false,
			}, nil
		},
	}
	handler := NewSyncHandler(testLogger(), pull, &mockPushService{})

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/v1/sync?since=42", nil))
	w := httptest.NewRecorder()

	handler.HandleSync(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.PullResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Changes, 1)
	assert.Equal(t, int64(43), resp.LastSyncID)
	assert.False(t, resp.HasMore)
}

func TestSyncHandler_Pull_DefaultSince(t *testing.T) {
	var gotSince int64 = -1
	pull := &mockPullService{
		getChangesSinceFunc: func(ctx context.Context, schoolID string, sinceID int64) (*api.PullResponse, error) {
			gotSince = sinceID
			return &api.PullResponse{}, nil
		},
	}
	handler := NewSyncHandler(testLogger(), pull, &mockPushService{})

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/v1/sync", nil))
	w := httptest.NewRecorder()

	handler.HandleSync(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), gotSince)
}

func TestSyncHandler_Pull_InvalidSince(t *testing.T) {
	handler := NewSyncHandler(testLogger(), &mockPullService{}, &mockPushService{})

	for _, since := range []string{"abc", "-1", "1.5"} {
		req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/v1/sync?since="+since, nil))
		w := httptest.NewRecorder()

		handler.HandleSync(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "since=%s", since)
	}
}

func TestSyncHandler_Push(t *testing.T) {
	push := &mockPushService{
		pushChangesFunc: func(ctx context.Context, schoolID, userID string, changes []api.ChangeRequest) *api.PushResponse {
			assert.Equal(t, "school-1", schoolID)
			assert.Equal(t, "user-1", userID)
			require.Len(t, changes, 2)
			return &api.PushResponse{
				Results: []api.ChangeResult{
					{EntityID: changes[0].EntityID, Success: true},
					{EntityID: changes[1].EntityID, Conflict: true, ErrorMessage: "Version conflict"},
				},
				SuccessCount: 1,
				FailureCount: 1,
			}
		},
	}
	handler := NewSyncHandler(testLogger(), &mockPullService{}, push)

	body, err := json.Marshal(api.PushRequest{
		Changes: []api.ChangeRequest{
			{EntityType: "task", EntityID: "t-1", Operation: "CREATE", Data: json.RawMessage(`{}`)},
			{EntityType: "task", EntityID: "t-2", Operation: "UPDATE", Data: json.RawMessage(`{}`), Version: 3},
		},
	})
	require.NoError(t, err)

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/v1/sync", bytes.NewReader(body)))
	w := httptest.NewRecorder()

	handler.HandleSync(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.PushResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Success)
	assert.True(t, resp.Results[1].Conflict)
	assert.Equal(t, 1, resp.SuccessCount)
	assert.Equal(t, 1, resp.FailureCount)
}

func TestSyncHandler_Push_InvalidBody(t *testing.T) {
	handler := NewSyncHandler(testLogger(), &mockPullService{}, &mockPushService{})

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/v1/sync", bytes.NewReader([]byte("{invalid"))))
	w := httptest.NewRecorder()

	handler.HandleSync(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
