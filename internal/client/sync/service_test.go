package sync

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/schoolsync/internal/client/storage"
	"github.com/iudanet/schoolsync/internal/client/storage/boltdb"
	"github.com/iudanet/schoolsync/internal/models"
	"github.com/iudanet/schoolsync/pkg/api"
)

// mockAPIClient реализует APIClient для тестов
type mockAPIClient struct {
	pullFunc func(ctx context.Context, accessToken string, since int64) (*api.PullResponse, error)
	pushFunc func(ctx context.Context, accessToken string, req api.PushRequest) (*api.PushResponse, error)
}

func (m *mockAPIClient) Pull(ctx context.Context, accessToken string, since int64) (*api.PullResponse, error) {
	return m.pullFunc(ctx, accessToken, since)
}

func (m *mockAPIClient) Push(ctx context.Context, accessToken string, req api.PushRequest) (*api.PushResponse, error) {
	return m.pushFunc(ctx, accessToken, req)
}

func setupSyncService(t *testing.T, apiClient *mockAPIClient) (*Service, *boltdb.Storage) {
	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(apiClient, store, store, store, logger), store
}

func emptyPull(ctx context.Context, accessToken string, since int64) (*api.PullResponse, error) {
	return &api.PullResponse{LastSyncID: since}, nil
}

func entitySnapshot(t *testing.T, id string, version int64, data string) json.RawMessage {
	snapshot, err := json.Marshal(&models.Entity{
		ID:       id,
		SchoolID: "school-1",
		Data:     json.RawMessage(data),
		Version:  version,
	})
	require.NoError(t, err)
	return snapshot
}

func TestSync_PushOutcomes(t *testing.T) {
	ctx := context.Background()

	apiClient := &mockAPIClient{
		pullFunc: emptyPull,
		pushFunc: func(ctx context.Context, accessToken string, req api.PushRequest) (*api.PushResponse, error) {
			require.Len(t, req.Changes, 3)
			// Порядок батча — порядок очереди
			assert.Equal(t, "e-1", req.Changes[0].EntityID)
			assert.Equal(t, "e-2", req.Changes[1].EntityID)
			assert.Equal(t, "e-3", req.Changes[2].EntityID)

			return &api.PushResponse{
				Results: []api.ChangeResult{
					{EntityID: "e-1", Success: true},
					{EntityID: "e-2", Conflict: true, ErrorMessage: "Version conflict"},
					{EntityID: "e-3", ErrorMessage: "entity not found"},
				},
				SuccessCount: 1,
				FailureCount: 2,
			}, nil
		},
	}

	service, store := setupSyncService(t, apiClient)

	for _, id := range []string{"e-1", "e-2", "e-3"} {
		require.NoError(t, store.EnqueueChange(ctx, &storage.PendingChange{
			EntityType: models.EntityTypeTask,
			EntityID:   id,
			Operation:  models.OperationUpdate,
			Data:       json.RawMessage(`{}`),
			Version:    1,
		}))
	}

	result, err := service.Sync(ctx, "token")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Pushed)
	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 1, result.Rejected)

	// Все обработанные изменения убраны из очереди, включая отклоненные
	count, err := service.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSync_PullAppliesChanges(t *testing.T) {
	ctx := context.Background()

	apiClient := &mockAPIClient{
		pushFunc: func(ctx context.Context, accessToken string, req api.PushRequest) (*api.PushResponse, error) {
			t.Fatal("push must not be called with empty queue")
			return nil, nil
		},
		pullFunc: func(ctx context.Context, accessToken string, since int64) (*api.PullResponse, error) {
			if since != 0 {
				return &api.PullResponse{LastSyncID: since}, nil
			}
			return &api.PullResponse{
				Changes: []api.PulledChange{
					{
						ChangeID:   1,
						EntityType: models.EntityTypeTask,
						EntityID:   "t-1",
						Operation:  models.OperationCreate,
						Data:       entitySnapshot(t, "t-1", 2, `{"title":"Essay"}`),
					},
					{
						ChangeID:   2,
						EntityType: models.EntityTypeTask,
						EntityID:   "t-2",
						Operation:  models.OperationDelete,
					},
				},
				LastSyncID: 2,
			}, nil
		},
	}

	service, store := setupSyncService(t, apiClient)

	// t-2 существует локально и должна исчезнуть после DELETE
	require.NoError(t, store.SaveEntity(ctx, models.EntityTypeTask, &models.Entity{
		ID:      "t-2",
		Data:    json.RawMessage(`{"title":"old"}`),
		Version: 1,
	}))

	result, err := service.Sync(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, int64(2), result.LastSyncID)

	got, err := store.GetEntity(ctx, models.EntityTypeTask, "t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)

	_, err = store.GetEntity(ctx, models.EntityTypeTask, "t-2")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	// Курсор сохранен для следующего запуска
	cursor, err := store.GetLastSyncID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cursor)
}

func TestSync_PullPaginates(t *testing.T) {
	ctx := context.Background()

	var pullCalls []int64
	apiClient := &mockAPIClient{
		pullFunc: func(ctx context.Context, accessToken string, since int64) (*api.PullResponse, error) {
			pullCalls = append(pullCalls, since)
			switch since {
			case 0:
				return &api.PullResponse{
					Changes: []api.PulledChange{
						{ChangeID: 1, EntityType: models.EntityTypeClass, EntityID: "c-1", Operation: models.OperationCreate, Data: entitySnapshot(t, "c-1", 1, `{"name":"7B"}`)},
					},
					LastSyncID: 1,
					HasMore:    true,
				}, nil
			case 1:
				return &api.PullResponse{
					Changes: []api.PulledChange{
						{ChangeID: 2, EntityType: models.EntityTypeClass, EntityID: "c-2", Operation: models.OperationCreate, Data: entitySnapshot(t, "c-2", 1, `{"name":"8A"}`)},
					},
					LastSyncID: 2,
				}, nil
			default:
				t.Fatalf("unexpected pull cursor %d", since)
				return nil, nil
			}
		},
	}

	service, store := setupSyncService(t, apiClient)

	result, err := service.Sync(ctx, "token")
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 1}, pullCalls)
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, int64(2), result.LastSyncID)

	list, err := store.ListEntities(ctx, models.EntityTypeClass)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSync_ResumesFromSavedCursor(t *testing.T) {
	ctx := context.Background()

	var gotSince int64 = -1
	apiClient := &mockAPIClient{
		pullFunc: func(ctx context.Context, accessToken string, since int64) (*api.PullResponse, error) {
			gotSince = since
			return &api.PullResponse{LastSyncID: since}, nil
		},
	}

	service, store := setupSyncService(t, apiClient)
	require.NoError(t, store.SaveLastSyncID(ctx, 42))

	_, err := service.Sync(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, int64(42), gotSince)
}
