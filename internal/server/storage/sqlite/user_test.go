package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/schoolsync/internal/models"
	"github.com/iudanet/schoolsync/internal/server/storage"
)

func testUser(username string) *models.User {
	return &models.User{
		ID:           uuid.New().String(),
		SchoolID:     uuid.New().String(),
		SchoolName:   "School #7",
		Username:     username,
		PasswordHash: "hash",
		Salt:         "salt",
		CreatedAt:    time.Now(),
	}
}

func TestUserStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := testUser("teacher1")
	require.NoError(t, s.CreateUser(ctx, user))

	byName, err := s.GetUserByUsername(ctx, "teacher1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.Equal(t, user.SchoolID, byName.SchoolID)
	assert.Equal(t, "School #7", byName.SchoolName)
	assert.Nil(t, byName.LastLogin)

	byID, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "teacher1", byID.Username)
}

func TestUserStorage_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.CreateUser(ctx, testUser("teacher1")))

	err := s.CreateUser(ctx, testUser("teacher1"))
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestUserStorage_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetUserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	err = s.UpdateLastLogin(ctx, uuid.New().String())
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_UpdateLastLogin(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := testUser("teacher1")
	require.NoError(t, s.CreateUser(ctx, user))
	require.NoError(t, s.UpdateLastLogin(ctx, user.ID))

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
}

func TestTokenStorage_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := testUser("teacher1")
	require.NoError(t, s.CreateUser(ctx, user))

	token := &models.RefreshToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.SaveRefreshToken(ctx, token))

	got, err := s.GetRefreshToken(ctx, token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.False(t, got.IsExpired())

	require.NoError(t, s.DeleteRefreshToken(ctx, token.Token))

	_, err = s.GetRefreshToken(ctx, token.Token)
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestTokenStorage_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := testUser("teacher1")
	require.NoError(t, s.CreateUser(ctx, user))

	expired := &models.RefreshToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	valid := &models.RefreshToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.SaveRefreshToken(ctx, expired))
	require.NoError(t, s.SaveRefreshToken(ctx, valid))

	deleted, err := s.DeleteExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = s.GetRefreshToken(ctx, expired.Token)
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	_, err = s.GetRefreshToken(ctx, valid.Token)
	assert.NoError(t, err)
}
